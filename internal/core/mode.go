// Package core is the orchestration layer.  It composes the store,
// identity, session and dispatch packages into the two operational
// modes of coursereg and provides builders that assemble them from a
// Config.
//
// Architecture layers (bottom → top):
//
//	protocol/store  →  identity/dispatch  →  session  →  core  →  cmd (CLI)
package core

import "context"

// Mode represents a complete operational mode of coursereg (serve or
// connect).  Each mode owns its full lifecycle from connection
// establishment to teardown.
type Mode interface {
	Run(ctx context.Context) error
}
