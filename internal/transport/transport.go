// Package transport provides abstractions for establishing the client
// side of a registration connection.  Transports handle how bytes
// reach the server, independent of the line protocol spoken over them.
package transport

import (
	"context"
	"net"
)

// Dialer opens outbound network connections.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer.
	// Stateless dialers return nil.
	Close() error
}
