package config

import "time"

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, .env files, and environment variable loading.

const (
	// DefaultHost is the listen address for serve and the server
	// address for connect.
	DefaultHost = "127.0.0.1"

	// DefaultPort is the registration server's TCP port.
	DefaultPort = 8099

	// DefaultDBPath is where serve keeps its SQLite database.
	DefaultDBPath = "./data/coursereg.db"

	// DefaultMaxCoursesPerStudent caps registrations per student.
	DefaultMaxCoursesPerStudent = 6

	// DefaultGracePeriod is how long serve waits for live sessions to
	// commit and close on shutdown.
	DefaultGracePeriod = 5 * time.Second

	// DefaultCommitRetries bounds attempts to flush staged changes into
	// a locked database.
	DefaultCommitRetries = 5

	// DefaultConnTimeout is the client's per-attempt TCP dial timeout.
	DefaultConnTimeout = 10 * time.Second

	// DefaultDialAttempts is how many times connect tries to reach a
	// server that refuses the connection.
	DefaultDialAttempts = 5

	// EnvPrefix is prepended to every environment variable name.
	EnvPrefix = "COURSEREG_"
)
