// Package metrics provides lightweight, lock-free counters for
// tracking runtime statistics of a coursereg server.
//
// All methods are safe for concurrent use.  A nil *Collector is a
// valid no-op receiver, so callers never need to nil-check.
package metrics

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Collector tracks runtime metrics for a coursereg server.
// A nil Collector is safe to use; all methods become no-ops.
type Collector struct {
	sessionsActive  atomic.Int64
	sessionsTotal   atomic.Int64
	authFailures    atomic.Int64
	commandsTotal   atomic.Int64
	unknownCommands atomic.Int64
	droppedCommands atomic.Int64
	commits         atomic.Int64
	commitFailures  atomic.Int64
	bytesIn         atomic.Int64
	bytesOut        atomic.Int64
	errorsTotal     atomic.Int64

	mu           sync.RWMutex
	startTime    time.Time
	lastCommit   time.Time
	lastError    time.Time
	lastErrorMsg string
}

// New creates a metrics collector with the start time set to now.
func New() *Collector {
	return &Collector{startTime: time.Now()}
}

// ── Session metrics ──────────────────────────────────────────────────

// SessionOpened increments both the active and total counters.
func (c *Collector) SessionOpened() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(1)
	c.sessionsTotal.Add(1)
}

// SessionClosed decrements the active session counter.
func (c *Collector) SessionClosed() {
	if c == nil {
		return
	}
	c.sessionsActive.Add(-1)
}

// ActiveSessions returns the current number of running sessions.
func (c *Collector) ActiveSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsActive.Load()
}

// TotalSessions returns the lifetime session count.
func (c *Collector) TotalSessions() int64 {
	if c == nil {
		return 0
	}
	return c.sessionsTotal.Load()
}

// AuthFailed records a rejected login handshake.
func (c *Collector) AuthFailed() {
	if c == nil {
		return
	}
	c.authFailures.Add(1)
}

// AuthFailures returns the number of rejected logins.
func (c *Collector) AuthFailures() int64 {
	if c == nil {
		return 0
	}
	return c.authFailures.Load()
}

// ── Command metrics ──────────────────────────────────────────────────

// CommandHandled records a command routed to a handler.
func (c *Collector) CommandHandled() {
	if c == nil {
		return
	}
	c.commandsTotal.Add(1)
}

// CommandUnknown records a request whose code is not recognised.
func (c *Collector) CommandUnknown() {
	if c == nil {
		return
	}
	c.unknownCommands.Add(1)
}

// CommandDropped records a request dropped for having the wrong
// number of fields.
func (c *Collector) CommandDropped() {
	if c == nil {
		return
	}
	c.droppedCommands.Add(1)
}

// Commands returns the number of handled commands.
func (c *Collector) Commands() int64 {
	if c == nil {
		return 0
	}
	return c.commandsTotal.Load()
}

// UnknownCommands returns the number of unknown requests.
func (c *Collector) UnknownCommands() int64 {
	if c == nil {
		return 0
	}
	return c.unknownCommands.Load()
}

// DroppedCommands returns the number of dropped requests.
func (c *Collector) DroppedCommands() int64 {
	if c == nil {
		return 0
	}
	return c.droppedCommands.Load()
}

// ── Commit metrics ───────────────────────────────────────────────────

// CommitSucceeded records a successful gateway commit.
func (c *Collector) CommitSucceeded() {
	if c == nil {
		return
	}
	c.commits.Add(1)
	c.mu.Lock()
	c.lastCommit = time.Now()
	c.mu.Unlock()
}

// CommitFailed records a failed gateway commit.
func (c *Collector) CommitFailed(msg string) {
	if c == nil {
		return
	}
	c.commitFailures.Add(1)
	c.RecordError(msg)
}

// Commits returns the number of successful commits.
func (c *Collector) Commits() int64 {
	if c == nil {
		return 0
	}
	return c.commits.Load()
}

// CommitFailures returns the number of failed commits.
func (c *Collector) CommitFailures() int64 {
	if c == nil {
		return 0
	}
	return c.commitFailures.Load()
}

// ── I/O metrics ──────────────────────────────────────────────────────

// BytesReceived records n bytes read from the network.
func (c *Collector) BytesReceived(n int64) {
	if c == nil {
		return
	}
	c.bytesIn.Add(n)
}

// BytesSent records n bytes written to the network.
func (c *Collector) BytesSent(n int64) {
	if c == nil {
		return
	}
	c.bytesOut.Add(n)
}

// TotalBytesIn returns total bytes received.
func (c *Collector) TotalBytesIn() int64 {
	if c == nil {
		return 0
	}
	return c.bytesIn.Load()
}

// TotalBytesOut returns total bytes sent.
func (c *Collector) TotalBytesOut() int64 {
	if c == nil {
		return 0
	}
	return c.bytesOut.Load()
}

// ── Error metrics ────────────────────────────────────────────────────

// RecordError increments the error counter and stores the message.
func (c *Collector) RecordError(msg string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.mu.Lock()
	c.lastError = time.Now()
	c.lastErrorMsg = msg
	c.mu.Unlock()
}

// ErrorCount returns the total number of errors recorded.
func (c *Collector) ErrorCount() int64 {
	if c == nil {
		return 0
	}
	return c.errorsTotal.Load()
}

// ── Snapshot ─────────────────────────────────────────────────────────

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Uptime           string `json:"uptime"`
	SessionsActive   int64  `json:"sessions_active"`
	SessionsTotal    int64  `json:"sessions_total"`
	AuthFailures     int64  `json:"auth_failures"`
	CommandsTotal    int64  `json:"commands_total"`
	UnknownCommands  int64  `json:"unknown_commands"`
	DroppedCommands  int64  `json:"dropped_commands"`
	Commits          int64  `json:"commits"`
	CommitFailures   int64  `json:"commit_failures"`
	BytesIn          int64  `json:"bytes_in"`
	BytesOut         int64  `json:"bytes_out"`
	ErrorsTotal      int64  `json:"errors_total"`
	LastCommit       string `json:"last_commit,omitempty"`
	LastError        string `json:"last_error,omitempty"`
	LastErrorMessage string `json:"last_error_message,omitempty"`
}

// Snapshot returns a copy of all current metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	s := Snapshot{
		Uptime:          time.Since(c.startTime).Truncate(time.Second).String(),
		SessionsActive:  c.sessionsActive.Load(),
		SessionsTotal:   c.sessionsTotal.Load(),
		AuthFailures:    c.authFailures.Load(),
		CommandsTotal:   c.commandsTotal.Load(),
		UnknownCommands: c.unknownCommands.Load(),
		DroppedCommands: c.droppedCommands.Load(),
		Commits:         c.commits.Load(),
		CommitFailures:  c.commitFailures.Load(),
		BytesIn:         c.bytesIn.Load(),
		BytesOut:        c.bytesOut.Load(),
		ErrorsTotal:     c.errorsTotal.Load(),
	}
	if !c.lastCommit.IsZero() {
		s.LastCommit = c.lastCommit.Format(time.RFC3339)
	}
	if !c.lastError.IsZero() {
		s.LastError = c.lastError.Format(time.RFC3339)
		s.LastErrorMessage = c.lastErrorMsg
	}
	return s
}

// JSON returns the snapshot as an indented JSON string.
func (c *Collector) JSON() string {
	s := c.Snapshot()
	data, _ := json.MarshalIndent(s, "", "  ")
	return string(data)
}
