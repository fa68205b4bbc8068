// Package session runs the request loop for one connected student.
//
// A Session owns its connection: it reads request lines, hands each
// one to a Handler in arrival order, and on the way out commits staged
// changes exactly once before closing the connection.
package session

import (
	"bufio"
	"context"
	"io"
	"net"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
	"coursereg/internal/metrics"
	"coursereg/internal/protocol"
	"coursereg/util"
)

// State is a session lifecycle stage.  Transitions only move forward:
// created → running → stopping → terminated.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "invalid"
	}
}

// aLongTimeAgo is a read deadline that has always passed.
var aLongTimeAgo = time.Unix(1, 0)

// Committer flushes staged data store changes.
type Committer interface {
	Commit(ctx context.Context) error
}

// Client is the view of a session that request handlers get.
type Client interface {
	ID() string
	Student() domain.Student
	Logger() *util.Logger
	Reply(r protocol.Response) error
	Notify(text string) error
	Stop(ctx context.Context)
}

// Handler processes one decoded request.  A returned error ends the
// session; handlers report request-level problems to the client
// instead.
type Handler interface {
	Dispatch(ctx context.Context, c Client, cmd protocol.Command) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, c Client, cmd protocol.Command) error

func (f HandlerFunc) Dispatch(ctx context.Context, c Client, cmd protocol.Command) error {
	return f(ctx, c, cmd)
}

// Session encapsulates the runtime context for a single connection.
type Session struct {
	id        string
	conn      net.Conn
	reader    *bufio.Reader
	enc       *protocol.Encoder
	student   domain.Student
	committer Committer
	logger    *util.Logger
	metrics   *metrics.Collector

	state     atomic.Int32
	committed atomic.Bool
	stopOnce  sync.Once
}

// Option configures a Session.
type Option func(*Session)

// WithReader makes the session continue reading from r, which must
// wrap the session's connection.  Use it when bytes were already
// buffered during the login handshake.
func WithReader(r *bufio.Reader) Option {
	return func(s *Session) { s.reader = r }
}

// WithEncoder shares an existing frame encoder for the connection.
func WithEncoder(enc *protocol.Encoder) Option {
	return func(s *Session) { s.enc = enc }
}

// WithMetrics records session counters in m.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Session) { s.metrics = m }
}

// New creates a Session for student on conn.  Staged changes are
// committed through committer when the session stops.
func New(conn net.Conn, student domain.Student, committer Committer, logger *util.Logger, opts ...Option) *Session {
	id := uuid.NewString()
	s := &Session{
		id:        id,
		conn:      conn,
		student:   student,
		committer: committer,
		logger:    logger.With("session", id[:8]),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reader == nil {
		s.reader = bufio.NewReader(conn)
	}
	if s.enc == nil {
		s.enc = protocol.NewEncoder(conn)
	}
	s.metrics.SessionOpened()
	return s
}

// ID returns the session's unique id.
func (s *Session) ID() string { return s.id }

// Student returns the student bound to this session.
func (s *Session) Student() domain.Student { return s.student }

// Logger returns the session-scoped logger.
func (s *Session) Logger() *util.Logger { return s.logger }

// State returns the current lifecycle stage.
func (s *Session) State() State { return State(s.state.Load()) }

// Run sends the menu, then reads and dispatches requests until the
// session stops, the peer goes away or ctx is cancelled.  It always
// leaves the session terminated.  Run may be called once.
func (s *Session) Run(ctx context.Context, h Handler) error {
	defer s.Stop(ctx)

	if !s.state.CompareAndSwap(int32(StateCreated), int32(StateRunning)) {
		return errors.ErrSessionClosed
	}
	s.logger.Info("session started for student %s", s.student.ID)

	// Cancelling ctx unblocks a pending read without closing the
	// connection, so Stop still commits before the close.
	unwatch := context.AfterFunc(ctx, func() {
		s.conn.SetReadDeadline(aLongTimeAgo) //nolint:errcheck
	})
	defer unwatch()

	if err := s.Notify(protocol.Menu); err != nil {
		return s.ioError("write", err)
	}

	for s.State() == StateRunning {
		line, rerr := protocol.ReadLine(s.reader, protocol.MaxLineLength)
		eof := errors.Is(rerr, io.EOF)
		if rerr != nil && !eof {
			if ctx.Err() != nil || s.State() != StateRunning {
				return nil
			}
			if errors.Is(rerr, protocol.ErrLineTooLong) {
				s.logger.Warn("request exceeds %d bytes; closing", protocol.MaxLineLength)
				return rerr
			}
			return s.ioError("read", rerr)
		}

		// At EOF a final unterminated line is still dispatched; the
		// read after it comes back empty and decodes to the
		// end-of-input marker.
		cmd := protocol.Decode(line)
		s.logger.Debug("request %q", line)
		if err := h.Dispatch(ctx, s, cmd); err != nil {
			if s.State() != StateRunning {
				return nil
			}
			return s.ioError("write", err)
		}
		if eof && line == "" {
			return nil
		}
	}
	return nil
}

// Stop commits staged changes and closes the connection.  Only the
// first call does anything; later calls wait for it to finish.  The
// commit is not cancelled with ctx, and the connection is closed even
// when the commit fails.
func (s *Session) Stop(ctx context.Context) {
	s.stopOnce.Do(func() {
		s.state.Store(int32(StateStopping))

		if s.committed.CompareAndSwap(false, true) {
			if err := s.committer.Commit(context.WithoutCancel(ctx)); err != nil {
				s.logger.Error("commit failed: %v", err)
				s.metrics.CommitFailed(err.Error())
			} else {
				s.metrics.CommitSucceeded()
			}
		}

		if err := s.conn.Close(); err != nil && !util.IsHarmless(err) {
			s.logger.Warn("close: %v", err)
		}
		s.state.Store(int32(StateTerminated))
		s.metrics.SessionClosed()
		s.logger.Info("session closed")
	})
}

// Reply sends a structured response.
func (s *Session) Reply(r protocol.Response) error {
	if s.State() >= StateStopping {
		return errors.ErrSessionClosed
	}
	if err := s.enc.WriteResponse(r); err != nil {
		return errors.Wrap("write", s.remote(), err)
	}
	return nil
}

// Notify sends a human-readable text message.
func (s *Session) Notify(text string) error {
	if s.State() >= StateStopping {
		return errors.ErrSessionClosed
	}
	if err := s.enc.WriteText(text); err != nil {
		return errors.Wrap("write", s.remote(), err)
	}
	return nil
}

func (s *Session) remote() string {
	if a := s.conn.RemoteAddr(); a != nil {
		return a.String()
	}
	return ""
}

// ioError logs a connection failure unless it is the ordinary end of
// a connection, and returns it for the caller.
func (s *Session) ioError(op string, err error) error {
	if util.IsHarmless(err) || errors.Is(err, os.ErrDeadlineExceeded) {
		s.logger.Verbose("%s: %v", op, err)
		return nil
	}
	s.logger.Warn("%s: %v", op, err)
	s.metrics.RecordError(err.Error())
	return err
}

var _ Client = (*Session)(nil)
