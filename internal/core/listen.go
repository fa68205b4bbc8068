package core

import (
	"bufio"
	"context"
	"net"
	"sync"
	"time"

	"coursereg/internal/domain"
	"coursereg/internal/errors"
	"coursereg/internal/identity"
	"coursereg/internal/metrics"
	"coursereg/internal/protocol"
	"coursereg/internal/session"
	"coursereg/internal/store"
	"coursereg/util"
)

// DefaultGracePeriod is how long Run waits for live sessions to finish
// once the server is shutting down.
const DefaultGracePeriod = 5 * time.Second

const (
	minAcceptDelay = 5 * time.Millisecond
	maxAcceptDelay = time.Second
)

// ListenMode accepts student connections and runs one session per
// connection, each on its own goroutine.
type ListenMode struct {
	Address     string // "host:port"
	Gateway     store.Gateway
	Resolver    identity.Resolver
	Handler     session.Handler
	MaxSessions int           // 0 = unbounded
	GracePeriod time.Duration // 0 = DefaultGracePeriod
	Logger      *util.Logger
	Metrics     *metrics.Collector

	// Ready, when set, receives the bound address once the listener is
	// up.  It must be buffered or have a waiting receiver.
	Ready chan<- net.Addr
}

// Run binds, then accepts until ctx is cancelled.  A bind failure is
// returned.  A temporary accept failure (out of file descriptors, an
// aborted handshake) is logged and retried after a pause; any other
// accept failure drains the sessions and is returned.
func (m *ListenMode) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", m.Address)
	if err != nil {
		return errors.Wrap("listen", m.Address, err)
	}
	defer ln.Close()

	m.Logger.Info("listening on %s", ln.Addr())
	if m.Ready != nil {
		m.Ready <- ln.Addr()
	}

	// Shut the listener down when the context expires.
	stop := context.AfterFunc(ctx, func() { ln.Close() })
	defer stop()

	var (
		wg    sync.WaitGroup
		slots chan struct{}
		delay time.Duration
	)
	if m.MaxSessions > 0 {
		slots = make(chan struct{}, m.MaxSessions)
	}

	for {
		if slots != nil {
			select {
			case slots <- struct{}{}:
			case <-ctx.Done():
				return m.drain(&wg)
			}
		}

		conn, err := ln.Accept()
		if err != nil {
			if slots != nil {
				<-slots
			}
			if ctx.Err() != nil {
				return m.drain(&wg)
			}
			if !errors.IsTemporary(err) {
				m.drain(&wg) //nolint:errcheck
				return errors.Wrap("accept", m.Address, err)
			}

			delay = nextAcceptDelay(delay)
			m.Logger.Warn("accept: %v; retrying in %s", err, delay)
			m.Metrics.RecordError(err.Error())
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return m.drain(&wg)
			}
			continue
		}
		delay = 0

		m.Logger.Verbose("connection from %s", conn.RemoteAddr())
		wg.Add(1)
		go func() {
			defer wg.Done()
			if slots != nil {
				defer func() { <-slots }()
			}
			m.serveConn(ctx, conn)
		}()
	}
}

func nextAcceptDelay(d time.Duration) time.Duration {
	if d == 0 {
		return minAcceptDelay
	}
	if d *= 2; d > maxAcceptDelay {
		return maxAcceptDelay
	}
	return d
}

// drain waits up to the grace period for running sessions so their
// commits land before Run returns.
func (m *ListenMode) drain(wg *sync.WaitGroup) error {
	grace := m.GracePeriod
	if grace <= 0 {
		grace = DefaultGracePeriod
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.Logger.Verbose("all sessions finished")
	case <-time.After(grace):
		m.Logger.Warn("%d sessions still running after %s grace period", m.Metrics.ActiveSessions(), grace)
	}
	return nil
}

// ── Per connection ───────────────────────────────────────────────────

func (m *ListenMode) serveConn(ctx context.Context, raw net.Conn) {
	log := m.Logger.With("remote", raw.RemoteAddr().String())
	conn := &util.MeteredConn{
		Conn:    raw,
		OnRead:  m.Metrics.BytesReceived,
		OnWrite: m.Metrics.BytesSent,
	}
	r := bufio.NewReader(conn)
	enc := protocol.NewEncoder(conn)

	student, err := m.login(ctx, conn, r, enc)
	if err != nil {
		m.Metrics.AuthFailed()
		if util.IsHarmless(err) || ctx.Err() != nil {
			log.Verbose("login abandoned: %v", err)
		} else {
			log.Warn("login refused: %v", err)
		}
		conn.Close()
		return
	}

	sess := session.New(conn, student, m.Gateway, log,
		session.WithReader(r),
		session.WithEncoder(enc),
		session.WithMetrics(m.Metrics),
	)
	if err := sess.Run(ctx, m.Handler); err != nil {
		log.Warn("session %s ended: %v", sess.ID(), err)
	}
}

// login reads the first line and resolves the student.  On failure
// the client is told why before the connection is dropped.
func (m *ListenMode) login(ctx context.Context, conn net.Conn, r *bufio.Reader, enc *protocol.Encoder) (domain.Student, error) {
	unwatch := context.AfterFunc(ctx, func() {
		conn.SetReadDeadline(time.Unix(1, 0)) //nolint:errcheck
	})
	defer unwatch()

	line, err := protocol.ReadLine(r, protocol.MaxLineLength)
	if err != nil && line == "" {
		return domain.Student{}, err
	}

	student, err := m.Resolver.Resolve(ctx, protocol.Decode(line))
	if err != nil {
		msg := "Invalid student id or password"
		if errors.Is(err, errors.ErrBadHandshake) {
			msg = "Malformed login request"
		}
		enc.WriteResponse(protocol.Failure("%s", msg)) //nolint:errcheck
		return domain.Student{}, err
	}

	if err := enc.WriteResponse(protocol.LoggedIn(student)); err != nil {
		return domain.Student{}, err
	}
	return student, nil
}
