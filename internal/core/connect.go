package core

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"coursereg/internal/errors"
	"coursereg/internal/protocol"
	"coursereg/internal/transport"
	"coursereg/util"
)

// ConnectMode is the interactive client: it logs in, then forwards
// lines typed on Stdin as requests and renders every server frame on
// Stdout.
type ConnectMode struct {
	Dialer    transport.Dialer
	Address   string
	StudentID string
	Password  string // empty sends an id-only login line
	Logger    *util.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run dials the server and runs the session until the server closes
// the connection, or input ends and the server has answered everything
// sent.  The transport is closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	defer m.Dialer.Close()

	m.Logger.Verbose("connecting to %s", m.Address)

	conn, err := m.Dialer.Dial(ctx, "tcp", m.Address)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", m.Address, err)
	}
	defer conn.Close()

	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	m.Logger.Verbose("connected to %s", conn.RemoteAddr())

	r := bufio.NewReader(conn)
	render := NewRenderer(m.stdout())
	if err := m.login(conn, r, render); err != nil {
		return err
	}

	frames := make(chan error, 1)
	go func() { frames <- m.readFrames(r, render) }()

	input := make(chan error, 1)
	go func() { input <- m.sendInput(conn) }()

	select {
	case err := <-frames:
		return err
	case err := <-input:
		if err != nil {
			return err
		}
		endInput(conn)
		return <-frames
	}
}

func (m *ConnectMode) login(conn net.Conn, r *bufio.Reader, render *Renderer) error {
	login := protocol.Command{Fields: []string{m.StudentID}}
	if m.Password != "" {
		login.Fields = append(login.Fields, m.Password)
	}
	if _, err := io.WriteString(conn, login.Encode()+"\n"); err != nil {
		return errors.Wrap("write", m.Address, err)
	}

	f, err := protocol.ReadFrame(r)
	if err != nil {
		return fmt.Errorf("read login response: %w", err)
	}
	if f.Channel != protocol.ChannelObject {
		return fmt.Errorf("unexpected %s frame during login", f.Channel)
	}
	if !f.Response.OK() {
		return fmt.Errorf("%w: %s", errors.ErrAuthFailed, f.Response.Message)
	}
	return render.Frame(f)
}

// readFrames renders frames until the server closes the connection.
func (m *ConnectMode) readFrames(r *bufio.Reader, render *Renderer) error {
	for {
		f, err := protocol.ReadFrame(r)
		if err != nil {
			if util.IsHarmless(err) {
				m.Logger.Verbose("server closed the connection")
				return nil
			}
			return fmt.Errorf("read: %w", err)
		}
		if err := render.Frame(f); err != nil {
			return err
		}
	}
}

// sendInput turns each typed line into a request.  Whitespace between
// the code and its argument becomes the field delimiter; blank lines
// are skipped so they are not mistaken for the end of input.
func (m *ConnectMode) sendInput(conn net.Conn) error {
	sc := bufio.NewScanner(m.stdin())
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 {
			continue
		}
		req := protocol.Command{Fields: fields}.Encode() + "\n"
		if _, err := io.WriteString(conn, req); err != nil {
			if util.IsHarmless(err) {
				return nil
			}
			return errors.Wrap("write", m.Address, err)
		}
	}
	return sc.Err()
}

// endInput signals the end of requests: a half-close where the
// transport supports it, otherwise the blank end-of-input line.
func endInput(conn net.Conn) {
	if cw, ok := conn.(interface{ CloseWrite() error }); ok {
		cw.CloseWrite() //nolint:errcheck
		return
	}
	io.WriteString(conn, "\n") //nolint:errcheck
}
