package util

import (
	"errors"
	"io"
	"net"
	"syscall"
)

// MeteredConn wraps a net.Conn and reports every successful read and
// write size to the supplied callbacks.  Nil callbacks are skipped.
type MeteredConn struct {
	net.Conn
	OnRead  func(n int64)
	OnWrite func(n int64)
}

func (c *MeteredConn) Read(p []byte) (int, error) {
	n, err := c.Conn.Read(p)
	if n > 0 && c.OnRead != nil {
		c.OnRead(int64(n))
	}
	return n, err
}

func (c *MeteredConn) Write(p []byte) (int, error) {
	n, err := c.Conn.Write(p)
	if n > 0 && c.OnWrite != nil {
		c.OnWrite(int64(n))
	}
	return n, err
}

// IsHarmless returns true for errors that are expected when a peer
// goes away or a connection is torn down during shutdown.
func IsHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	// net.OpError wrapping "use of closed network connection"
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
