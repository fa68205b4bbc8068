package transport

import (
	"context"
	"net"
	"time"

	"coursereg/internal/errors"
	"coursereg/internal/retry"
)

// TCPDialer establishes plain TCP connections.
type TCPDialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration // 0 uses the net package default
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}

	conn, err := dialer.DialContext(ctx, network, address)
	if err != nil {
		return nil, errors.Wrap("dial", address, err)
	}
	return conn, nil
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }

// RetryDialer retries a wrapped Dialer with exponential backoff, so a
// client started alongside the server does not fail on the first
// refused connection.
type RetryDialer struct {
	Dialer  Dialer
	Backoff *retry.Backoff
}

// Dial tries the wrapped dialer until it succeeds or the backoff budget
// is exhausted.  A cancelled context or an error errors.IsRetryable
// rejects (an unknown host, say) stops retrying.
func (d *RetryDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	var conn net.Conn
	err := d.Backoff.Do(ctx, func(_ int) error {
		c, err := d.Dialer.Dial(ctx, network, address)
		if err != nil {
			if ctx.Err() != nil || !errors.IsRetryable(err) {
				return retry.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Close closes the wrapped dialer.
func (d *RetryDialer) Close() error { return d.Dialer.Close() }
