package util

import (
	"io"
	"net"
	"testing"
)

func TestMeteredConn_CountsBytes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	var in, out int64
	mc := &MeteredConn{
		Conn:    server,
		OnRead:  func(n int64) { in += n },
		OnWrite: func(n int64) { out += n },
	}

	go func() {
		client.Write([]byte("hello")) //nolint:errcheck
		buf := make([]byte, 3)
		io.ReadFull(client, buf) //nolint:errcheck
	}()

	buf := make([]byte, 5)
	if _, err := io.ReadFull(mc, buf); err != nil {
		t.Fatal(err)
	}
	if _, err := mc.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}

	if in != 5 {
		t.Errorf("read bytes = %d, want 5", in)
	}
	if out != 3 {
		t.Errorf("written bytes = %d, want 3", out)
	}
}

func TestIsHarmless(t *testing.T) {
	if !IsHarmless(nil) {
		t.Error("nil should be harmless")
	}
	if !IsHarmless(io.EOF) {
		t.Error("io.EOF should be harmless")
	}
	if !IsHarmless(net.ErrClosed) {
		t.Error("net.ErrClosed should be harmless")
	}
	if !IsHarmless(&net.OpError{Op: "read", Err: net.ErrClosed}) {
		t.Error("wrapped net.ErrClosed should be harmless")
	}
	if IsHarmless(io.ErrUnexpectedEOF) {
		t.Error("ErrUnexpectedEOF should NOT be harmless")
	}
}
