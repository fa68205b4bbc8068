package metrics

import (
	"encoding/json"
	"testing"
)

func TestCollector_Sessions(t *testing.T) {
	c := New()

	c.SessionOpened()
	c.SessionOpened()
	if c.ActiveSessions() != 2 {
		t.Errorf("active = %d, want 2", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total = %d, want 2", c.TotalSessions())
	}

	c.SessionClosed()
	if c.ActiveSessions() != 1 {
		t.Errorf("active = %d, want 1", c.ActiveSessions())
	}
	if c.TotalSessions() != 2 {
		t.Errorf("total should remain 2, got %d", c.TotalSessions())
	}
}

func TestCollector_Bytes(t *testing.T) {
	c := New()

	c.BytesReceived(1024)
	c.BytesSent(512)
	c.BytesReceived(100)

	if c.TotalBytesIn() != 1124 {
		t.Errorf("bytes in = %d, want 1124", c.TotalBytesIn())
	}
	if c.TotalBytesOut() != 512 {
		t.Errorf("bytes out = %d, want 512", c.TotalBytesOut())
	}
}

func TestCollector_Commands(t *testing.T) {
	c := New()

	c.CommandHandled()
	c.CommandHandled()
	c.CommandUnknown()
	c.CommandDropped()
	c.CommandDropped()
	c.CommandDropped()

	if c.Commands() != 2 {
		t.Errorf("commands = %d, want 2", c.Commands())
	}
	if c.UnknownCommands() != 1 {
		t.Errorf("unknown = %d, want 1", c.UnknownCommands())
	}
	if c.DroppedCommands() != 3 {
		t.Errorf("dropped = %d, want 3", c.DroppedCommands())
	}
}

func TestCollector_Commits(t *testing.T) {
	c := New()

	c.CommitSucceeded()
	c.CommitFailed("flush: database is locked")

	if c.Commits() != 1 {
		t.Errorf("commits = %d, want 1", c.Commits())
	}
	if c.CommitFailures() != 1 {
		t.Errorf("commit failures = %d, want 1", c.CommitFailures())
	}
	if c.ErrorCount() != 1 {
		t.Errorf("a failed commit should count as an error, got %d", c.ErrorCount())
	}

	snap := c.Snapshot()
	if snap.LastCommit == "" {
		t.Error("expected non-empty last commit timestamp")
	}
}

func TestCollector_AuthFailures(t *testing.T) {
	c := New()
	c.AuthFailed()
	c.AuthFailed()

	if c.AuthFailures() != 2 {
		t.Errorf("auth failures = %d, want 2", c.AuthFailures())
	}
}

func TestCollector_Snapshot(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesReceived(100)
	c.BytesSent(50)
	c.RecordError("test")

	snap := c.Snapshot()
	if snap.SessionsActive != 1 {
		t.Errorf("snap active = %d", snap.SessionsActive)
	}
	if snap.BytesIn != 100 {
		t.Errorf("snap bytes in = %d", snap.BytesIn)
	}
	if snap.ErrorsTotal != 1 {
		t.Errorf("snap errors = %d", snap.ErrorsTotal)
	}
	if snap.LastErrorMessage != "test" {
		t.Errorf("snap error msg = %q", snap.LastErrorMessage)
	}
}

func TestCollector_JSON(t *testing.T) {
	c := New()
	c.SessionOpened()
	c.BytesSent(42)

	raw := c.JSON()
	var snap Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		t.Fatalf("JSON parse error: %v", err)
	}
	if snap.SessionsActive != 1 {
		t.Errorf("JSON active = %d", snap.SessionsActive)
	}
	if snap.BytesOut != 42 {
		t.Errorf("JSON bytes out = %d", snap.BytesOut)
	}
}

func TestNilCollector_NoOps(t *testing.T) {
	var c *Collector

	// None of these should panic.
	c.SessionOpened()
	c.SessionClosed()
	c.AuthFailed()
	c.CommandHandled()
	c.CommandUnknown()
	c.CommandDropped()
	c.CommitSucceeded()
	c.CommitFailed("x")
	c.BytesReceived(100)
	c.BytesSent(100)
	c.RecordError("test")

	if c.ActiveSessions() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.TotalBytesIn() != 0 {
		t.Error("nil collector should return 0")
	}
	if c.Commits() != 0 {
		t.Error("nil collector should return 0")
	}

	snap := c.Snapshot()
	if snap.SessionsActive != 0 {
		t.Error("nil snapshot should be zero")
	}

	j := c.JSON()
	if j == "" {
		t.Error("nil JSON should return valid JSON")
	}
}
