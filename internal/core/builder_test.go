package core

import (
	"testing"

	"coursereg/config"
	"coursereg/internal/identity"
	"coursereg/internal/store"
	"coursereg/internal/transport"
	"coursereg/util"
)

// TestBuildServer verifies that BuildServer produces a ListenMode
// wired to the store.
func TestBuildServer(t *testing.T) {
	cfg := config.Default()
	cfg.Port = 8080
	cfg.MaxSessions = 3
	logger := util.NewLogger(0)

	mode, err := BuildServer(cfg, store.NewCatalog(), nil, logger)
	if err != nil {
		t.Fatal(err)
	}
	lm, ok := mode.(*ListenMode)
	if !ok {
		t.Fatalf("expected *ListenMode, got %T", mode)
	}
	if lm.Address != "127.0.0.1:8080" {
		t.Errorf("Address = %q", lm.Address)
	}
	if lm.MaxSessions != 3 {
		t.Errorf("MaxSessions = %d, want 3", lm.MaxSessions)
	}
	if _, ok := lm.Resolver.(*identity.PasswordResolver); !ok {
		t.Errorf("expected password resolver, got %T", lm.Resolver)
	}
}

// TestBuildServer_Trusted verifies that disabling auth selects the
// id-only resolver.
func TestBuildServer_Trusted(t *testing.T) {
	cfg := config.Default()
	cfg.RequireAuth = false

	mode, err := BuildServer(cfg, store.NewCatalog(), nil, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mode.(*ListenMode).Resolver.(*identity.TrustedResolver); !ok {
		t.Errorf("expected trusted resolver, got %T", mode.(*ListenMode).Resolver)
	}
}

// TestBuildServer_NoStore verifies a missing store is rejected.
func TestBuildServer_NoStore(t *testing.T) {
	if _, err := BuildServer(config.Default(), nil, nil, util.NewLogger(0)); err == nil {
		t.Fatal("expected error without a store")
	}
}

// TestBuildClient verifies Build produces a ConnectMode with a
// retrying dialer.
func TestBuildClient(t *testing.T) {
	cfg := config.Default()
	cfg.StudentID = "30012345"
	cfg.Password = "pw"

	mode, err := BuildClient(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	cm, ok := mode.(*ConnectMode)
	if !ok {
		t.Fatalf("expected *ConnectMode, got %T", mode)
	}
	if cm.StudentID != "30012345" || cm.Password != "pw" {
		t.Errorf("login = %q/%q", cm.StudentID, cm.Password)
	}
	if _, ok := cm.Dialer.(*transport.RetryDialer); !ok {
		t.Errorf("expected *RetryDialer, got %T", cm.Dialer)
	}
}

// TestBuildClient_SingleAttempt verifies one dial attempt skips the
// retry wrapper.
func TestBuildClient_SingleAttempt(t *testing.T) {
	cfg := config.Default()
	cfg.StudentID = "1"
	cfg.DialAttempts = 1

	mode, err := BuildClient(cfg, util.NewLogger(0))
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := mode.(*ConnectMode).Dialer.(*transport.TCPDialer); !ok {
		t.Errorf("expected *TCPDialer, got %T", mode.(*ConnectMode).Dialer)
	}
}

// TestBuildClient_NoStudent verifies a missing student id is rejected.
func TestBuildClient_NoStudent(t *testing.T) {
	if _, err := BuildClient(config.Default(), util.NewLogger(0)); err == nil {
		t.Fatal("expected error without a student id")
	}
}
