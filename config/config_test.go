package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Port != DefaultPort {
		t.Errorf("Port = %d, want %d", cfg.Port, DefaultPort)
	}
	if !cfg.RequireAuth {
		t.Error("RequireAuth should default to true")
	}
	if cfg.MaxCoursesPerStudent != 6 {
		t.Errorf("MaxCoursesPerStudent = %d, want 6", cfg.MaxCoursesPerStudent)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Errorf("defaults should be a valid server config: %v", err)
	}
}

func TestAddress(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"127.0.0.1", 8099, "127.0.0.1:8099"},
		{"", 8099, ":8099"},
		{"::1", 80, "[::1]:80"},
	}
	for _, tt := range tests {
		cfg := Config{Host: tt.host, Port: tt.port}
		if got := cfg.Address(); got != tt.want {
			t.Errorf("Address(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

// ── Config.ValidateServer ────────────────────────────────────────────

func TestValidateServer(t *testing.T) {
	valid := func(mut func(*Config)) Config {
		cfg := *Default()
		mut(&cfg)
		return cfg
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"defaults", valid(func(*Config) {}), false},
		{"ephemeral port", valid(func(c *Config) { c.Port = 0 }), false},
		{"bounded sessions", valid(func(c *Config) { c.MaxSessions = 10 }), false},
		{"port too high", valid(func(c *Config) { c.Port = 70000 }), true},
		{"negative port", valid(func(c *Config) { c.Port = -1 }), true},
		{"no db path", valid(func(c *Config) { c.DBPath = "" }), true},
		{"negative max sessions", valid(func(c *Config) { c.MaxSessions = -1 }), true},
		{"zero course limit", valid(func(c *Config) { c.MaxCoursesPerStudent = 0 }), true},
		{"negative grace", valid(func(c *Config) { c.GracePeriod = -time.Second }), true},
		{"no commit attempts", valid(func(c *Config) { c.CommitRetries = 0 }), true},
		{"verbosity out of range", valid(func(c *Config) { c.Verbose = 4 }), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateServer()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateServer() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}

// ── Config.ValidateClient ────────────────────────────────────────────

func TestValidateClient(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Host: "localhost", Port: 8099, StudentID: "30012345", DialAttempts: 1}, false},
		{"no host", Config{Port: 8099, StudentID: "1", DialAttempts: 1}, true},
		{"port zero", Config{Host: "x", StudentID: "1", DialAttempts: 1}, true},
		{"no student", Config{Host: "x", Port: 8099, DialAttempts: 1}, true},
		{"no dial attempts", Config{Host: "x", Port: 8099, StudentID: "1"}, true},
		{"negative timeout", Config{Host: "x", Port: 8099, StudentID: "1", DialAttempts: 1, Timeout: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateClient()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateClient() error = %v, wantErr = %v", err, tt.wantErr)
			}
		})
	}
}
