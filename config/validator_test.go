package config

import (
	"strings"
	"testing"

	"coursereg/internal/errors"
)

// TestValidate_ErrorMessages verifies that validation returns
// actionable error messages with hints.
func TestValidate_ErrorMessages(t *testing.T) {
	tests := []struct {
		name     string
		validate func(*Config) error
		cfg      Config
		wantSub  string // substring expected in error
	}{
		{
			name:     "missing db path has hint",
			validate: (*Config).ValidateServer,
			cfg:      Config{Port: 8099, MaxCoursesPerStudent: 6, CommitRetries: 1},
			wantSub:  "hint: set --db",
		},
		{
			name:     "bad port names the flag",
			validate: (*Config).ValidateServer,
			cfg:      Config{Port: 99999},
			wantSub:  "--port=99999",
		},
		{
			name:     "missing student has hint",
			validate: (*Config).ValidateClient,
			cfg:      Config{Host: "x", Port: 8099, DialAttempts: 1},
			wantSub:  "COURSEREG_STUDENT_ID",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.validate(&tt.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantSub) {
				t.Errorf("error %q should contain %q", err.Error(), tt.wantSub)
			}
		})
	}
}

func TestValidate_ConfigErrorType(t *testing.T) {
	cfg := Default()
	cfg.MaxCoursesPerStudent = 0

	err := cfg.ValidateServer()
	var ce *errors.ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %T", err)
	}
	if ce.Field != "max-courses" {
		t.Errorf("Field = %q, want %q", ce.Field, "max-courses")
	}
}
