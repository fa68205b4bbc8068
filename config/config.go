// Package config defines the runtime configuration for coursereg: the
// server's listener and store settings and the client's login and
// dial settings.
package config

import (
	"time"

	"coursereg/internal/errors"
	"coursereg/util"
)

// Config holds every tuneable for the coursereg server and client.
// Fields carry env tags read by LoadFromEnv under the COURSEREG_
// prefix.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host    string        `env:"HOST"`
	Port    int           `env:"PORT"`
	Timeout time.Duration `env:"TIMEOUT"` // client dial timeout

	// ── Server ───────────────────────────────────────────────────────
	DBPath               string        `env:"DB_PATH"`
	MaxSessions          int           `env:"MAX_SESSIONS"` // 0 = unbounded
	MaxCoursesPerStudent int           `env:"MAX_COURSES"`
	RequireAuth          bool          `env:"REQUIRE_AUTH"`
	GracePeriod          time.Duration `env:"GRACE_PERIOD"`
	CommitRetries        int           `env:"COMMIT_RETRIES"`

	// ── Client ───────────────────────────────────────────────────────
	StudentID    string `env:"STUDENT_ID"`
	Password     string `env:"PASSWORD"`
	DialAttempts int    `env:"DIAL_ATTEMPTS"`

	// ── Output ───────────────────────────────────────────────────────
	Verbose int `env:"VERBOSE"`
}

// Default returns a Config populated from defaults.go.
func Default() *Config {
	return &Config{
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		Timeout:              DefaultConnTimeout,
		DBPath:               DefaultDBPath,
		MaxCoursesPerStudent: DefaultMaxCoursesPerStudent,
		RequireAuth:          true,
		GracePeriod:          DefaultGracePeriod,
		CommitRetries:        DefaultCommitRetries,
		DialAttempts:         DefaultDialAttempts,
		Verbose:              1,
	}
}

// Address joins Host and Port.
func (c *Config) Address() string {
	return util.FormatAddr(c.Host, c.Port)
}

// ── Validation ───────────────────────────────────────────────────────

// ValidateServer checks the settings used by the serve command.
func (c *Config) ValidateServer() error {
	if c.Port < 0 || c.Port > 65535 {
		return &errors.ConfigError{
			Field:   "port",
			Value:   c.Port,
			Message: "must be between 0 and 65535",
			Hint:    "0 picks a free port",
		}
	}
	if c.DBPath == "" {
		return &errors.ConfigError{
			Field:   "db",
			Message: "database path is required",
			Hint:    "set --db or COURSEREG_DB_PATH",
		}
	}
	if err := c.validateCommon(); err != nil {
		return err
	}
	if c.MaxSessions < 0 {
		return &errors.ConfigError{Field: "max-sessions", Value: c.MaxSessions, Message: "must not be negative", Hint: "0 means unbounded"}
	}
	if c.MaxCoursesPerStudent < 1 {
		return &errors.ConfigError{Field: "max-courses", Value: c.MaxCoursesPerStudent, Message: "must be at least 1"}
	}
	if c.GracePeriod < 0 {
		return &errors.ConfigError{Field: "grace-period", Value: c.GracePeriod, Message: "must not be negative"}
	}
	if c.CommitRetries < 1 {
		return &errors.ConfigError{Field: "commit-retries", Value: c.CommitRetries, Message: "must be at least 1"}
	}
	return nil
}

// ValidateClient checks the settings used by the connect command.
func (c *Config) ValidateClient() error {
	if c.Host == "" {
		return &errors.ConfigError{Field: "host", Message: "server host is required"}
	}
	if c.Port < 1 || c.Port > 65535 {
		return &errors.ConfigError{Field: "port", Value: c.Port, Message: "must be between 1 and 65535"}
	}
	if c.StudentID == "" {
		return &errors.ConfigError{
			Field:   "student",
			Message: "student id is required",
			Hint:    "pass --student or set COURSEREG_STUDENT_ID",
		}
	}
	if c.DialAttempts < 1 {
		return &errors.ConfigError{Field: "dial-attempts", Value: c.DialAttempts, Message: "must be at least 1"}
	}
	if c.Timeout < 0 {
		return &errors.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	return c.validateCommon()
}

func (c *Config) validateCommon() error {
	if c.Verbose < 0 || c.Verbose > 3 {
		return &errors.ConfigError{Field: "verbose", Value: c.Verbose, Message: "must be between 0 and 3"}
	}
	return nil
}
