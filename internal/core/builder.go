package core

import (
	"fmt"
	"time"

	"coursereg/config"
	"coursereg/internal/dispatch"
	"coursereg/internal/identity"
	"coursereg/internal/metrics"
	"coursereg/internal/retry"
	"coursereg/internal/store"
	"coursereg/internal/transport"
	"coursereg/util"
)

// Store is what the server needs from the data layer: the gateway
// sessions use and the directory logins are checked against.
type Store interface {
	store.Gateway
	store.Directory
}

// BuildServer constructs the listening Mode from the configuration.
func BuildServer(cfg *config.Config, st Store, m *metrics.Collector, logger *util.Logger) (Mode, error) {
	if st == nil {
		return nil, fmt.Errorf("server requires a store")
	}
	if !cfg.RequireAuth {
		logger.Warn("password checks disabled; any known student id may log in")
	}

	return &ListenMode{
		Address:     cfg.Address(),
		Gateway:     st,
		Resolver:    identity.New(st, cfg.RequireAuth),
		Handler:     dispatch.New(st, m),
		MaxSessions: cfg.MaxSessions,
		GracePeriod: cfg.GracePeriod,
		Logger:      logger,
		Metrics:     m,
	}, nil
}

// BuildClient constructs the interactive client Mode.
func BuildClient(cfg *config.Config, logger *util.Logger) (Mode, error) {
	if cfg.StudentID == "" {
		return nil, fmt.Errorf("client requires a student id")
	}

	return &ConnectMode{
		Dialer:    buildDialer(cfg, logger),
		Address:   cfg.Address(),
		StudentID: cfg.StudentID,
		Password:  cfg.Password,
		Logger:    logger,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// buildDialer returns a TCP dialer that retries refused connections.
func buildDialer(cfg *config.Config, logger *util.Logger) transport.Dialer {
	tcp := &transport.TCPDialer{Timeout: cfg.Timeout}
	if cfg.DialAttempts <= 1 {
		return tcp
	}

	return &transport.RetryDialer{
		Dialer: tcp,
		Backoff: &retry.Backoff{
			InitialDelay: 200 * time.Millisecond,
			MaxDelay:     2 * time.Second,
			Multiplier:   2.0,
			MaxAttempts:  cfg.DialAttempts,
			Jitter:       true,
			OnRetry: func(attempt int, err error, wait time.Duration) {
				logger.Verbose("dial attempt %d failed: %v (retrying in %s)", attempt, err, wait)
			},
		},
	}
}
