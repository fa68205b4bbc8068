package config

// loader.go - configuration loading from .env files and the environment.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. .env file entries  (this file; never override the environment)
//   4. Defaults   (defaults.go)

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=value pairs from the given files into the
// process environment.  Variables that are already set win.  With no
// paths it reads ./.env; a missing default file is not an error, a
// missing explicit one is.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		paths = []string{".env"}
	}
	if err := godotenv.Load(paths...); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// LoadFromEnv overlays COURSEREG_* environment variables onto cfg.
// Unset variables leave the existing value alone; a malformed value is
// an error.
func LoadFromEnv(cfg *Config) error {
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return nil
}
