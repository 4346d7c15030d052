package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name in the Config env tags.
const EnvPrefix = "GOPHAUTH_"

// parseEnv overlays cfg with GOPHAUTH_* variables. Unset variables leave the
// field as is. A nil environ reads the process environment.
func parseEnv(cfg *Config, environ map[string]string) error {
	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
