package config

import (
	"fmt"
	"time"
)

// Storage drivers accepted in Config.StorageDriver.
const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
)

// Config holds runtime settings for the gophauth CLI. Durations are
// time.Duration; env values use Go duration syntax ("3s").
type Config struct {
	ServerEndpointAddr  string        `env:"SERVER_ENDPOINT_ADDR"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`

	StorageDriver string `env:"STORAGE_DRIVER"`
	DatabasePath  string `env:"DATABASE_PATH"`
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPrefix   string `env:"REDIS_PREFIX"`

	// ProfileEndpoint is the userinfo URL queried during Google sign-in.
	ProfileEndpoint string        `env:"PROFILE_ENDPOINT"`
	RequestTimeout  time.Duration `env:"REQUEST_TIMEOUT"`
	LogLevel        string        `env:"LOG_LEVEL"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.StorageDriver = DriverSQLite
	c.DatabasePath = "gophauth.db"
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPrefix = "gophauth"
	c.ProfileEndpoint = "https://www.googleapis.com/oauth2/v2/userinfo"
	c.RequestTimeout = 10 * time.Second
	c.LogLevel = "info"
}

// Validate rejects settings the client cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return fmt.Errorf("database path is required for the %s driver", DriverSQLite)
		}
	case DriverRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis address is required for the %s driver", DriverRedis)
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
	if c.ServerEndpointAddr == "" {
		return fmt.Errorf("server endpoint address is required")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive, got %s", c.OnlineCheckInterval)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then the JSON file named by
// -c/-config, then GOPHAUTH_* environment variables, then flags. Later
// sources win.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg, nil); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
