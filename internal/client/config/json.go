package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
	"github.com/dmitrijs2005/gophauth/internal/timex"
)

// JsonConfig is the on-disk shape. Intervals accept "3s" or integer
// nanoseconds.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	StorageDriver       string         `json:"storage_driver"`
	DatabasePath        string         `json:"database_path"`
	RedisAddr           string         `json:"redis_addr"`
	RedisPrefix         string         `json:"redis_prefix"`
	ProfileEndpoint     string         `json:"profile_endpoint"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	LogLevel            string         `json:"log_level"`
}

// parseJSON overlays cfg with the file named by -c/-config in args. Keys
// missing from the file keep their current values.
func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	setString(&cfg.ProfileEndpoint, jc.ProfileEndpoint)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
