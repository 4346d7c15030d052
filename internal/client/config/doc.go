// Package config loads runtime configuration for the gophauth CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. GOPHAUTH_* environment variables (GOPHAUTH_SERVER_ENDPOINT_ADDR, ...).
//  4. Command-line flags -a, -i and -d.
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "storage_driver": "sqlite",
//	  "database_path": "gophauth.db",
//	  "redis_addr": "127.0.0.1:6379",
//	  "redis_prefix": "gophauth",
//	  "profile_endpoint": "https://www.googleapis.com/oauth2/v2/userinfo",
//	  "request_timeout": "10s",
//	  "log_level": "info"
//	}
package config
