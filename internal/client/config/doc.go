// Package config loads runtime configuration for the escrow-agent CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment variables (see parseEnv), optionally seeded from a dotenv
//     file selected with -env.
//  3. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  4. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   base URL of the escrow API
//	-i int      online status check interval (seconds)
//	-t int      request timeout (seconds)
//	-s string   session backend: sqlite, redis or memory
//	-d string   session DSN
//	-l string   log level
//
// # JSON schema
//
// The JSON loader uses timex.Duration for intervals, so values can be either
// strings like "3s" or integer nanoseconds:
//
//	{
//	  "api_base_url": "http://localhost:8080",
//	  "request_timeout": "30s",
//	  "online_check_interval": "3s",
//	  "session_backend": "redis",
//	  "redis_addr": "127.0.0.1:6379",
//	  "redis_db": 0,
//	  "redis_prefix": "escrow-agent:",
//	  "signup_path": "/register",
//	  "log_level": "info",
//	  "log_format": "json"
//	}
//
// Primary API
//
//   - type Config                   : holds every runtime setting
//   - func LoadConfig() *Config     : builds Config by applying defaults, env, JSON, then flags
//   - func (*Config) LoadDefaults() : sets sensible defaults
//   - func (*Config) Validate() error: rejects unusable combinations
package config
