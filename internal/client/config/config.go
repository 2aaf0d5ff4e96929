package config

import (
	"fmt"
	"time"
)

// Session backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds runtime settings for the escrow-agent CLI.
//
// Units: RequestTimeout and OnlineCheckInterval are time.Duration values.
// An empty SessionDSN with the sqlite backend means the default file under
// the working directory.
type Config struct {
	APIBaseURL          string
	RequestTimeout      time.Duration
	OnlineCheckInterval time.Duration

	SessionBackend string
	SessionDSN     string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	SignupPath string

	LogLevel  string
	LogFormat string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.APIBaseURL = "http://localhost:8080"
	c.RequestTimeout = 30 * time.Second
	c.OnlineCheckInterval = 3 * time.Second
	c.SessionBackend = BackendSQLite
	c.SessionDSN = ""
	c.RedisAddr = "127.0.0.1:6379"
	c.RedisPassword = ""
	c.RedisDB = 0
	c.RedisPrefix = "escrow-agent:"
	c.SignupPath = "/register"
	c.LogLevel = "warn"
	c.LogFormat = "text"
}

// Validate reports settings no component could work with.
func (c *Config) Validate() error {
	switch c.SessionBackend {
	case BackendSQLite, BackendRedis, BackendMemory:
	default:
		return fmt.Errorf("unknown session backend %q (want sqlite, redis or memory)", c.SessionBackend)
	}
	if c.APIBaseURL == "" {
		return fmt.Errorf("api base url is empty")
	}
	if c.OnlineCheckInterval <= 0 {
		return fmt.Errorf("online check interval must be positive")
	}
	if c.RequestTimeout < 0 {
		return fmt.Errorf("request timeout must not be negative")
	}
	return nil
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// the environment, JSON (if present) and command-line flags (if present).
// Later sources take precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
