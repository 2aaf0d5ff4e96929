package config

import (
	"os"
	"strconv"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/flagx"
	"github.com/joho/godotenv"
)

// parseEnv overlays Config with environment variables. When -env names a
// dotenv file it is loaded first; variables already set in the process
// environment win over the file. Malformed numbers or durations panic.
//
//	ESCROW_API_BASE_URL (or NEXT_PUBLIC_API_BASE_URL)
//	ESCROW_REQUEST_TIMEOUT, ESCROW_ONLINE_CHECK_INTERVAL  e.g. "5s"
//	ESCROW_SESSION_BACKEND, ESCROW_SESSION_DSN
//	ESCROW_REDIS_ADDR, ESCROW_REDIS_PASSWORD, ESCROW_REDIS_DB, ESCROW_REDIS_PREFIX
//	ESCROW_SIGNUP_PATH, ESCROW_LOG_LEVEL, ESCROW_LOG_FORMAT
func parseEnv(cfg *Config) {
	if envFile := flagx.EnvFileFlags(); envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			panic(err)
		}
	}

	cfg.APIBaseURL = getEnv("ESCROW_API_BASE_URL", getEnv("NEXT_PUBLIC_API_BASE_URL", cfg.APIBaseURL))
	cfg.RequestTimeout = getEnvDuration("ESCROW_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.OnlineCheckInterval = getEnvDuration("ESCROW_ONLINE_CHECK_INTERVAL", cfg.OnlineCheckInterval)
	cfg.SessionBackend = getEnv("ESCROW_SESSION_BACKEND", cfg.SessionBackend)
	cfg.SessionDSN = getEnv("ESCROW_SESSION_DSN", cfg.SessionDSN)
	cfg.RedisAddr = getEnv("ESCROW_REDIS_ADDR", cfg.RedisAddr)
	cfg.RedisPassword = getEnv("ESCROW_REDIS_PASSWORD", cfg.RedisPassword)
	cfg.RedisDB = getEnvInt("ESCROW_REDIS_DB", cfg.RedisDB)
	cfg.RedisPrefix = getEnv("ESCROW_REDIS_PREFIX", cfg.RedisPrefix)
	cfg.SignupPath = getEnv("ESCROW_SIGNUP_PATH", cfg.SignupPath)
	cfg.LogLevel = getEnv("ESCROW_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("ESCROW_LOG_FORMAT", cfg.LogFormat)
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		panic(err)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		panic(err)
	}
	return value
}
