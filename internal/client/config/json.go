package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/escrowagent/internal/flagx"
	"github.com/dmitrijs2005/escrowagent/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
// It relies on timex.Duration so JSON can specify intervals either as
// strings like "3s" or as integer nanoseconds. After parsing, values
// are copied into the runtime Config (which uses time.Duration).
type JsonConfig struct {
	APIBaseURL          string         `json:"api_base_url"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SessionBackend      string         `json:"session_backend"`
	SessionDSN          string         `json:"session_dsn"`
	RedisAddr           string         `json:"redis_addr"`
	RedisPassword       string         `json:"redis_password"`
	RedisDB             *int           `json:"redis_db"`
	RedisPrefix         string         `json:"redis_prefix"`
	SignupPath          string         `json:"signup_path"`
	LogLevel            string         `json:"log_level"`
	LogFormat           string         `json:"log_format"`
}

// parseJson overlays Config with values loaded from a JSON file.
//
// The file path comes from the -c or -config flag (flagx.JsonConfigFlags).
// Without one nothing is loaded. Only keys present in the file replace
// earlier values. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setDuration(&cfg.RequestTimeout, jc.RequestTimeout)
	setDuration(&cfg.OnlineCheckInterval, jc.OnlineCheckInterval)
	setString(&cfg.SessionBackend, jc.SessionBackend)
	setString(&cfg.SessionDSN, jc.SessionDSN)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.RedisPassword, jc.RedisPassword)
	if jc.RedisDB != nil {
		cfg.RedisDB = *jc.RedisDB
	}
	setString(&cfg.RedisPrefix, jc.RedisPrefix)
	setString(&cfg.SignupPath, jc.SignupPath)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
