package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
)

// envOverrides lists the YEARCAL_* variables that take precedence over the
// config file. Zero values mean "not set".
type envOverrides struct {
	Listen       string `env:"YEARCAL_LISTEN"`
	Timezone     string `env:"YEARCAL_TIMEZONE"`
	Environment  string `env:"YEARCAL_ENV"`
	LogLevel     string `env:"YEARCAL_LOG_LEVEL"`
	RefreshCron  string `env:"YEARCAL_REFRESH"`
	MaxFeedBytes int64  `env:"YEARCAL_MAX_FEED_BYTES"`
	CacheDir     string `env:"YEARCAL_CACHE_DIR"`
	StoreKind    string `env:"YEARCAL_STORE"`
	RedisAddr    string `env:"YEARCAL_REDIS_ADDR"`
	AuthUser     string `env:"YEARCAL_BASIC_AUTH_USER"`
	AuthPassword string `env:"YEARCAL_BASIC_AUTH_PASSWORD"`
}

// ApplyEnv loads envFile (".env" when empty; a missing file is fine) into
// the process environment and then overlays YEARCAL_* variables onto cfg.
func ApplyEnv(cfg *Config, envFile string) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse environment: %w", err)
	}

	setString(&cfg.Listen, o.Listen)
	setString(&cfg.Timezone, o.Timezone)
	setString(&cfg.Environment, strings.ToLower(o.Environment))
	setString(&cfg.LogLevel, strings.ToLower(o.LogLevel))
	setString(&cfg.RefreshCron, o.RefreshCron)
	setString(&cfg.CacheDir, o.CacheDir)
	setString(&cfg.Store.Kind, strings.ToLower(o.StoreKind))
	setString(&cfg.Store.RedisAddr, o.RedisAddr)
	if o.MaxFeedBytes > 0 {
		cfg.MaxFeedBytes = o.MaxFeedBytes
	}
	if o.AuthUser != "" || o.AuthPassword != "" {
		cfg.BasicAuth = &BasicAuthConfig{Username: o.AuthUser, Password: o.AuthPassword}
	}

	cfg.Normalize()
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}
