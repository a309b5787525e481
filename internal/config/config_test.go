package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadCreatesDefaultConfigOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != DefaultListen || cfg.MaxFeedBytes != DefaultMaxFeedBytes {
		t.Fatalf("expected defaults, got %#v", cfg)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("expected config file to be written: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("expected 0600 permissions, got %o", perm)
	}
}

func TestLoadNormalizesPartialYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "listen: \":9090\"\nfeeds:\n  - url: https://example.com/a.ics\n    name: A\nstore:\n  kind: redis\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Listen != ":9090" {
		t.Fatalf("expected listen %q, got %q", ":9090", cfg.Listen)
	}
	if cfg.Timezone != DefaultTimezone || cfg.RefreshCron != DefaultRefreshCron {
		t.Fatalf("expected defaults to be filled, got %#v", cfg)
	}
	if cfg.Store.Kind != StoreRedis || cfg.Store.RedisKey != DefaultRedisKey {
		t.Fatalf("unexpected store config: %#v", cfg.Store)
	}
	if urls := cfg.FeedURLs(); len(urls) != 1 || urls[0] != "https://example.com/a.ics" {
		t.Fatalf("unexpected feeds: %v", urls)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("listen: [unterminated"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestSaveAndLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Timezone = "Europe/Berlin"
	cfg.Feeds = []FeedConfig{{URL: "https://example.com/b.ics", ID: "b"}}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Timezone != "Europe/Berlin" {
		t.Fatalf("expected timezone to survive, got %q", loaded.Timezone)
	}
	if len(loaded.Feeds) != 1 || loaded.Feeds[0].ID != "b" {
		t.Fatalf("unexpected feeds: %#v", loaded.Feeds)
	}
	if loaded.BasicAuth != nil {
		t.Fatalf("expected no basic auth, got %#v", loaded.BasicAuth)
	}
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if err := Save("", DefaultConfig()); err == nil {
		t.Fatalf("expected error, got nil")
	}
}

func TestNormalizeReplacesUnknownValues(t *testing.T) {
	cfg := &Config{Environment: "staging", Store: StoreConfig{Kind: "s3"}, MaxFeedBytes: -1}
	cfg.Normalize()

	if cfg.Environment != DefaultEnvironment {
		t.Fatalf("expected environment %q, got %q", DefaultEnvironment, cfg.Environment)
	}
	if cfg.Store.Kind != StoreFile {
		t.Fatalf("expected store %q, got %q", StoreFile, cfg.Store.Kind)
	}
	if cfg.MaxFeedBytes != DefaultMaxFeedBytes {
		t.Fatalf("expected max feed bytes %d, got %d", DefaultMaxFeedBytes, cfg.MaxFeedBytes)
	}
}

func TestApplyEnvOverridesFileValues(t *testing.T) {
	t.Setenv("YEARCAL_LISTEN", ":7070")
	t.Setenv("YEARCAL_MAX_FEED_BYTES", "1024")
	t.Setenv("YEARCAL_STORE", "REDIS")
	t.Setenv("YEARCAL_BASIC_AUTH_USER", "admin")
	t.Setenv("YEARCAL_BASIC_AUTH_PASSWORD", "secret")

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("apply env: %v", err)
	}

	if cfg.Listen != ":7070" || cfg.MaxFeedBytes != 1024 {
		t.Fatalf("expected overrides, got listen=%q max=%d", cfg.Listen, cfg.MaxFeedBytes)
	}
	if cfg.Store.Kind != StoreRedis || cfg.Store.RedisKey != DefaultRedisKey {
		t.Fatalf("unexpected store: %#v", cfg.Store)
	}
	if cfg.BasicAuth == nil || cfg.BasicAuth.Username != "admin" || cfg.BasicAuth.Password != "secret" {
		t.Fatalf("unexpected basic auth: %#v", cfg.BasicAuth)
	}
}

func TestApplyEnvReadsDotEnvFile(t *testing.T) {
	t.Cleanup(func() { os.Unsetenv("YEARCAL_TIMEZONE") })
	os.Unsetenv("YEARCAL_TIMEZONE")

	envFile := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(envFile, []byte("YEARCAL_TIMEZONE=Asia/Seoul\n"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := DefaultConfig()
	if err := ApplyEnv(cfg, envFile); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Timezone != "Asia/Seoul" {
		t.Fatalf("expected timezone from .env, got %q", cfg.Timezone)
	}
}
