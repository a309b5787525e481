package config

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Defaults applied by DefaultConfig and Normalize.
const (
	DefaultListen           = "127.0.0.1:8080"
	DefaultTimezone         = "UTC"
	DefaultEnvironment      = "production"
	DefaultLogLevel         = "info"
	DefaultRefreshCron      = "*/15 * * * *"
	DefaultMaxFeedBytes     = 2_000_000
	DefaultFetchTimeoutSecs = 15
	DefaultFetchConcurrency = 4
	DefaultCacheDir         = "./var/ics-cache"
	DefaultRedisKey         = "yearcal:feeds"

	StoreFile  = "file"
	StoreRedis = "redis"
)

// FeedConfig describes a single ICS subscription source.
type FeedConfig struct {
	// URL is the ICS subscription endpoint. Must be https.
	URL string `yaml:"url" toml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id,omitempty" toml:"id,omitempty" json:"id,omitempty"`
	// Name is a human-friendly label.
	Name string `yaml:"name,omitempty" toml:"name,omitempty" json:"name,omitempty"`
}

// StoreConfig selects where the subscription list is persisted.
type StoreConfig struct {
	// Kind is "file" (the feeds list of this config file) or "redis".
	Kind      string `yaml:"kind" toml:"kind" json:"kind"`
	RedisAddr string `yaml:"redis_addr,omitempty" toml:"redis_addr,omitempty" json:"redis_addr,omitempty"`
	RedisKey  string `yaml:"redis_key,omitempty" toml:"redis_key,omitempty" json:"redis_key,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" toml:"username" json:"username"`
	Password string `yaml:"password" toml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" toml:"listen" json:"listen"`

	// Timezone is the IANA zone events are converted into before they are
	// laid out on the grid (e.g. "Europe/Berlin").
	Timezone string `yaml:"timezone" toml:"timezone" json:"timezone"`

	// Environment selects the log encoder: "production" or "development".
	Environment string `yaml:"environment" toml:"environment" json:"environment"`
	LogLevel    string `yaml:"log_level" toml:"log_level" json:"log_level"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// for background feed refresh in serve mode.
	RefreshCron string `yaml:"refresh" toml:"refresh" json:"refresh"`

	// MaxFeedBytes caps the size of a single ICS payload.
	MaxFeedBytes int64 `yaml:"max_feed_bytes" toml:"max_feed_bytes" json:"max_feed_bytes"`

	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds" toml:"fetch_timeout_seconds" json:"fetch_timeout_seconds"`
	FetchConcurrency    int `yaml:"fetch_concurrency" toml:"fetch_concurrency" json:"fetch_concurrency"`

	// CacheDir holds per-URL ETag/Last-Modified metadata and bodies.
	CacheDir string `yaml:"cache_dir" toml:"cache_dir" json:"cache_dir"`

	Store StoreConfig `yaml:"store" toml:"store" json:"store"`

	// Feeds is the list of subscribed ICS sources when Store.Kind is "file".
	Feeds []FeedConfig `yaml:"feeds" toml:"feeds" json:"feeds"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" toml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:              DefaultListen,
		Timezone:            DefaultTimezone,
		Environment:         DefaultEnvironment,
		LogLevel:            DefaultLogLevel,
		RefreshCron:         DefaultRefreshCron,
		MaxFeedBytes:        DefaultMaxFeedBytes,
		FetchTimeoutSeconds: DefaultFetchTimeoutSecs,
		FetchConcurrency:    DefaultFetchConcurrency,
		CacheDir:            DefaultCacheDir,
		Store:               StoreConfig{Kind: StoreFile},
		Feeds:               []FeedConfig{},
		BasicAuth:           nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.Timezone == "" {
		c.Timezone = DefaultTimezone
	}
	switch c.Environment {
	case "production", "development", "test":
	default:
		c.Environment = DefaultEnvironment
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.RefreshCron == "" {
		c.RefreshCron = DefaultRefreshCron
	}
	if c.MaxFeedBytes <= 0 {
		c.MaxFeedBytes = DefaultMaxFeedBytes
	}
	if c.FetchTimeoutSeconds <= 0 {
		c.FetchTimeoutSeconds = DefaultFetchTimeoutSecs
	}
	if c.FetchConcurrency <= 0 {
		c.FetchConcurrency = DefaultFetchConcurrency
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir
	}
	switch c.Store.Kind {
	case StoreFile, StoreRedis:
	default:
		c.Store.Kind = StoreFile
	}
	if c.Store.Kind == StoreRedis && c.Store.RedisKey == "" {
		c.Store.RedisKey = DefaultRedisKey
	}
	if c.Feeds == nil {
		c.Feeds = []FeedConfig{}
	}
}

// FeedURLs returns the configured feed URLs in file order.
func (c *Config) FeedURLs() []string {
	urls := make([]string, 0, len(c.Feeds))
	for _, f := range c.Feeds {
		if f.URL != "" {
			urls = append(urls, f.URL)
		}
	}
	return urls
}

// Load loads configuration from the given path. Files ending in ".toml" are
// decoded as TOML, everything else as YAML.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     perms and returned.
//   - Otherwise the file is decoded and normalized.
//
// Environment overrides are not applied here; see ApplyEnv.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if isTOML(path) {
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, err
		}
	} else if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Encodes cfg as YAML or TOML depending on the file extension.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := encode(path, cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".yearcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func encode(path string, cfg *Config) ([]byte, error) {
	if !isTOML(path) {
		return yaml.Marshal(cfg)
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
