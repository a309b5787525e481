package feeds

import (
	"context"
	"sync"

	"yearcal/internal/config"
)

// ConfigStore keeps the list in the feeds section of the config file. The
// file is re-read on every Load so edits made by hand are picked up.
type ConfigStore struct {
	mu   sync.Mutex
	path string
}

// NewConfigStore returns a store backed by the config file at path.
func NewConfigStore(path string) *ConfigStore {
	return &ConfigStore{path: path}
}

func (c *ConfigStore) Load(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := config.Load(c.path)
	if err != nil {
		return nil, err
	}
	return cfg.FeedURLs(), nil
}

// Save rewrites the feeds section, keeping id and name of entries whose URL
// is still present. Other settings in the file are preserved.
func (c *ConfigStore) Save(_ context.Context, urls []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cfg, err := config.Load(c.path)
	if err != nil {
		return err
	}

	known := make(map[string]config.FeedConfig, len(cfg.Feeds))
	for _, f := range cfg.Feeds {
		known[f.URL] = f
	}

	next := make([]config.FeedConfig, 0, len(urls))
	for _, u := range urls {
		if f, ok := known[u]; ok {
			next = append(next, f)
			continue
		}
		next = append(next, config.FeedConfig{URL: u})
	}
	cfg.Feeds = next

	return config.Save(c.path, cfg)
}
