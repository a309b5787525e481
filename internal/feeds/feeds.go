// Package feeds manages the list of subscribed ICS feed URLs.
//
// The list is ordered newest first and holds no duplicates. Persistence is
// delegated to a Store so the same operations work against the config
// file, redis or memory.
package feeds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	appLog "yearcal/internal/log"
)

var (
	// ErrEmptyURL is returned when an empty or blank URL is added.
	ErrEmptyURL = errors.New("feed url is empty")
	// ErrNotHTTPS is returned for URLs that do not start with https://.
	ErrNotHTTPS = errors.New("please paste an https:// calendar link")
)

// Store persists the subscription list.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, urls []string) error
}

// Add returns urls with raw prepended. raw is trimmed first; a URL already
// in the list leaves it unchanged and added is false.
func Add(urls []string, raw string) (next []string, added bool, err error) {
	u := strings.TrimSpace(raw)
	if u == "" {
		return urls, false, ErrEmptyURL
	}
	if !strings.HasPrefix(u, "https://") {
		return urls, false, ErrNotHTTPS
	}
	for _, existing := range urls {
		if existing == u {
			return urls, false, nil
		}
	}

	next = make([]string, 0, len(urls)+1)
	next = append(next, u)
	next = append(next, urls...)
	return next, true, nil
}

// Remove returns urls without raw. The input slice is not modified.
func Remove(urls []string, raw string) []string {
	u := strings.TrimSpace(raw)
	next := make([]string, 0, len(urls))
	for _, existing := range urls {
		if existing != u {
			next = append(next, existing)
		}
	}
	return next
}

// Subscriptions serializes read-modify-write cycles against a Store.
type Subscriptions struct {
	mu    sync.Mutex
	store Store
}

// NewSubscriptions wraps store.
func NewSubscriptions(store Store) *Subscriptions {
	return &Subscriptions{store: store}
}

// List returns the stored URLs, newest first.
func (s *Subscriptions) List(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// Add validates raw and persists it at the front of the list.
func (s *Subscriptions) Add(ctx context.Context, raw string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	next, added, err := Add(urls, raw)
	if err != nil {
		return nil, err
	}
	if !added {
		return next, nil
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save feeds: %w", err)
	}
	appLog.Info("feed subscribed", "count", len(next))
	return next, nil
}

// Remove deletes raw from the list. Removing an unknown URL is a no-op.
func (s *Subscriptions) Remove(ctx context.Context, raw string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls, err := s.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feeds: %w", err)
	}
	next := Remove(urls, raw)
	if len(next) == len(urls) {
		return next, nil
	}
	if err := s.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("save feeds: %w", err)
	}
	appLog.Info("feed unsubscribed", "count", len(next))
	return next, nil
}

// MemoryStore keeps the list in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	urls []string
}

// NewMemoryStore returns a store seeded with a copy of urls.
func NewMemoryStore(urls ...string) *MemoryStore {
	return &MemoryStore{urls: append([]string(nil), urls...)}
}

func (m *MemoryStore) Load(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string{}, m.urls...), nil
}

func (m *MemoryStore) Save(_ context.Context, urls []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.urls = append([]string(nil), urls...)
	return nil
}
