package feeds

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"yearcal/internal/config"
)

func TestAdd(t *testing.T) {
	t.Parallel()

	base := []string{"https://b.example/cal.ics"}

	cases := []struct {
		name    string
		raw     string
		want    []string
		added   bool
		wantErr error
	}{
		{"prepends new url", "https://a.example/cal.ics", []string{"https://a.example/cal.ics", "https://b.example/cal.ics"}, true, nil},
		{"trims whitespace", "  https://a.example/cal.ics \n", []string{"https://a.example/cal.ics", "https://b.example/cal.ics"}, true, nil},
		{"ignores duplicate", "https://b.example/cal.ics", base, false, nil},
		{"rejects empty", "   ", base, false, ErrEmptyURL},
		{"rejects http", "http://a.example/cal.ics", base, false, ErrNotHTTPS},
		{"rejects webcal", "webcal://a.example/cal.ics", base, false, ErrNotHTTPS},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, added, err := Add(base, tc.raw)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected error %v, got %v", tc.wantErr, err)
			}
			if added != tc.added {
				t.Fatalf("expected added=%v, got %v", tc.added, added)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}

	if len(base) != 1 {
		t.Fatalf("input slice was modified: %v", base)
	}
}

func TestRemove(t *testing.T) {
	t.Parallel()

	urls := []string{"https://a.example/1.ics", "https://b.example/2.ics", "https://c.example/3.ics"}

	got := Remove(urls, "https://b.example/2.ics")
	want := []string{"https://a.example/1.ics", "https://c.example/3.ics"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if len(urls) != 3 || urls[1] != "https://b.example/2.ics" {
		t.Fatalf("input slice was modified: %v", urls)
	}

	if got := Remove(urls, "https://missing.example/x.ics"); !reflect.DeepEqual(got, urls) {
		t.Fatalf("expected unchanged list, got %v", got)
	}
}

func TestSubscriptionsWithMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	subs := NewSubscriptions(store)

	list, err := subs.List(ctx)
	if err != nil || len(list) != 0 || list == nil {
		t.Fatalf("expected empty non-nil list, got %v (%v)", list, err)
	}

	if _, err := subs.Add(ctx, "https://a.example/a.ics"); err != nil {
		t.Fatalf("add a: %v", err)
	}
	if _, err := subs.Add(ctx, "https://b.example/b.ics"); err != nil {
		t.Fatalf("add b: %v", err)
	}
	if _, err := subs.Add(ctx, "http://c.example/c.ics"); !errors.Is(err, ErrNotHTTPS) {
		t.Fatalf("expected ErrNotHTTPS, got %v", err)
	}

	list, _ = store.Load(ctx)
	want := []string{"https://b.example/b.ics", "https://a.example/a.ics"}
	if !reflect.DeepEqual(list, want) {
		t.Fatalf("expected %v, got %v", want, list)
	}

	list, err = subs.Remove(ctx, "https://b.example/b.ics")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !reflect.DeepEqual(list, []string{"https://a.example/a.ics"}) {
		t.Fatalf("unexpected list after remove: %v", list)
	}
}

func TestConfigStoreRoundTripKeepsFeedMetadata(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := config.DefaultConfig()
	cfg.Listen = "0.0.0.0:9999"
	cfg.Feeds = []config.FeedConfig{{URL: "https://a.example/a.ics", ID: "work", Name: "Work"}}
	if err := config.Save(path, cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}

	store := NewConfigStore(path)
	urls, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(urls, []string{"https://a.example/a.ics"}) {
		t.Fatalf("unexpected urls: %v", urls)
	}

	next, _, err := Add(urls, "https://b.example/b.ics")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := store.Save(ctx, next); err != nil {
		t.Fatalf("save: %v", err)
	}

	reloaded, err := config.Load(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.Listen != "0.0.0.0:9999" {
		t.Fatalf("expected other settings kept, got listen %q", reloaded.Listen)
	}
	if len(reloaded.Feeds) != 2 {
		t.Fatalf("expected 2 feeds, got %#v", reloaded.Feeds)
	}
	if reloaded.Feeds[0].URL != "https://b.example/b.ics" {
		t.Fatalf("expected new feed first, got %#v", reloaded.Feeds[0])
	}
	if reloaded.Feeds[1].ID != "work" || reloaded.Feeds[1].Name != "Work" {
		t.Fatalf("expected metadata kept, got %#v", reloaded.Feeds[1])
	}
}

func TestOpenDefaultsToConfigStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()

	store, closeFn, err := Open(context.Background(), cfg, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer closeFn()

	if _, ok := store.(*ConfigStore); !ok {
		t.Fatalf("expected *ConfigStore, got %T", store)
	}
}

// TestRedisStore runs against a live server when YEARCAL_TEST_REDIS_ADDR
// is set.
func TestRedisStore(t *testing.T) {
	addr := strings.TrimSpace(os.Getenv("YEARCAL_TEST_REDIS_ADDR"))
	if addr == "" {
		t.Skip("YEARCAL_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	key := "yearcal:test:" + t.Name()
	store, client, err := OpenRedis(ctx, addr, key)
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	defer client.Close()
	defer client.Del(ctx, key)

	want := []string{"https://a.example/a.ics", "https://b.example/b.ics"}
	if err := store.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if err := store.Save(ctx, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	got, _ = store.Load(ctx)
	if len(got) != 0 {
		t.Fatalf("expected empty list, got %v", got)
	}
}
