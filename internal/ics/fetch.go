package ics

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "yearcal/internal/log"
)

const (
	// DefaultMaxBytes is the hard cap on a single ICS payload.
	DefaultMaxBytes    = 2_000_000
	defaultTimeout     = 15 * time.Second
	defaultConcurrency = 4
	userAgent          = "yearcal/1.0 (+ics fetcher)"
)

// Source represents a single ICS subscription source.
type Source struct {
	// ID is an internal identifier (e.g., config feed ID).
	ID string
	// URL is the ICS endpoint.
	URL string
}

// FetchResult contains the outcome of fetching a single ICS source.
type FetchResult struct {
	Source    Source
	Body      []byte // ICS payload (either freshly fetched or from cache)
	FromCache bool   // true if we reused the cached body
}

// cacheEntry holds HTTP cache metadata for a single ICS URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves ICS feeds over https with a size cap, conditional
// requests (ETag / Last-Modified) and an optional disk-backed cache.
type Fetcher struct {
	client        *http.Client
	cacheDir      string
	maxBytes      int64
	concurrency   int
	allowInsecure bool
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient replaces the default client. The redirect policy is still
// enforced on a copy of it.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			cp := *c
			f.client = &cp
		}
	}
}

// WithMaxBytes sets the payload cap; values <= 0 keep the default.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithConcurrency bounds how many feeds FetchAll requests at once.
func WithConcurrency(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.concurrency = n
		}
	}
}

// WithAllowInsecure permits plain http URLs. Only meant for tests against
// local servers.
func WithAllowInsecure() Option {
	return func(f *Fetcher) { f.allowInsecure = true }
}

// NewFetcher creates a new ICS Fetcher.
//
// cacheDir is the base directory where per-URL cache subdirectories and
// metadata are stored. An empty cacheDir disables the disk cache.
func NewFetcher(cacheDir string, opts ...Option) *Fetcher {
	f := &Fetcher{
		client:      &http.Client{Timeout: defaultTimeout},
		cacheDir:    cacheDir,
		maxBytes:    DefaultMaxBytes,
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(f)
	}
	f.client.CheckRedirect = f.checkRedirect
	return f
}

// MaxBytes reports the payload cap in effect.
func (f *Fetcher) MaxBytes() int64 {
	return f.maxBytes
}

// FetchAll fetches all given sources concurrently and returns the results
// that produced a body, in source order. Errors for individual sources are
// logged and returned in the error slice.
func (f *Fetcher) FetchAll(ctx context.Context, sources []Source) ([]FetchResult, []error) {
	results := make([]FetchResult, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			res, err := f.FetchOne(gctx, src)
			if err != nil {
				appLog.Error("ics fetch failed", err, "id", src.ID, "url", redactURL(src.URL))
				errs[i] = fmt.Errorf("%s: %w", redactURL(src.URL), err)
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	okResults := make([]FetchResult, 0, len(sources))
	failed := make([]error, 0)
	for i := range sources {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		okResults = append(okResults, results[i])
	}
	return okResults, failed
}

// FetchOne fetches a single ICS source. Failures are *FetchError values of
// kind ErrInvalidURL, ErrUpstream or ErrTooLarge. When the network or the
// upstream fails and a cached body exists, the cached body is returned.
func (f *Fetcher) FetchOne(ctx context.Context, src Source) (FetchResult, error) {
	if err := f.checkURL(src.URL); err != nil {
		return FetchResult{}, invalidURL(err)
	}

	var (
		cachePath  string
		meta       cacheEntry
		cachedBody []byte
	)
	if f.cacheDir != "" {
		cachePath = f.cachePathForURL(src.URL)
		if err := os.MkdirAll(cachePath, 0o700); err != nil {
			appLog.Error("ics cache dir unavailable", err, "id", src.ID)
			cachePath = ""
		} else {
			meta, _ = f.loadCacheMeta(cachePath)
			cachedBody, _ = f.loadCacheBody(cachePath)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return FetchResult{}, invalidURL(err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Cache-Control", "no-cache")

	// Conditional headers from cache metadata.
	if len(cachedBody) > 0 {
		if meta.ETag != "" {
			req.Header.Set("If-None-Match", meta.ETag)
		}
		if meta.LastModified != "" {
			req.Header.Set("If-Modified-Since", meta.LastModified)
		}
	}

	appLog.Debug("ics fetch start", "id", src.ID, "url", redactURL(src.URL))

	resp, err := f.client.Do(req)
	if err != nil {
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch network error, using cached body", err, "id", src.ID, "url", redactURL(src.URL))
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, upstream(err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := f.readCapped(resp)
		if err != nil {
			return FetchResult{}, err
		}

		if cachePath != "" {
			newMeta := cacheEntry{
				URL:          src.URL,
				ETag:         resp.Header.Get("ETag"),
				LastModified: resp.Header.Get("Last-Modified"),
			}
			if err := f.saveCache(cachePath, newMeta, body); err != nil {
				// Log but still return the freshly fetched body.
				appLog.Error("ics cache save failed", err, "id", src.ID, "url", redactURL(src.URL))
			}
		}

		appLog.Info("ics fetch success", "id", src.ID, "url", redactURL(src.URL), "bytes", len(body), "from_cache", false)
		return FetchResult{Source: src, Body: body}, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return FetchResult{}, upstream(errors.New("received 304 Not Modified but no cached body available"))
		}
		appLog.Info("ics fetch not modified; using cache", "id", src.ID, "url", redactURL(src.URL))
		return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("ics fetch non-OK, using cached body", errors.New(resp.Status), "id", src.ID, "url", redactURL(src.URL), "status", resp.StatusCode)
			return FetchResult{Source: src, Body: cachedBody, FromCache: true}, nil
		}
		return FetchResult{}, upstream(errors.New(resp.Status))
	}
}

// readCapped reads at most maxBytes+1 so an oversized body is detected
// without buffering it whole.
func (f *Fetcher) readCapped(resp *http.Response) ([]byte, error) {
	if resp.ContentLength > f.maxBytes {
		return nil, tooLarge(fmt.Errorf("content length %d exceeds %d bytes", resp.ContentLength, f.maxBytes))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, upstream(err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, tooLarge(fmt.Errorf("body exceeds %d bytes", f.maxBytes))
	}
	return body, nil
}

func (f *Fetcher) checkURL(raw string) error {
	if strings.TrimSpace(raw) == "" {
		return errors.New("source URL is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Host == "" {
		return fmt.Errorf("url %q has no host", redactURL(raw))
	}
	switch u.Scheme {
	case "https":
		return nil
	case "http":
		if f.allowInsecure {
			return nil
		}
	}
	return fmt.Errorf("scheme %q is not allowed", u.Scheme)
}

func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= 10 {
		return errors.New("stopped after 10 redirects")
	}
	return f.checkURL(req.URL.String())
}

func (f *Fetcher) cachePathForURL(u string) string {
	sum := sha256.Sum256([]byte(u))
	// Use first 16 hex chars as directory name.
	return filepath.Join(f.cacheDir, hex.EncodeToString(sum[:8]))
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "body.ics"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	// Write body first so meta never points at missing body.
	if err := os.WriteFile(filepath.Join(cachePath, "body.ics"), body, 0o600); err != nil {
		return err
	}

	meta.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(&meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "meta.json"), data, 0o600)
}

// redactURL hides path and query of an ICS URL for logging; private feed
// URLs usually embed a secret token there.
//
//	https://example.com/private/abcd.ics?token=x -> https://example.com/...(redacted)
func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "ics://...(redacted)"
	}
	return u.Scheme + "://" + u.Host + "/...(redacted)"
}
