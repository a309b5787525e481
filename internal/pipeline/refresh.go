package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

const defaultRefreshTimeout = 2 * time.Minute

// EventSource produces a complete event list.
type EventSource interface {
	Collect(ctx context.Context) ([]model.Event, error)
}

// Refresher keeps the last complete event list and renews it on a cron
// schedule. A failed refresh keeps the previous snapshot.
type Refresher struct {
	source  EventSource
	timeout time.Duration

	mu        sync.RWMutex
	events    []model.Event
	updatedAt time.Time
	loaded    bool

	// refreshMu serializes Collect calls.
	refreshMu sync.Mutex

	cron *cron.Cron
}

// NewRefresher returns a Refresher over source with no snapshot yet.
func NewRefresher(source EventSource) *Refresher {
	return &Refresher{source: source, timeout: defaultRefreshTimeout}
}

// Refresh collects synchronously and replaces the snapshot on success.
func (r *Refresher) Refresh(ctx context.Context) error {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	events, err := r.source.Collect(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.events = events
	r.updatedAt = time.Now()
	r.loaded = true
	r.mu.Unlock()
	return nil
}

// Events returns the current snapshot, collecting first when there is none.
func (r *Refresher) Events(ctx context.Context) ([]model.Event, error) {
	if events, ok := r.snapshot(); ok {
		return events, nil
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	events, _ := r.snapshot()
	return events, nil
}

// Collect makes a Refresher usable wherever an EventSource is expected.
func (r *Refresher) Collect(ctx context.Context) ([]model.Event, error) {
	return r.Events(ctx)
}

// Invalidate drops the snapshot so the next Events call collects again.
// Used after the subscription list changed.
func (r *Refresher) Invalidate() {
	r.mu.Lock()
	r.events = nil
	r.loaded = false
	r.mu.Unlock()
}

// UpdatedAt reports when the snapshot was last replaced.
func (r *Refresher) UpdatedAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.updatedAt
}

func (r *Refresher) snapshot() ([]model.Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.events, r.loaded
}

// Start schedules refreshes with a standard 5-field cron spec. Overlapping
// runs are skipped.
func (r *Refresher) Start(spec string) error {
	logger := cronLogger{}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)
	if _, err := c.AddFunc(spec, r.scheduledRefresh); err != nil {
		return fmt.Errorf("refresh schedule %q: %w", spec, err)
	}
	c.Start()
	r.cron = c
	appLog.Info("feed refresh scheduled", "spec", spec)
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish.
func (r *Refresher) Stop() {
	if r.cron == nil {
		return
	}
	<-r.cron.Stop().Done()
	r.cron = nil
}

func (r *Refresher) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.Refresh(ctx); err != nil {
		appLog.Error("scheduled refresh failed; keeping previous snapshot", err)
		return
	}
	appLog.Debug("scheduled refresh completed")
}

// cronLogger routes cron's own messages into the application log.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...any) {
	appLog.Debug("cron: "+msg, keysAndValues...)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...any) {
	appLog.Error("cron: "+msg, err, keysAndValues...)
}
