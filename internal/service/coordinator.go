package service

import (
	"context"
	"sync"
	"time"

	"controme_bridge"
	"controme_bridge/internal/logger"
	"controme_bridge/internal/repository"
)

// DefaultPollInterval is the fixed gateway polling interval.
const DefaultPollInterval = 60 * time.Second

// Builder produces one snapshot per call. Satisfied by *SnapshotBuilder.
type Builder interface {
	Build(ctx context.Context) (*controme_bridge.Snapshot, error)
}

// PollCoordinator owns the current snapshot. It refreshes on a fixed ticker
// and on demand, coalesces concurrent refresh requests into a single build,
// keeps the last good snapshot across failures, and notifies subscribers
// once per completed refresh.
type PollCoordinator struct {
	builder Builder
	events  repository.EventRepo
	log     *logger.Logger

	mu        sync.Mutex
	snap      *controme_bridge.Snapshot
	lastErr   error
	inflight  chan struct{}
	listeners map[int]func()
	nextID    int
}

func NewPollCoordinator(builder Builder, events repository.EventRepo, log *logger.Logger) *PollCoordinator {
	return &PollCoordinator{
		builder:   builder,
		events:    events,
		log:       log,
		listeners: make(map[int]func()),
	}
}

// Run polls until ctx is canceled. The caller performs the first refresh
// before starting Run, so a broken gateway is caught at startup.
func (c *PollCoordinator) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			// Errors are recorded in lastErr and logged inside Refresh.
			_ = c.Refresh(ctx)
		}
	}
}

// Refresh runs one build, or waits for the in-flight one. At most one build
// runs at a time; a request arriving during a build is satisfied by that
// build's result. On failure the previous snapshot is kept and the typed
// failure is recorded.
func (c *PollCoordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if done := c.inflight; done != nil {
		c.mu.Unlock()
		select {
		case <-done:
			return c.LastError()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	snap, err := c.builder.Build(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastErr = &controme_bridge.RefreshError{Err: err}
	} else {
		c.snap = snap
		c.lastErr = nil
	}
	result := c.lastErr
	c.inflight = nil
	c.mu.Unlock()
	close(done)

	if err != nil {
		if c.log != nil {
			c.log.Errorw("refresh_failed", "err", err)
		}
		c.auditFailure(ctx, err)
	}
	c.Broadcast()

	if result != nil {
		return result
	}
	return nil
}

// auditFailure records a failed refresh in the command audit trail. Audit
// failures are logged only; the refresh outcome is already decided.
func (c *PollCoordinator) auditFailure(ctx context.Context, cause error) {
	if c.events == nil {
		return
	}
	e := controme_bridge.CommandEvent{
		Type:        "REFRESH_FAILED",
		Description: "gateway refresh failed; previous snapshot retained",
		Metadata:    map[string]any{"error": cause.Error()},
	}
	if err := c.events.Append(ctx, e); err != nil && c.log != nil {
		c.log.Warnw("audit_append_failed", "type", e.Type, "err", err)
	}
}

// Snapshot returns the last good snapshot, or nil before the first success.
// Callers get a read-only reference and must not mutate it.
func (c *PollCoordinator) Snapshot() *controme_bridge.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snap
}

// LastError returns the failure recorded by the most recent refresh, nil
// after a success.
func (c *PollCoordinator) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastErr != nil {
		return c.lastErr
	}
	return nil
}

// Subscribe registers fn to be called after every completed refresh
// (success or failure) and after every successful write. The returned
// function unsubscribes.
func (c *PollCoordinator) Subscribe(fn func()) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

// Broadcast invokes all subscribers. Called internally after refreshes and
// by the dispatcher after a successful write.
func (c *PollCoordinator) Broadcast() {
	c.mu.Lock()
	fns := make([]func(), 0, len(c.listeners))
	for _, fn := range c.listeners {
		fns = append(fns, fn)
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
