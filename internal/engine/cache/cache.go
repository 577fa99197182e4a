// Package cache serves feed snapshots from two tiers: a fast in-process memory tier
// with a freshness TTL and a slower durable tier (disk files or Redis) that
// survives restarts. The memory tier is lost on restart; the durable tier is advisory.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/anatolykoptev/go_feed/internal/engine"
	"github.com/anatolykoptev/go_feed/internal/engine/content"
)

// Tier names where a response came from. Attached to responses only, never persisted.
type Tier string

const (
	TierMemory      Tier = "memory"
	TierUpstream    Tier = "db"
	TierStaleMemory Tier = "stale-mem-cache"
	TierDisk        Tier = "disk-cache"
	TierEmpty       Tier = "db-empty"
)

// DefaultTTL is the memory freshness window when none is configured.
const DefaultTTL = 3 * time.Minute

// ErrUnavailable is returned when upstream failed and neither tier holds data.
var ErrUnavailable = errors.New("feed unavailable")

// FetchFunc loads a fresh item list from upstream. A nil error with no items means
// "no data"; a non-nil error means upstream itself failed.
type FetchFunc func(ctx context.Context) ([]content.Item, error)

// Result is what a read served.
type Result struct {
	Items     []content.Item
	Tier      Tier
	UpdatedAt time.Time
	Warning   string // set when upstream failed and a stale tier answered
}

// Cache holds the memory tier of every feed and fronts the durable tier.
type Cache struct {
	ttl          time.Duration
	durable      Durable // nil = memory only
	writeTimeout time.Duration

	mu      sync.Mutex
	entries map[string]*Snapshot // feed → snapshot

	writes   sync.WaitGroup
	warnOnce rate.Sometimes
	now      func() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithDurable sets the durable tier.
func WithDurable(d Durable) Option {
	return func(c *Cache) { c.durable = d }
}

// WithTTL sets the default memory freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithWriteTimeout bounds each background durable write.
func WithWriteTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// New creates an empty cache. The entry map starts empty and lives for the process.
func New(opts ...Option) *Cache {
	c := &Cache{
		ttl:          DefaultTTL,
		writeTimeout: 10 * time.Second,
		entries:      make(map[string]*Snapshot),
		warnOnce:     rate.Sometimes{First: 1, Interval: time.Minute},
		now:          time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	slog.Info("cache: initialized", slog.Duration("ttl", c.ttl), slog.Bool("durable", c.durable != nil))
	return c
}

// Read serves feed from the freshest tier available, calling fetch only when the
// memory snapshot is missing, empty or older than ttl (0 = cache default).
//
// Order: fresh memory, upstream, stale memory, durable tier, empty. When fetch
// fails and both cached tiers are empty, Read returns ErrUnavailable.
func (c *Cache) Read(ctx context.Context, feed string, ttl time.Duration, fetch FetchFunc) (Result, error) {
	if ttl <= 0 {
		ttl = c.ttl
	}

	if snap, ok := c.memory(feed); ok && len(snap.Items) > 0 && c.now().Sub(snap.Time()) < ttl {
		return c.served(feed, Result{Items: snap.Items, Tier: TierMemory, UpdatedAt: snap.Time()}), nil
	}

	items, err := fetch(ctx)
	if err == nil && len(items) > 0 {
		snap := &Snapshot{Items: items, UpdatedAt: c.now().UnixMilli()}
		c.store(feed, snap)
		c.persist(ctx, feed, *snap)
		return c.served(feed, Result{Items: items, Tier: TierUpstream, UpdatedAt: snap.Time()}), nil
	}

	var warning string
	if err != nil {
		warning = "upstream unavailable, serving cached data"
		slog.Warn("cache: upstream failed, falling back",
			slog.String("feed", feed), slog.Any("error", err))
	}

	if snap, ok := c.memory(feed); ok && len(snap.Items) > 0 {
		return c.served(feed, Result{Items: snap.Items, Tier: TierStaleMemory, UpdatedAt: snap.Time(), Warning: warning}), nil
	}

	if disk := c.loadDurable(ctx, feed); len(disk.Items) > 0 {
		refreshed := &Snapshot{Items: disk.Items, UpdatedAt: c.now().UnixMilli()}
		c.store(feed, refreshed)
		return c.served(feed, Result{Items: disk.Items, Tier: TierDisk, UpdatedAt: disk.Time(), Warning: warning}), nil
	}

	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %w", ErrUnavailable, feed, err)
	}
	return c.served(feed, Result{Items: []content.Item{}, Tier: TierEmpty}), nil
}

// Peek returns the memory snapshot of feed without touching upstream.
func (c *Cache) Peek(feed string) (Snapshot, bool) {
	snap, ok := c.memory(feed)
	if !ok {
		return Snapshot{}, false
	}
	return *snap, true
}

// Invalidate drops the memory snapshot of feed; the durable tier is kept.
func (c *Cache) Invalidate(feed string) {
	c.mu.Lock()
	delete(c.entries, feed)
	c.mu.Unlock()
}

// Wait blocks until background durable writes have finished.
func (c *Cache) Wait() {
	c.writes.Wait()
}

func (c *Cache) memory(feed string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap, ok := c.entries[feed]
	return snap, ok
}

func (c *Cache) store(feed string, snap *Snapshot) {
	c.mu.Lock()
	c.entries[feed] = snap
	c.mu.Unlock()
}

// persist writes snap to the durable tier in the background. The read never waits
// for it and failures are only logged.
func (c *Cache) persist(ctx context.Context, feed string, snap Snapshot) {
	if c.durable == nil {
		return
	}
	c.writes.Add(1)
	go func() {
		defer c.writes.Done()
		wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.writeTimeout)
		defer cancel()
		if err := c.durable.Save(wctx, feed, snap); err != nil {
			engine.IncrDurableWriteErrors()
			c.warnOnce.Do(func() {
				slog.Warn("cache: durable write failed", slog.String("feed", feed), slog.Any("error", err))
			})
			return
		}
		engine.IncrDurableWrites()
	}()
}

// loadDurable reads the durable tier; unreadable or corrupt counts as empty.
func (c *Cache) loadDurable(ctx context.Context, feed string) Snapshot {
	if c.durable == nil {
		return Snapshot{}
	}
	snap, err := c.durable.Load(ctx, feed)
	if err != nil {
		engine.IncrDurableReadErrors()
		slog.Debug("cache: durable read failed, treating as empty", slog.String("feed", feed), slog.Any("error", err))
		return Snapshot{}
	}
	return snap
}

func (c *Cache) served(feed string, r Result) Result {
	engine.IncrTier(string(r.Tier))
	slog.Debug("cache: served", slog.String("feed", feed), slog.String("tier", string(r.Tier)), slog.Int("items", len(r.Items)))
	return r
}
