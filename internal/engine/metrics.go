package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	FeedRequests       atomic.Int64
	FeedFailures       atomic.Int64
	UpstreamAttempts   atomic.Int64
	UpstreamErrors     atomic.Int64
	UpstreamEmpty      atomic.Int64
	TierMemory         atomic.Int64
	TierUpstream       atomic.Int64
	TierStaleMemory    atomic.Int64
	TierDisk           atomic.Int64
	TierEmpty          atomic.Int64
	DurableWrites      atomic.Int64
	DurableWriteErrors atomic.Int64
	DurableReadErrors  atomic.Int64
	NormalizeFailures  atomic.Int64
}

// GetMetrics returns a snapshot of all metrics.
func GetMetrics() map[string]int64 {
	return map[string]int64{
		"feed_requests":        metrics.FeedRequests.Load(),
		"feed_failures":        metrics.FeedFailures.Load(),
		"upstream_attempts":    metrics.UpstreamAttempts.Load(),
		"upstream_errors":      metrics.UpstreamErrors.Load(),
		"upstream_empty":       metrics.UpstreamEmpty.Load(),
		"tier_memory":          metrics.TierMemory.Load(),
		"tier_db":              metrics.TierUpstream.Load(),
		"tier_stale_mem_cache": metrics.TierStaleMemory.Load(),
		"tier_disk_cache":      metrics.TierDisk.Load(),
		"tier_db_empty":        metrics.TierEmpty.Load(),
		"durable_writes":       metrics.DurableWrites.Load(),
		"durable_write_errors": metrics.DurableWriteErrors.Load(),
		"durable_read_errors":  metrics.DurableReadErrors.Load(),
		"normalize_failures":   metrics.NormalizeFailures.Load(),
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	keys := []string{
		"feed_requests", "feed_failures",
		"upstream_attempts", "upstream_errors", "upstream_empty",
		"tier_memory", "tier_db", "tier_stale_mem_cache", "tier_disk_cache", "tier_db_empty",
		"durable_writes", "durable_write_errors", "durable_read_errors",
		"normalize_failures",
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for feed/ sub-package.
func IncrFeedRequests()      { metrics.FeedRequests.Add(1) }
func IncrFeedFailures()      { metrics.FeedFailures.Add(1) }
func IncrNormalizeFailures() { metrics.NormalizeFailures.Add(1) }

// Incrementors for upstream/ sub-package.
func IncrUpstreamAttempts() { metrics.UpstreamAttempts.Add(1) }
func IncrUpstreamErrors()   { metrics.UpstreamErrors.Add(1) }
func IncrUpstreamEmpty()    { metrics.UpstreamEmpty.Add(1) }

// Incrementors for cache/ sub-package.
func IncrDurableWrites()      { metrics.DurableWrites.Add(1) }
func IncrDurableWriteErrors() { metrics.DurableWriteErrors.Add(1) }
func IncrDurableReadErrors()  { metrics.DurableReadErrors.Add(1) }

// IncrTier counts a response served from the named cache tier.
func IncrTier(tier string) {
	switch tier {
	case "memory":
		metrics.TierMemory.Add(1)
	case "db":
		metrics.TierUpstream.Add(1)
	case "stale-mem-cache":
		metrics.TierStaleMemory.Add(1)
	case "disk-cache":
		metrics.TierDisk.Add(1)
	case "db-empty":
		metrics.TierEmpty.Add(1)
	}
}

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
