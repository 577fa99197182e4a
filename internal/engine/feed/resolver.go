package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go_feed/internal/engine"
	"github.com/anatolykoptev/go_feed/internal/engine/cache"
	"github.com/anatolykoptev/go_feed/internal/engine/content"
	"github.com/anatolykoptev/go_feed/internal/engine/upstream"
)

// Request carries the client parameters of one feed read.
type Request struct {
	Limit      int   // 0 = feed default; clamped to the feed window
	AllowEmpty *bool // nil = feed policy
}

// Response is one served feed window.
type Response struct {
	Feed      string         `json:"feed"`
	Items     []content.Item `json:"items"`
	Tier      cache.Tier     `json:"tier"`
	UpdatedAt time.Time      `json:"updatedAt,omitzero"`
	Warning   string         `json:"warning,omitempty"`
	Note      string         `json:"note,omitempty"`
}

// Resolver serves one feed.
type Resolver struct {
	def       Definition
	exec      *upstream.Executor
	cache     *cache.Cache
	normalize normalizeFunc
}

// NewResolver validates def and binds it to the executor and cache.
func NewResolver(def Definition, exec *upstream.Executor, c *cache.Cache) (*Resolver, error) {
	def = def.withDefaults()
	if err := def.Validate(); err != nil {
		return nil, err
	}
	return &Resolver{def: def, exec: exec, cache: c, normalize: normalizeItem}, nil
}

// Definition returns the effective (defaulted) definition.
func (r *Resolver) Definition() Definition { return r.def }

// Resolve reads the feed through the cache and returns at most the clamped limit
// of normalized items. The only error is cache.ErrUnavailable: upstream failed
// and no cached tier had data.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Response, error) {
	engine.IncrFeedRequests()
	limit := r.def.ClampLimit(req.Limit)

	res, err := r.cache.Read(ctx, r.def.Name, r.def.TTL, r.fetch)
	if err != nil {
		engine.IncrFeedFailures()
		slog.Error("feed: no data available", slog.String("feed", r.def.Name), slog.Any("error", err))
		return Response{}, fmt.Errorf("feed %s: %w", r.def.Name, err)
	}

	items := res.Items
	if len(items) > limit {
		items = items[:limit]
	}
	out := Response{
		Feed:      r.def.Name,
		Items:     normalizeAll(r.def, items, r.normalize),
		Tier:      res.Tier,
		UpdatedAt: res.UpdatedAt,
		Warning:   res.Warning,
	}
	if len(out.Items) == 0 && !r.def.allowEmpty(req.AllowEmpty) {
		out.Note = r.def.EmptyNote
	}
	return out, nil
}

// fetch runs the query chain and normalizes the winning rows before they are
// cached. Every shape erroring is reported as an error so the cache can warn.
func (r *Resolver) fetch(ctx context.Context) ([]content.Item, error) {
	var items []content.Item
	err := engine.TrackOperation(ctx, "feed:"+r.def.Name, func(ctx context.Context) error {
		res := r.exec.Execute(ctx, r.def.Queries)
		if res.Failed() {
			return fmt.Errorf("query chain failed after %d attempts: %w", res.Attempts, res.Err())
		}
		if res.Winner >= 0 {
			slog.Debug("feed: fetched",
				slog.String("feed", r.def.Name),
				slog.String("query", r.def.Queries[res.Winner].Label()),
				slog.Int("rows", len(res.Rows)))
		}
		raw := make([]content.Item, len(res.Rows))
		for i, row := range res.Rows {
			raw[i] = content.New(row)
		}
		items = normalizeAll(r.def, raw, r.normalize)
		return nil
	})
	return items, err
}
