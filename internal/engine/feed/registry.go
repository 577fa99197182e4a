package feed

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/anatolykoptev/go_feed/internal/engine/cache"
	"github.com/anatolykoptev/go_feed/internal/engine/upstream"
)

// ErrUnknownFeed is returned for a feed name that was never registered.
var ErrUnknownFeed = errors.New("unknown feed")

// Registry maps feed names to resolvers. Built once at startup.
type Registry struct {
	mu        sync.RWMutex
	resolvers map[string]*Resolver
	cache     *cache.Cache
}

// NewRegistry creates an empty registry whose feeds share c.
func NewRegistry(c *cache.Cache) *Registry {
	return &Registry{resolvers: make(map[string]*Resolver), cache: c}
}

// Build creates a registry with one resolver per definition over store.
func Build(defs []Definition, store upstream.Store, c *cache.Cache) (*Registry, error) {
	reg := NewRegistry(c)
	exec := upstream.NewExecutor(store)
	for _, def := range defs {
		if _, err := reg.Register(def, exec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register validates def and adds or replaces its resolver.
func (r *Registry) Register(def Definition, exec *upstream.Executor) (*Resolver, error) {
	res, err := NewResolver(def, exec, r.cache)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.resolvers[res.def.Name] = res
	r.mu.Unlock()
	return res, nil
}

// Get returns the resolver of name.
func (r *Registry) Get(name string) (*Resolver, error) {
	r.mu.RLock()
	res, ok := r.resolvers[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFeed, name)
	}
	return res, nil
}

// Names returns the registered feed names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.resolvers))
	for name := range r.resolvers {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Resolve serves name. See Resolver.Resolve.
func (r *Registry) Resolve(ctx context.Context, name string, req Request) (Response, error) {
	res, err := r.Get(name)
	if err != nil {
		return Response{}, err
	}
	return res.Resolve(ctx, req)
}

// Info describes a registered feed and its memory tier.
type Info struct {
	Name         string `json:"name"`
	Table        string `json:"table"`
	Queries      int    `json:"queries"`
	TTL          string `json:"ttl"`
	MinLimit     int    `json:"min_limit"`
	MaxLimit     int    `json:"max_limit"`
	DefaultLimit int    `json:"default_limit"`
	Empty        string `json:"empty_policy"`
	CachedItems  int    `json:"cached_items"`
	CachedAt     string `json:"cached_at,omitempty"` // RFC 3339
}

// Infos lists every feed with its current memory snapshot size, sorted by name.
func (r *Registry) Infos() []Info {
	names := r.Names()
	out := make([]Info, 0, len(names))
	for _, name := range names {
		res, err := r.Get(name)
		if err != nil {
			continue
		}
		def := res.def
		info := Info{
			Name:         def.Name,
			Table:        def.Table,
			Queries:      len(def.Queries),
			TTL:          "default",
			MinLimit:     def.MinLimit,
			MaxLimit:     def.MaxLimit,
			DefaultLimit: def.DefaultLimit,
			Empty:        string(def.Empty),
		}
		if def.TTL > 0 {
			info.TTL = def.TTL.String()
		}
		if snap, ok := r.cache.Peek(name); ok {
			info.CachedItems = len(snap.Items)
			info.CachedAt = snap.Time().UTC().Format(time.RFC3339)
		}
		out = append(out, info)
	}
	return out
}
