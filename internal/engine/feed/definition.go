// Package feed binds a named content feed to its query chain, cache tier and
// link normalization, and serves clamped, normalized item windows.
package feed

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/anatolykoptev/go_feed/internal/engine/upstream"
)

// EmptyPolicy decides how a feed reports a true-empty state by default.
type EmptyPolicy string

const (
	EmptyShow EmptyPolicy = "show" // plain items: []
	EmptyNote EmptyPolicy = "note" // items: [] plus a note
)

const defaultEmptyNote = "No content is available for this feed yet."

// Definition configures one feed. Loadable from YAML; zero fields take defaults.
type Definition struct {
	Name         string                     `yaml:"name"`
	Table        string                     `yaml:"table"`
	PrimaryKey   string                     `yaml:"primary_key"`
	Queries      []upstream.QueryDescriptor `yaml:"queries"` // most selective first
	TTL          time.Duration              `yaml:"ttl"`     // 0 = cache default
	MinLimit     int                        `yaml:"min_limit"`
	MaxLimit     int                        `yaml:"max_limit"`
	DefaultLimit int                        `yaml:"default_limit"`
	Empty        EmptyPolicy                `yaml:"empty"`
	EmptyNote    string                     `yaml:"empty_note"`
	VideoFields  []string                   `yaml:"video_fields"` // tried in order for the external video ID
	ImageField   string                     `yaml:"image_field"`
	LinkField    string                     `yaml:"link_field"`
}

// withDefaults fills zero fields and resolves per-descriptor tables and limits.
func (d Definition) withDefaults() Definition {
	if d.PrimaryKey == "" {
		d.PrimaryKey = "id"
	}
	if d.MinLimit <= 0 {
		d.MinLimit = 1
	}
	if d.MaxLimit <= 0 {
		d.MaxLimit = 50
	}
	if d.DefaultLimit <= 0 {
		d.DefaultLimit = min(12, d.MaxLimit)
	}
	if d.Empty == "" {
		d.Empty = EmptyShow
	}
	if d.EmptyNote == "" {
		d.EmptyNote = defaultEmptyNote
	}

	queries := slices.Clone(d.Queries)
	if len(queries) == 0 && d.Table != "" {
		queries = publishedChain()
	}
	for i := range queries {
		if queries[i].Table == "" {
			queries[i].Table = d.Table
		}
		if queries[i].Limit <= 0 {
			queries[i].Limit = d.MaxLimit
		}
	}
	d.Queries = queries
	return d
}

// Validate reports configuration errors. Call on a defaulted definition.
func (d Definition) Validate() error {
	var errs []error
	if d.Name == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if len(d.Queries) == 0 {
		errs = append(errs, errors.New("at least one query is required"))
	}
	for i, q := range d.Queries {
		if q.Table == "" {
			errs = append(errs, fmt.Errorf("query %d: no table", i))
		}
	}
	if d.MinLimit > d.MaxLimit {
		errs = append(errs, fmt.Errorf("min_limit %d > max_limit %d", d.MinLimit, d.MaxLimit))
	}
	if d.DefaultLimit < d.MinLimit || d.DefaultLimit > d.MaxLimit {
		errs = append(errs, fmt.Errorf("default_limit %d outside [%d,%d]", d.DefaultLimit, d.MinLimit, d.MaxLimit))
	}
	if d.Empty != EmptyShow && d.Empty != EmptyNote {
		errs = append(errs, fmt.Errorf("empty policy %q: want show or note", d.Empty))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("feed %q: %w", d.Name, err)
	}
	return nil
}

// ClampLimit maps a requested limit into the feed window. Zero or negative
// means the default.
func (d Definition) ClampLimit(limit int) int {
	if limit <= 0 {
		limit = d.DefaultLimit
	}
	return max(d.MinLimit, min(limit, d.MaxLimit))
}

// allowEmpty resolves the client flag against the feed's default policy.
func (d Definition) allowEmpty(flag *bool) bool {
	if flag != nil {
		return *flag
	}
	return d.Empty == EmptyShow
}
