// Package upstream runs ordered query-shape fallbacks against the content store.
//
// The content tables are not guaranteed to carry every optional column
// (published, sort), so a feed is described by several query shapes tried from
// most selective to most permissive.
package upstream

import (
	"context"
	"strings"
)

// Row is one record as returned by a Store, keyed by column name.
type Row map[string]any

// Filter is an equality predicate. A nil Value matches NULL.
type Filter struct {
	Field string `yaml:"field" json:"field"`
	Value any    `yaml:"value" json:"value"`
}

// Order is one ORDER BY term.
type Order struct {
	Field      string `yaml:"field" json:"field"`
	Descending bool   `yaml:"desc" json:"desc,omitempty"`
	NullsFirst bool   `yaml:"nulls_first" json:"nulls_first,omitempty"`
}

// QueryDescriptor describes one query shape: select columns from table, filter,
// order and limit. Build once per feed definition and treat as immutable.
type QueryDescriptor struct {
	Name    string   `yaml:"name" json:"name,omitempty"`
	Table   string   `yaml:"table" json:"table"`
	Columns []string `yaml:"columns" json:"columns,omitempty"` // empty = all
	Filters []Filter `yaml:"filters" json:"filters,omitempty"`
	Order   []Order  `yaml:"order" json:"order,omitempty"`
	Limit   int      `yaml:"limit" json:"limit,omitempty"` // 0 = no limit
}

// Label identifies the descriptor in logs.
func (q QueryDescriptor) Label() string {
	if q.Name != "" {
		return q.Name
	}
	var sb strings.Builder
	sb.WriteString(q.Table)
	for _, f := range q.Filters {
		sb.WriteString(" " + f.Field + "=")
	}
	for _, o := range q.Order {
		sb.WriteString(" by:" + o.Field)
	}
	return sb.String()
}

// Store is the tabular query capability the feeds depend on.
// An error means this shape failed (bad column, network blip), not that data is absent.
type Store interface {
	Query(ctx context.Context, q QueryDescriptor) ([]Row, error)
}
