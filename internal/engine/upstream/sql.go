package upstream

import (
	"errors"
	"fmt"
	"strings"
)

// dialect captures what differs between the SQL stores.
type dialect struct {
	ident       func(name string) string
	placeholder func(n int) string
}

// buildSelect renders q as a parameterized SELECT.
func buildSelect(q QueryDescriptor, d dialect) (string, []any, error) {
	if strings.TrimSpace(q.Table) == "" {
		return "", nil, errors.New("query: table is required")
	}

	var sb strings.Builder
	sb.WriteString("SELECT ")
	if len(q.Columns) == 0 {
		sb.WriteString("*")
	} else {
		cols := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			cols[i] = d.ident(c)
		}
		sb.WriteString(strings.Join(cols, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(d.ident(q.Table))

	var args []any
	if len(q.Filters) > 0 {
		conds := make([]string, len(q.Filters))
		for i, f := range q.Filters {
			if f.Field == "" {
				return "", nil, fmt.Errorf("query %s: filter %d has no field", q.Label(), i)
			}
			if f.Value == nil {
				conds[i] = d.ident(f.Field) + " IS NULL"
				continue
			}
			args = append(args, f.Value)
			conds[i] = d.ident(f.Field) + " = " + d.placeholder(len(args))
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(q.Order) > 0 {
		terms := make([]string, len(q.Order))
		for i, o := range q.Order {
			if o.Field == "" {
				return "", nil, fmt.Errorf("query %s: order %d has no field", q.Label(), i)
			}
			dir := "ASC"
			if o.Descending {
				dir = "DESC"
			}
			nulls := "NULLS LAST"
			if o.NullsFirst {
				nulls = "NULLS FIRST"
			}
			terms[i] = d.ident(o.Field) + " " + dir + " " + nulls
		}
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(terms, ", "))
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, " LIMIT %d", q.Limit)
	}
	return sb.String(), args, nil
}

// quoteIdent double-quotes each dot-separated part of name.
func quoteIdent(name string) string {
	parts := strings.Split(name, ".")
	for i, p := range parts {
		parts[i] = `"` + strings.ReplaceAll(p, `"`, `""`) + `"`
	}
	return strings.Join(parts, ".")
}
