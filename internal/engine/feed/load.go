package feed

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// fileConfig is the layout of a feeds YAML file:
//
//	feeds:
//	  - name: picks
//	    ttl: 5m
//	    empty: show
//	  - name: interviews
//	    table: interviews
//	    queries:
//	      - {table: interviews, order: [{field: created_at, desc: true}]}
type fileConfig struct {
	Feeds []yaml.Node `yaml:"feeds"`
}

// LoadFile reads feed definitions from path and merges them over base. An entry
// whose name matches a base definition overrides only the keys it sets; other
// entries add new feeds. Order is base order, then new feeds in file order.
func LoadFile(path string, base []Definition) ([]Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read feeds config: %w", err)
	}
	return Merge(data, base)
}

// Merge applies a YAML feeds document to base. See LoadFile.
func Merge(data []byte, base []Definition) ([]Definition, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse feeds config: %w", err)
	}

	out := slices.Clone(base)
	for i, node := range fc.Feeds {
		var head struct {
			Name string `yaml:"name"`
		}
		if err := node.Decode(&head); err != nil {
			return nil, fmt.Errorf("feeds[%d]: %w", i, err)
		}
		if head.Name == "" {
			return nil, fmt.Errorf("feeds[%d]: name is required", i)
		}

		idx := slices.IndexFunc(out, func(d Definition) bool { return d.Name == head.Name })
		var def Definition
		if idx >= 0 {
			def = out[idx]
			def.Queries = slices.Clone(def.Queries)
			def.VideoFields = slices.Clone(def.VideoFields)
		}
		if err := node.Decode(&def); err != nil {
			return nil, fmt.Errorf("feed %q: %w", head.Name, err)
		}

		if idx >= 0 {
			out[idx] = def
		} else {
			out = append(out, def)
		}
	}
	return out, nil
}
