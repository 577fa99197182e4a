package feed

import (
	"time"

	"github.com/anatolykoptev/go_feed/internal/engine/upstream"
)

// publishedChain is the query ladder shared by the built-in feeds. Deployments
// may lack the published or sort column, so each shape drops one assumption.
// Tables are left empty and filled from the definition.
func publishedChain() []upstream.QueryDescriptor {
	published := []upstream.Filter{{Field: "published", Value: true}}
	newest := upstream.Order{Field: "created_at", Descending: true}
	bySort := upstream.Order{Field: "sort"}

	return []upstream.QueryDescriptor{
		{Name: "published+sort", Filters: published, Order: []upstream.Order{bySort, newest}},
		{Name: "published", Filters: published, Order: []upstream.Order{newest}},
		{Name: "sort", Order: []upstream.Order{bySort, newest}},
		{Name: "newest", Order: []upstream.Order{newest}},
		{Name: "any"},
	}
}

// Presets returns the built-in feed definitions.
func Presets() []Definition {
	return []Definition{
		{
			Name:         "short-segments",
			Table:        "short_segments",
			Queries:      publishedChain(),
			MaxLimit:     50,
			DefaultLimit: 12,
			Empty:        EmptyNote,
			EmptyNote:    "No short segments have been published yet.",
			VideoFields:  []string{"youtube_id", "video_url", "url"},
			ImageField:   "thumbnail_url",
			LinkField:    "url",
		},
		{
			Name:         "video-feed",
			Table:        "videos",
			Queries:      publishedChain(),
			MaxLimit:     100,
			DefaultLimit: 24,
			Empty:        EmptyShow,
			VideoFields:  []string{"video_id", "youtube_url", "embed_code"},
			ImageField:   "thumbnail",
			LinkField:    "source_url",
		},
		{
			Name:         "picks",
			Table:        "picks",
			Queries:      publishedChain(),
			TTL:          10 * time.Minute,
			MaxLimit:     30,
			DefaultLimit: 10,
			Empty:        EmptyNote,
			EmptyNote:    "No picks yet. Check back soon.",
			VideoFields:  []string{"video_url", "link_url"},
			ImageField:   "image_url",
			LinkField:    "link_url",
		},
	}
}
