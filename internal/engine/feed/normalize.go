package feed

import (
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_feed/internal/engine"
	"github.com/anatolykoptev/go_feed/internal/engine/content"
	"github.com/anatolykoptev/go_feed/internal/engine/links"
)

// normalizeFunc derives the link fields of one item.
type normalizeFunc func(def Definition, it content.Item) content.Item

// normalizeItem fills externalVideoId, cleanImageUrl and cleanLinkUrl from the
// fields named in def. Underivable values are null.
func normalizeItem(def Definition, it content.Item) content.Item {
	var videoID string
	for _, field := range def.VideoFields {
		if videoID = links.ToExternalVideoID(it.Text(field)); videoID != "" {
			break
		}
	}
	var image, link string
	if def.ImageField != "" {
		image = links.CleanURL(it.Text(def.ImageField))
	}
	if def.LinkField != "" {
		link = links.CleanURL(it.Text(def.LinkField))
	}
	return it.WithDerived(content.StringPtr(videoID), content.StringPtr(image), content.StringPtr(link))
}

// normalizeAll normalizes items that are not normalized yet, each in isolation.
// A failing item keeps its raw fields with null derived fields. The input slice
// is not modified.
func normalizeAll(def Definition, items []content.Item, fn normalizeFunc) []content.Item {
	out := make([]content.Item, len(items))
	for i, it := range items {
		if it.Normalized() {
			out[i] = it
			continue
		}
		out[i] = normalizeOne(def, it, fn)
	}
	return out
}

func normalizeOne(def Definition, it content.Item, fn normalizeFunc) (out content.Item) {
	defer func() {
		if rec := recover(); rec != nil {
			engine.IncrNormalizeFailures()
			slog.Warn("feed: item normalization failed, keeping raw fields",
				slog.String("feed", def.Name),
				slog.String("key", it.Key(def.PrimaryKey)),
				slog.Any("error", fmt.Errorf("%v", rec)))
			out = it.WithDerived(nil, nil, nil)
		}
	}()
	return fn(def, it)
}
