package feedserver

import "github.com/anatolykoptev/go_feed/internal/engine/feed"

// FeedGetInput is the input of the feed_get tool.
type FeedGetInput struct {
	Feed       string `json:"feed" jsonschema:"Feed name: short-segments, video-feed, picks, or a configured feed"`
	Limit      int    `json:"limit,omitempty" jsonschema:"Number of items to return; clamped to the feed window. Default: feed default"`
	AllowEmpty *bool  `json:"allow_empty,omitempty" jsonschema:"Return an empty list without a note when the feed has no data. Default: feed policy"`
}

// FeedGetOutput is one served feed window.
type FeedGetOutput struct {
	Feed      string           `json:"feed"`
	Tier      string           `json:"tier"`
	Count     int              `json:"count"`
	Items     []map[string]any `json:"items"`
	UpdatedAt string           `json:"updated_at,omitempty"`
	Warning   string           `json:"warning,omitempty"`
	Note      string           `json:"note,omitempty"`
}

// FeedListInput is the (empty) input of the feed_list tool.
type FeedListInput struct{}

// FeedListOutput lists the registered feeds.
type FeedListOutput struct {
	Feeds []feed.Info `json:"feeds"`
}
