// Package feedserver exposes the feed registry as MCP tools and HTTP endpoints.
package feedserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_feed/internal/engine/feed"
)

// RegisterTools registers feed_get and feed_list on the given MCP server and
// returns the registered tool names.
func RegisterTools(server *mcp.Server, reg *feed.Registry) []string {
	return []string{
		registerFeedGet(server, reg),
		registerFeedList(server, reg),
	}
}

func registerFeedGet(server *mcp.Server, reg *feed.Registry) string {
	const name = "feed_get"
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: "Get items of a content feed with normalized video IDs and cleaned image/link URLs. Serves from memory, the database, or a stale cache when the database is down; the tier field tells which.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input FeedGetInput) (*mcp.CallToolResult, FeedGetOutput, error) {
		feedName := strings.TrimSpace(input.Feed)
		if feedName == "" {
			return nil, FeedGetOutput{}, fmt.Errorf("feed is required (one of: %s)", strings.Join(reg.Names(), ", "))
		}

		resp, err := reg.Resolve(ctx, feedName, feed.Request{Limit: input.Limit, AllowEmpty: input.AllowEmpty})
		if err != nil {
			return nil, FeedGetOutput{}, err
		}
		return nil, toOutput(resp), nil
	})
	return name
}

func registerFeedList(server *mcp.Server, reg *feed.Registry) string {
	const name = "feed_list"
	mcp.AddTool(server, &mcp.Tool{
		Name:        name,
		Description: "List configured content feeds with their limit window, empty policy, and how many items the memory cache currently holds.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ FeedListInput) (*mcp.CallToolResult, FeedListOutput, error) {
		return nil, FeedListOutput{Feeds: reg.Infos()}, nil
	})
	return name
}

func toOutput(resp feed.Response) FeedGetOutput {
	items := make([]map[string]any, len(resp.Items))
	for i, it := range resp.Items {
		items[i] = it.Map()
	}
	out := FeedGetOutput{
		Feed:    resp.Feed,
		Tier:    string(resp.Tier),
		Count:   len(items),
		Items:   items,
		Warning: resp.Warning,
		Note:    resp.Note,
	}
	if !resp.UpdatedAt.IsZero() {
		out.UpdatedAt = resp.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return out
}
