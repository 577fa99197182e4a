// go_feed — resilient content feed MCP server.
//
// Exposes two MCP tools: feed_get, feed_list. Also serves the same feeds over
// HTTP at /api/feeds/{feed} with the cache tier in the X-Cache-Tier header.
//
// Upstream is Postgres (DATABASE_URL) or a local SQLite file (SQLITE_PATH).
// The durable cache tier is Redis (REDIS_URL) or JSON files in FEED_CACHE_DIR.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anatolykoptev/go_feed/internal/engine"
	"github.com/anatolykoptev/go_feed/internal/engine/cache"
	"github.com/anatolykoptev/go_feed/internal/engine/feed"
	"github.com/anatolykoptev/go_feed/internal/engine/upstream"
	"github.com/anatolykoptev/go_feed/internal/feedserver"
)

var (
	version  = "dev"
	mcpPort  = env.Str("MCP_PORT", "8893")
	httpPort = env.Str("HTTP_PORT", "8894")
)

func main() {
	ctx := context.Background()
	initEngine()

	slog.Info("starting go_feed",
		slog.String("mcp_port", mcpPort),
		slog.String("http_port", httpPort),
	)

	store, closeStore, err := openStore(ctx)
	if err != nil {
		slog.Error("upstream store init failed", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	c := cache.New(
		cache.WithDurable(openDurable(ctx)),
		cache.WithTTL(engine.Cfg.CacheTTL),
		cache.WithWriteTimeout(engine.Cfg.DurableWriteTimeout),
	)

	defs := feed.Presets()
	if path := engine.Cfg.FeedsConfig; path != "" {
		defs, err = feed.LoadFile(path, defs)
		if err != nil {
			slog.Error("feeds config invalid", slog.String("path", path), slog.Any("error", err))
			os.Exit(1)
		}
	}
	reg, err := feed.Build(defs, store, c)
	if err != nil {
		slog.Error("feed registry init failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("feeds registered", slog.Any("feeds", reg.Names()))

	go serveHTTP(reg)

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_feed",
		Version: version,
	}, nil)

	tools := feedserver.RegisterTools(server, reg)
	slog.Info("tools registered", slog.Any("tools", tools))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_feed",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 60 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
	c.Wait()
}

func initEngine() {
	engine.Init(engine.Config{
		DatabaseURL:         env.Str("DATABASE_URL", ""),
		SQLitePath:          env.Str("SQLITE_PATH", "data/content.db"),
		RedisURL:            env.Str("REDIS_URL", ""),
		RedisSnapshotTTL:    env.Duration("REDIS_SNAPSHOT_TTL", 0),
		CacheDir:            env.Str("FEED_CACHE_DIR", "data/feed-cache"),
		CacheTTL:            env.Duration("FEED_CACHE_TTL", cache.DefaultTTL),
		DurableWriteTimeout: env.Duration("FEED_CACHE_WRITE_TIMEOUT", 10*time.Second),
		FeedsConfig:         env.Str("FEEDS_CONFIG", ""),
	})
}

// openStore connects the upstream: Postgres when DATABASE_URL is set, else SQLite.
func openStore(ctx context.Context) (upstream.Store, func(), error) {
	if url := engine.Cfg.DatabaseURL; url != "" {
		pg, err := upstream.ConnectPostgres(ctx, url)
		if err != nil {
			return nil, nil, err
		}
		return pg, pg.Close, nil
	}
	store, err := upstream.OpenSQLite(engine.Cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("upstream: using sqlite", slog.String("path", engine.Cfg.SQLitePath))
	return store, func() { store.Close() }, nil
}

// openDurable picks Redis when configured and reachable, else disk files.
func openDurable(ctx context.Context) cache.Durable {
	if url := engine.Cfg.RedisURL; url != "" {
		rs, err := cache.ConnectRedis(ctx, url, engine.Cfg.RedisSnapshotTTL)
		if err == nil {
			return rs
		}
		slog.Warn("redis durable tier unavailable, using disk", slog.Any("error", err))
	}
	slog.Info("cache: disk durable tier", slog.String("dir", engine.Cfg.CacheDir))
	return cache.NewDiskStore(engine.Cfg.CacheDir)
}

func serveHTTP(reg *feed.Registry) {
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           feedserver.NewRouter(reg),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
	slog.Info("http api listening", slog.String("addr", srv.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("http api failed", slog.Any("error", err))
	}
}
