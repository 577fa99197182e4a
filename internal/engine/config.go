package engine

import "time"

// Config holds all engine configuration, injected from main.
type Config struct {
	DatabaseURL         string        // Postgres (Supabase) upstream; empty = use SQLitePath
	SQLitePath          string        // local upstream for development
	RedisURL            string        // optional shared durable tier instead of disk files
	RedisSnapshotTTL    time.Duration // expiry of Redis snapshots; 0 = keep
	CacheDir            string        // disk tier directory, one JSON file per feed
	CacheTTL            time.Duration // default memory freshness window
	DurableWriteTimeout time.Duration
	FeedsConfig         string // optional YAML overriding the built-in feed definitions
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages (cache, feed, upstream).
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.CacheTTL <= 0 {
		c.CacheTTL = 3 * time.Minute
	}
	if c.DurableWriteTimeout <= 0 {
		c.DurableWriteTimeout = 10 * time.Second
	}
	cfg = c
	Cfg = &cfg
}
