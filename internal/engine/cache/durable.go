package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/anatolykoptev/go_feed/internal/engine"
	"github.com/anatolykoptev/go_feed/internal/engine/content"
)

// Snapshot is the whole cached item list of one feed. It is replaced, never patched.
type Snapshot struct {
	Items     []content.Item `json:"items"`
	UpdatedAt int64          `json:"updatedAt"` // epoch milliseconds
}

// Time returns UpdatedAt as a time.Time.
func (s Snapshot) Time() time.Time {
	return time.UnixMilli(s.UpdatedAt)
}

// Durable is the slower tier that survives restarts. It is advisory: a missing
// snapshot is an empty Snapshot with nil error, and callers treat errors as empty too.
type Durable interface {
	Load(ctx context.Context, feed string) (Snapshot, error)
	Save(ctx context.Context, feed string, snap Snapshot) error
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// DiskStore keeps one JSON document per feed in a directory.
type DiskStore struct {
	dir string
}

// NewDiskStore stores snapshots under dir. The directory is created on first write.
func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// Path returns the snapshot file of feed.
func (d *DiskStore) Path(feed string) string {
	return filepath.Join(d.dir, unsafeFileChars.ReplaceAllString(feed, "_")+".json")
}

// Load implements Durable.
func (d *DiskStore) Load(_ context.Context, feed string) (Snapshot, error) {
	data, err := os.ReadFile(d.Path(feed))
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("disk cache: read %s: %w", feed, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("disk cache: decode %s: %w", feed, err)
	}
	return snap, nil
}

// Save implements Durable. The file is replaced via rename so readers never see
// a half-written document; concurrent writers race and the last rename wins.
func (d *DiskStore) Save(_ context.Context, feed string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("disk cache: encode %s: %w", feed, err)
	}
	if err := os.MkdirAll(d.dir, 0o750); err != nil {
		return fmt.Errorf("disk cache: mkdir %s: %w", d.dir, err)
	}
	tmp, err := os.CreateTemp(d.dir, filepath.Base(d.Path(feed))+".*.tmp")
	if err != nil {
		return fmt.Errorf("disk cache: temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("disk cache: write %s: %w", feed, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("disk cache: close %s: %w", feed, err)
	}
	if err := os.Rename(tmp.Name(), d.Path(feed)); err != nil {
		return fmt.Errorf("disk cache: rename %s: %w", feed, err)
	}
	return nil
}

// RedisStore keeps snapshots in Redis so several instances share one durable tier.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// ConnectRedis parses redisURL and pings the server. ttl 0 keeps snapshots forever.
func ConnectRedis(ctx context.Context, redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis cache: invalid url: %w", err)
	}
	rdb := redis.NewClient(opts)
	ping := func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return rdb.Ping(pingCtx).Err()
	}
	rc := engine.DefaultRetryConfig
	rc.MaxTries = 3
	if err := engine.RetryConnect(ctx, rc, "redis", ping); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis cache: unreachable: %w", err)
	}
	slog.Info("cache: redis durable tier connected", slog.String("addr", opts.Addr))
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

// NewRedisStore wraps an existing client.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Key returns the Redis key holding feed's snapshot.
func (r *RedisStore) Key(feed string) string {
	return "feed:snapshot:" + feed
}

// Load implements Durable.
func (r *RedisStore) Load(ctx context.Context, feed string) (Snapshot, error) {
	data, err := r.rdb.Get(ctx, r.Key(feed)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("redis cache: get %s: %w", feed, err)
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("redis cache: decode %s: %w", feed, err)
	}
	return snap, nil
}

// Save implements Durable.
func (r *RedisStore) Save(ctx context.Context, feed string, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("redis cache: encode %s: %w", feed, err)
	}
	if err := r.rdb.Set(ctx, r.Key(feed), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis cache: set %s: %w", feed, err)
	}
	return nil
}

func (r *RedisStore) Close() error {
	return r.rdb.Close()
}
