package upstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_feed/internal/engine"
)

var pgDialect = dialect{
	ident: func(name string) string {
		return pgx.Identifier(strings.Split(name, ".")).Sanitize()
	},
	placeholder: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// PostgresStore queries the hosted Postgres (Supabase) content tables.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// ConnectPostgres creates a pgx pool and waits for the database to answer,
// backing off between pings for a bounded time.
func ConnectPostgres(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 10
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}

	if err := engine.RetryConnect(ctx, engine.DefaultRetryConfig, "postgres", pool.Ping); err != nil {
		pool.Close()
		return nil, err
	}

	slog.Info("upstream postgres connected", slog.String("addr", config.ConnConfig.Host))
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Query implements Store.
func (s *PostgresStore) Query(ctx context.Context, q QueryDescriptor) ([]Row, error) {
	sql, args, err := buildSelect(q, pgDialect)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres query: %w", err)
	}
	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("postgres collect: %w", err)
	}

	out := make([]Row, len(maps))
	for i, m := range maps {
		for k, v := range m {
			m[k] = pgValue(v)
		}
		out[i] = Row(m)
	}
	return out, nil
}

// pgValue makes driver values JSON-friendly; uuid columns arrive as raw bytes.
func pgValue(v any) any {
	if b, ok := v.([16]byte); ok {
		return fmt.Sprintf("%x-%x-%x-%x-%x", b[0:4], b[4:6], b[6:8], b[8:10], b[10:16])
	}
	return v
}
