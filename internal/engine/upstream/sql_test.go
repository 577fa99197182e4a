package upstream

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildSelectPostgres(t *testing.T) {
	q := QueryDescriptor{
		Table:   "public.short_segments",
		Columns: []string{"id", "url"},
		Filters: []Filter{{Field: "published", Value: true}, {Field: "deleted_at"}},
		Order:   []Order{{Field: "sort"}, {Field: "created_at", Descending: true, NullsFirst: true}},
		Limit:   60,
	}
	sql, args, err := buildSelect(q, pgDialect)
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT "id", "url" FROM "public"."short_segments" WHERE "published" = $1 AND "deleted_at" IS NULL ORDER BY "sort" ASC NULLS LAST, "created_at" DESC NULLS FIRST LIMIT 60`,
		sql)
	assert.Equal(t, []any{true}, args)
}

func TestBuildSelectSQLite(t *testing.T) {
	sql, args, err := buildSelect(QueryDescriptor{Table: `we"ird`, Filters: []Filter{{Field: "a", Value: 1}, {Field: "b", Value: "x"}}}, sqliteDialect)
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "we""ird" WHERE "a" = ? AND "b" = ?`, sql)
	assert.Equal(t, []any{1, "x"}, args)
}

func TestBuildSelectRejectsIncomplete(t *testing.T) {
	_, _, err := buildSelect(QueryDescriptor{}, pgDialect)
	assert.Error(t, err)
	_, _, err = buildSelect(QueryDescriptor{Table: "t", Order: []Order{{}}}, pgDialect)
	assert.Error(t, err)
	_, _, err = buildSelect(QueryDescriptor{Table: "t", Filters: []Filter{{Value: 1}}}, pgDialect)
	assert.Error(t, err)
}

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "content.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	// Deployment without the optional published/sort columns.
	_, err = store.DB().Exec(`CREATE TABLE segments (
		id         INTEGER PRIMARY KEY,
		title      TEXT NOT NULL,
		url        TEXT,
		created_at TEXT
	)`)
	require.NoError(t, err)
	_, err = store.DB().Exec(`INSERT INTO segments (id, title, url, created_at) VALUES
		(1, 'old', 'https://youtu.be/aaaaaaaaaaa', '2024-01-01'),
		(2, 'new', 'https://youtu.be/bbbbbbbbbbb', '2024-03-01'),
		(3, 'undated', NULL, NULL)`)
	require.NoError(t, err)
	return store
}

func TestSQLiteFallbackOverMissingColumns(t *testing.T) {
	store := openTestSQLite(t)
	chain := []QueryDescriptor{
		{Name: "published+sort", Table: "segments", Filters: []Filter{{Field: "published", Value: true}}, Order: []Order{{Field: "sort"}}},
		{Name: "sort", Table: "segments", Order: []Order{{Field: "sort"}}},
		{Name: "newest", Table: "segments", Order: []Order{{Field: "created_at", Descending: true}}, Limit: 10},
	}

	res := NewExecutor(store).Execute(context.Background(), chain)

	require.Equal(t, 3, res.Attempts)
	require.Equal(t, 2, res.Winner)
	assert.Len(t, res.Errs, 2)
	require.Len(t, res.Rows, 3)
	assert.Equal(t, "new", res.Rows[0]["title"])
	assert.Equal(t, "old", res.Rows[1]["title"])
	assert.Equal(t, "undated", res.Rows[2]["title"]) // NULLS LAST
	assert.Nil(t, res.Rows[2]["url"])
}

func TestSQLiteFilterAndLimit(t *testing.T) {
	store := openTestSQLite(t)
	rows, err := store.Query(context.Background(), QueryDescriptor{
		Table:   "segments",
		Columns: []string{"id", "title"},
		Filters: []Filter{{Field: "url"}},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "undated", rows[0]["title"])
	assert.NotContains(t, rows[0], "url")

	rows, err = store.Query(context.Background(), QueryDescriptor{Table: "segments", Order: []Order{{Field: "id"}}, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}
