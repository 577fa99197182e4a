package engine

import (
	"strings"
	"testing"
)

func TestIncrTier(t *testing.T) {
	before := GetMetrics()
	for _, tier := range []string{"memory", "db", "stale-mem-cache", "disk-cache", "db-empty", "unknown"} {
		IncrTier(tier)
	}
	after := GetMetrics()
	for _, key := range []string{"tier_memory", "tier_db", "tier_stale_mem_cache", "tier_disk_cache", "tier_db_empty"} {
		if got := after[key] - before[key]; got != 1 {
			t.Errorf("%s delta = %d, want 1", key, got)
		}
	}
}

func TestFormatMetrics(t *testing.T) {
	out := FormatMetrics()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(GetMetrics()) {
		t.Errorf("got %d lines, want %d", len(lines), len(GetMetrics()))
	}
	if !strings.HasPrefix(out, "feed_requests ") {
		t.Errorf("unexpected first line: %q", lines[0])
	}
}
