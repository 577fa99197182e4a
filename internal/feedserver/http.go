package feedserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/anatolykoptev/go_feed/internal/engine/feed"
)

// TierHeader carries the cache tier that served a feed response.
const TierHeader = "X-Cache-Tier"

// NewRouter returns the HTTP API:
//
//	GET /api/feeds              registered feeds
//	GET /api/feeds/{feed}       ?limit=N&allowEmpty=true|false
//	GET /health
func NewRouter(reg *feed.Registry) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/api/feeds", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, FeedListOutput{Feeds: reg.Infos()})
	})
	r.Get("/api/feeds/{feed}", feedHandler(reg))
	return r
}

func feedHandler(reg *feed.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "feed")
		q := r.URL.Query()
		req := feed.Request{
			Limit:      parseLimit(q.Get("limit")),
			AllowEmpty: parseFlag(q.Get("allowEmpty")),
		}

		resp, err := reg.Resolve(r.Context(), name, req)
		switch {
		case errors.Is(err, feed.ErrUnknownFeed):
			writeError(w, http.StatusNotFound, err)
			return
		case err != nil:
			slog.Error("feedserver: feed request failed",
				slog.String("feed", name),
				slog.String("request_id", middleware.GetReqID(r.Context())),
				slog.Any("error", err))
			writeError(w, http.StatusInternalServerError, err)
			return
		}

		w.Header().Set(TierHeader, string(resp.Tier))
		writeJSON(w, http.StatusOK, resp)
	}
}

// parseLimit returns 0 (feed default) for a missing or malformed value.
func parseLimit(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// parseFlag returns nil when s is absent or not a recognizable boolean.
func parseFlag(s string) *bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		v := true
		return &v
	case "0", "false", "no", "off":
		v := false
		return &v
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("feedserver: write response failed", slog.Int("status", code), slog.Any("error", err))
	}
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
