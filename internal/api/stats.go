package api

import (
	"net/http"
	"strconv"
	"time"

	"depictsgo/pkg/store"
	"depictsgo/pkg/tracker"
)

// StatsHandler exposes the per-provider counters and the query log.
type StatsHandler struct {
	tracker  *tracker.Tracker
	queryLog store.QueryLogStore
}

// NewStatsHandler creates a StatsHandler. queryLog may be nil.
func NewStatsHandler(t *tracker.Tracker, queryLog store.QueryLogStore) *StatsHandler {
	return &StatsHandler{tracker: t, queryLog: queryLog}
}

type ProviderStatsDTO struct {
	CacheHits     int64 `json:"cache_hits"`
	CacheMisses   int64 `json:"cache_misses"`
	APISuccess    int64 `json:"api_success"`
	APIFailures   int64 `json:"api_errors"`
	QueryTimeouts int64 `json:"query_timeouts"`
	HitRate       int64 `json:"hit_rate"`
}

type StatsResponse struct {
	Providers map[string]ProviderStatsDTO `json:"providers"`
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := StatsResponse{Providers: make(map[string]ProviderStatsDTO)}

	for provider, stats := range h.tracker.Snapshot() {
		totalCache := stats.CacheHits + stats.CacheMisses
		hitRate := int64(0)
		if totalCache > 0 {
			hitRate = (stats.CacheHits * 100) / totalCache
		}
		resp.Providers[provider] = ProviderStatsDTO{
			CacheHits:     stats.CacheHits,
			CacheMisses:   stats.CacheMisses,
			APISuccess:    stats.APISuccess,
			APIFailures:   stats.APIFailures,
			QueryTimeouts: stats.QueryTimeouts,
			HitRate:       hitRate,
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

type QueryRecordDTO struct {
	ID         string    `json:"id"`
	Template   string    `json:"template"`
	QueryHash  string    `json:"query_hash"`
	StatusCode int       `json:"status_code"`
	RowCount   int       `json:"row_count"`
	Error      string    `json:"error,omitempty"`
	StartTime  time.Time `json:"start_time"`
	DurationMS int64     `json:"duration_ms"`
}

// HandleQueries serves the most recent query log entries.
func (h *StatsHandler) HandleQueries(w http.ResponseWriter, r *http.Request) {
	if h.queryLog == nil {
		writeJSON(w, http.StatusOK, []QueryRecordDTO{})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		limit = n
	}

	records, err := h.queryLog.RecentQueries(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error(), "")
		return
	}

	out := make([]QueryRecordDTO, 0, len(records))
	for _, rec := range records {
		out = append(out, QueryRecordDTO{
			ID:         rec.ID,
			Template:   rec.Template,
			QueryHash:  rec.QueryHash,
			StatusCode: rec.StatusCode,
			RowCount:   rec.RowCount,
			Error:      rec.Error,
			StartTime:  rec.StartTime,
			DurationMS: rec.EndTime.Sub(rec.StartTime).Milliseconds(),
		})
	}
	writeJSON(w, http.StatusOK, out)
}
