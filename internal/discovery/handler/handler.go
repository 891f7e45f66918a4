// Package handler implements the discovery API's HTTP endpoints: search,
// nearby, trending, discover, suggestions, map clustering, search history,
// and operational endpoints (analytics, cache).
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/BotCoder254/story-discovery/internal/analytics"
	"github.com/BotCoder254/story-discovery/internal/discovery"
	"github.com/BotCoder254/story-discovery/internal/geo"
	apperrors "github.com/BotCoder254/story-discovery/pkg/errors"
	"github.com/BotCoder254/story-discovery/pkg/logger"
)

// maxClusterPoints bounds the POST /clusters payload.
const maxClusterPoints = 10000

type Handler struct {
	svc        *discovery.Service
	aggregator *analytics.Aggregator // optional
	logger     *slog.Logger
}

// New creates a Handler over the discovery service. aggregator may be nil
// when analytics consumption is disabled.
func New(svc *discovery.Service, aggregator *analytics.Aggregator) *Handler {
	return &Handler{
		svc:        svc,
		aggregator: aggregator,
		logger:     slog.Default().With("component", "discovery-handler"),
	}
}

// Search handles GET /api/v1/search. A blank q browses the corpus with the
// remaining parameters applied.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)
	q := r.URL.Query()

	sortMode, err := discovery.ParseSortMode(q.Get("sort"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	filters, err := parseFilters(q)
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	opts := discovery.SearchOptions{
		Filters: filters,
		Sort:    sortMode,
		Limit:   intParam(q.Get("limit"), 0),
		Offset:  intParam(q.Get("offset"), 0),
	}

	query := q.Get("q")
	resp, err := h.svc.Search(ctx, query, opts)
	if err != nil {
		log.Error("search failed", "query", query, "error", err)
		h.writeAppError(w, err)
		return
	}

	log.Info("search completed",
		"query", query,
		"total", resp.Total,
		"returned", len(resp.Items),
		"degraded", resp.Degraded,
		"latency_ms", resp.SearchTimeMs,
	)
	h.writeJSON(w, http.StatusOK, resp)
}

// Nearby handles GET /api/v1/nearby?lat=&lng=&radius_km=&limit=.
func (h *Handler) Nearby(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("lat"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "lat must be a number")
		return
	}
	lng, err := strconv.ParseFloat(q.Get("lng"), 64)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "lng must be a number")
		return
	}
	radiusKm := floatParam(q.Get("radius_km"), h.svc.DefaultRadiusKm())
	limit := intParam(q.Get("limit"), 0)

	results, err := h.svc.Nearby(ctx, geo.Point{Lat: lat, Lng: lng}, radiusKm, limit)
	if err != nil {
		logger.FromContext(ctx).Error("nearby failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": results,
		"count": len(results),
	})
}

// Trending handles GET /api/v1/trending?timeframe=&limit=.
func (h *Handler) Trending(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	tf, err := discovery.ParseTimeframe(q.Get("timeframe"))
	if err != nil {
		h.writeAppError(w, err)
		return
	}
	items, err := h.svc.Trending(ctx, tf, intParam(q.Get("limit"), 0))
	if err != nil {
		logger.FromContext(ctx).Error("trending failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items":     items,
		"count":     len(items),
		"timeframe": tf,
	})
}

// Discover handles GET /api/v1/discover?user_id=&tags=&limit=. tags is a
// comma-separated list of preference tags.
func (h *Handler) Discover(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	prefs := discovery.DiscoverPreferences{Tags: splitParam(q.Get("tags"))}
	items, err := h.svc.Discover(ctx, q.Get("user_id"), prefs, intParam(q.Get("limit"), 0))
	if err != nil {
		logger.FromContext(ctx).Error("discover failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}

// Suggestions handles GET /api/v1/suggestions?prefix=&limit=. The q
// parameter is accepted as an alias for prefix.
func (h *Handler) Suggestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	prefix := q.Get("prefix")
	if prefix == "" {
		prefix = q.Get("q")
	}
	out, err := h.svc.Suggestions(ctx, prefix, intParam(q.Get("limit"), 0))
	if err != nil {
		logger.FromContext(ctx).Error("suggestions failed", "error", err)
		h.writeAppError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"suggestions": out,
		"count":       len(out),
	})
}

// ClusterPoints handles POST /api/v1/clusters with a JSON body of raw map
// points and a grouping radius. An omitted radius_km falls back to the
// configured cluster radius; an explicit 0 groups only coincident points.
func (h *Handler) ClusterPoints(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Points   []geo.Point `json:"points"`
		RadiusKm *float64    `json:"radius_km"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Points) > maxClusterPoints {
		h.writeError(w, http.StatusBadRequest, "too many points")
		return
	}
	radiusKm := h.svc.DefaultClusterRadiusKm()
	if req.RadiusKm != nil {
		radiusKm = *req.RadiusKm
	}

	clusters := h.svc.ClusterPoints(req.Points, radiusKm)
	if clusters == nil {
		clusters = []geo.Cluster{}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"clusters": clusters,
		"count":    len(clusters),
	})
}

// History handles GET /api/v1/history.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	entries := h.svc.RecentSearches()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"searches": entries,
		"count":    len(entries),
	})
}

// ClearHistory handles DELETE /api/v1/history.
func (h *Handler) ClearHistory(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearHistory(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// Analytics handles GET /api/v1/analytics?top=.
func (h *Handler) Analytics(w http.ResponseWriter, r *http.Request) {
	if h.aggregator == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	topN := intParam(r.URL.Query().Get("top"), 10)
	h.writeJSON(w, http.StatusOK, h.aggregator.Stats(topN))
}

// CacheStats handles GET /api/v1/cache/stats.
func (h *Handler) CacheStats(w http.ResponseWriter, r *http.Request) {
	cache := h.svc.ResponseCache()
	if cache == nil {
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "disabled"})
		return
	}
	hits, misses := cache.Stats()
	total := hits + misses
	var hitRate float64
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"hits":     hits,
		"misses":   misses,
		"total":    total,
		"hit_rate": strconv.FormatFloat(hitRate, 'f', 1, 64) + "%",
	})
}

// CacheInvalidate handles POST /api/v1/cache/invalidate.
func (h *Handler) CacheInvalidate(w http.ResponseWriter, r *http.Request) {
	cache := h.svc.ResponseCache()
	if cache == nil {
		h.writeError(w, http.StatusServiceUnavailable, "caching is disabled")
		return
	}
	if err := cache.Invalidate(r.Context()); err != nil {
		h.logger.Error("cache invalidation failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "cache invalidation failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "invalidated"})
}

// Health returns the service's liveness status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"status":        "ok",
		"service":       "discovery",
		"index_ready":   h.svc.Index().Ready(),
		"indexed_items": h.svc.Index().DocCount(),
	})
}

// ---------- Parameter helpers ----------

func parseFilters(q map[string][]string) (discovery.Filters, error) {
	get := func(key string) string {
		if vs := q[key]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}

	var f discovery.Filters
	if v := get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, apperrors.Newf(apperrors.ErrInvalidQuery, 400, "from must be RFC3339, got %q", v)
		}
		f.From = &t
	}
	if v := get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, apperrors.Newf(apperrors.ErrInvalidQuery, 400, "to must be RFC3339, got %q", v)
		}
		f.To = &t
	}
	f.TripType = get("trip_type")
	f.Mood = get("mood")
	f.Privacy = get("privacy")
	return f, nil
}

func intParam(v string, fallback int) int {
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func floatParam(v string, fallback float64) float64 {
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ---------- Response helpers ----------

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to write response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	h.writeError(w, apperrors.HTTPStatusCode(err), err.Error())
}
