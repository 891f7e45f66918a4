// Package router wires up all discovery API routes and applies the
// middleware chain (RequestID → CORS → Metrics → RateLimit → Timeout).
package router

import (
	"net/http"
	"time"

	"github.com/BotCoder254/story-discovery/internal/discovery/handler"
	"github.com/BotCoder254/story-discovery/internal/ratelimit"
	"github.com/BotCoder254/story-discovery/pkg/metrics"
	"github.com/BotCoder254/story-discovery/pkg/middleware"
)

// Config tunes the router's middleware chain.
type Config struct {
	RateLimitPerMin int
	RequestTimeout  time.Duration
}

// New builds the full discovery HTTP handler with all routes and middleware.
//
// Route table:
//
//	GET    /api/v1/search              → text search / browse
//	GET    /api/v1/nearby              → geospatial radius search
//	GET    /api/v1/trending            → time-decayed trending
//	GET    /api/v1/discover            → personalized feed
//	GET    /api/v1/suggestions         → typeahead suggestions
//	POST   /api/v1/clusters            → map point clustering
//	GET    /api/v1/history             → recent searches
//	DELETE /api/v1/history             → clear history
//	GET    /api/v1/analytics           → usage statistics
//	GET    /api/v1/cache/stats         → response cache counters
//	POST   /api/v1/cache/invalidate    → flush response cache
//	GET    /health                     → liveness
//
// m and limiter may be nil to skip the corresponding middleware.
func New(h *handler.Handler, m *metrics.Metrics, limiter *ratelimit.Limiter, cfg Config) http.Handler {
	mux := http.NewServeMux()

	// Health (never rate limited)
	mux.HandleFunc("GET /health", h.Health)

	// Discovery API
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/nearby", h.Nearby)
	mux.HandleFunc("GET /api/v1/trending", h.Trending)
	mux.HandleFunc("GET /api/v1/discover", h.Discover)
	mux.HandleFunc("GET /api/v1/suggestions", h.Suggestions)
	mux.HandleFunc("POST /api/v1/clusters", h.ClusterPoints)

	// History API
	mux.HandleFunc("GET /api/v1/history", h.History)
	mux.HandleFunc("DELETE /api/v1/history", h.ClearHistory)

	// Operational API
	mux.HandleFunc("GET /api/v1/analytics", h.Analytics)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)

	// Middleware chain — applied inside-out:
	// request → RequestID → CORS → Metrics → RateLimit → Timeout → mux
	var chain http.Handler = mux
	if cfg.RequestTimeout > 0 {
		chain = middleware.Timeout(cfg.RequestTimeout)(chain)
	}
	if limiter != nil && cfg.RateLimitPerMin > 0 {
		chain = middleware.RateLimit(limiter, cfg.RateLimitPerMin)(chain)
	}
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.CORS(middleware.DefaultCORSConfig())(chain)
	chain = middleware.RequestID(chain)

	return chain
}
