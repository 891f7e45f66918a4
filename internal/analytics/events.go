// Package analytics publishes discovery usage events to Kafka through a
// buffered collector and aggregates them in-process into usage statistics
// (top queries, zero-result queries, latency percentiles).
package analytics

import "time"

// Operation names a discovery engine operation in an event.
type Operation string

const (
	OpSearch      Operation = "search"
	OpNearby      Operation = "nearby"
	OpTrending    Operation = "trending"
	OpDiscover    Operation = "discover"
	OpSuggestions Operation = "suggestions"
	OpCluster     Operation = "cluster"
)

// Event records one discovery operation.
type Event struct {
	Operation   Operation `json:"operation"`
	Query       string    `json:"query,omitempty"`
	ResultCount int       `json:"result_count"`
	Total       int       `json:"total,omitempty"`
	LatencyMs   int64     `json:"latency_ms"`
	CacheHit    bool      `json:"cache_hit,omitempty"`
	Degraded    bool      `json:"degraded,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
	RequestID   string    `json:"request_id,omitempty"`
}
