package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/BotCoder254/story-discovery/pkg/kafka"
)

const maxTrackedLatencies = 10000

// AggregatedStats is a point-in-time view of discovery usage.
type AggregatedStats struct {
	TotalOperations int64               `json:"total_operations"`
	ByOperation     map[Operation]int64 `json:"by_operation"`
	ZeroResultCount int64               `json:"zero_result_count"`
	DegradedCount   int64               `json:"degraded_count"`
	CacheHits       int64               `json:"cache_hits"`
	AvgLatencyMs    float64             `json:"avg_latency_ms"`
	P50LatencyMs    int64               `json:"p50_latency_ms"`
	P95LatencyMs    int64               `json:"p95_latency_ms"`
	P99LatencyMs    int64               `json:"p99_latency_ms"`
	TopQueries      []QueryCount        `json:"top_queries"`
	ZeroResultTop   []QueryCount        `json:"zero_result_queries"`
	OpsPerMinute    float64             `json:"ops_per_minute"`
}

// QueryCount pairs a query string with how often it was seen.
type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator consumes discovery events and maintains running statistics.
type Aggregator struct {
	mu            sync.RWMutex
	total         int64
	byOperation   map[Operation]int64
	zeroResults   int64
	degraded      int64
	cacheHits     int64
	latencies     []int64
	queryCounts   map[string]int64
	zeroResultMap map[string]int64
	startTime     time.Time

	logger *slog.Logger
}

// NewAggregator creates an empty Aggregator. Feed it via Start with a Kafka
// consumer, or directly via Record (tests, single-process mode).
func NewAggregator() *Aggregator {
	return &Aggregator{
		byOperation:   make(map[Operation]int64),
		latencies:     make([]int64, 0, maxTrackedLatencies),
		queryCounts:   make(map[string]int64),
		zeroResultMap: make(map[string]int64),
		startTime:     time.Now(),
		logger:        slog.Default().With("component", "analytics-aggregator"),
	}
}

// Start enters consumer's consume loop until ctx is cancelled.
func (a *Aggregator) Start(ctx context.Context, consumer *kafka.Consumer) error {
	a.logger.Info("analytics aggregator starting")
	return consumer.Start(ctx)
}

// HandleEvent returns the Kafka message handler feeding agg.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		ev, err := kafka.DecodeJSON[Event](value)
		if err != nil {
			agg.logger.Error("failed to decode analytics event", "error", err)
			return nil
		}
		agg.Record(ev)
		return nil
	}
}

// Record folds one event into the running statistics.
func (a *Aggregator) Record(ev Event) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.total++
	a.byOperation[ev.Operation]++
	if ev.Degraded {
		a.degraded++
	}
	if ev.CacheHit {
		a.cacheHits++
	}
	if len(a.latencies) < maxTrackedLatencies {
		a.latencies = append(a.latencies, ev.LatencyMs)
	}
	if ev.Query != "" {
		a.queryCounts[ev.Query]++
		if ev.ResultCount == 0 {
			a.zeroResults++
			a.zeroResultMap[ev.Query]++
		}
	} else if ev.ResultCount == 0 {
		a.zeroResults++
	}
}

// Stats returns a snapshot of the aggregated statistics.
func (a *Aggregator) Stats(topN int) AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalOperations: a.total,
		ByOperation:     make(map[Operation]int64, len(a.byOperation)),
		ZeroResultCount: a.zeroResults,
		DegradedCount:   a.degraded,
		CacheHits:       a.cacheHits,
		TopQueries:      topQueries(a.queryCounts, topN),
		ZeroResultTop:   topQueries(a.zeroResultMap, topN),
	}
	for op, n := range a.byOperation {
		stats.ByOperation[op] = n
	}

	if len(a.latencies) > 0 {
		sorted := make([]int64, len(a.latencies))
		copy(sorted, a.latencies)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 0.50)
		stats.P95LatencyMs = percentile(sorted, 0.95)
		stats.P99LatencyMs = percentile(sorted, 0.99)
	}

	if mins := time.Since(a.startTime).Minutes(); mins > 0 {
		stats.OpsPerMinute = float64(a.total) / mins
	}
	return stats
}

func percentile(sorted []int64, p float64) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

func topQueries(counts map[string]int64, n int) []QueryCount {
	if n <= 0 {
		n = 10
	}
	out := make([]QueryCount, 0, len(counts))
	for q, c := range counts {
		out = append(out, QueryCount{Query: q, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Query < out[j].Query
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
