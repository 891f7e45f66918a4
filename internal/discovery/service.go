package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/BotCoder254/story-discovery/internal/analytics"
	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/geo"
	"github.com/BotCoder254/story-discovery/internal/index"
	"github.com/BotCoder254/story-discovery/pkg/config"
	"github.com/BotCoder254/story-discovery/pkg/metrics"
	"github.com/BotCoder254/story-discovery/pkg/middleware"
	"github.com/BotCoder254/story-discovery/pkg/tracing"
	"golang.org/x/sync/errgroup"
)

// Service is the discovery orchestrator. All state it owns (index snapshot,
// corpus cache, search history) is instance state, injected at construction;
// tests build a fresh Service per case.
type Service struct {
	store      content.Store
	corpus     *content.Cache
	index      *index.Inverted
	history    *History
	respCache  *ResponseCache       // optional
	collector  *analytics.Collector // optional
	metrics    *metrics.Metrics     // optional
	strategies []strategy
	weights    []float64
	cfg        config.DiscoveryConfig
	geoCfg     config.GeoConfig
	logger     *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures optional Service collaborators.
type Option func(*Service)

// WithResponseCache attaches a Redis-backed response cache.
func WithResponseCache(rc *ResponseCache) Option {
	return func(s *Service) { s.respCache = rc }
}

// WithCollector attaches an analytics collector.
func WithCollector(c *analytics.Collector) Option {
	return func(s *Service) { s.collector = c }
}

// WithMetrics attaches Prometheus collectors.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRandSource replaces the shuffle source, making Discover deterministic
// in tests.
func WithRandSource(src rand.Source) Option {
	return func(s *Service) { s.rng = rand.New(src) }
}

// New creates a Service over the given store and history.
func New(store content.Store, history *History, cfg config.DiscoveryConfig, geoCfg config.GeoConfig, opts ...Option) *Service {
	s := &Service{
		store:   store,
		corpus:  content.NewCache(store, cfg.StorePageSize, cfg.CorpusTTL, cfg.StrategyTimeout),
		index:   index.New(),
		history: history,
		weights: []float64{cfg.PrefixWeight, cfg.TokenWeight, cfg.TagWeight},
		cfg:     cfg,
		geoCfg:  geoCfg,
		logger:  slog.Default().With("component", "discovery"),
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	s.strategies = []strategy{
		&prefixFieldStrategy{store: store},
		&tokenIndexStrategy{index: s.index},
		&tagStrategy{corpus: s.corpus},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RebuildIndex fetches a corpus snapshot and publishes a fresh index build.
// On fetch failure the previous index stays in service; the error reports
// the degradation.
func (s *Service) RebuildIndex(ctx context.Context) error {
	start := time.Now()
	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		s.observeRebuild("error", start)
		return fmt.Errorf("rebuilding index: %w", err)
	}
	s.index.Build(items)
	if degraded {
		s.observeRebuild("degraded", start)
	} else {
		s.observeRebuild("ok", start)
	}
	if s.metrics != nil {
		s.metrics.IndexedItems.Set(float64(s.index.DocCount()))
	}
	return nil
}

func (s *Service) observeRebuild(status string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.IndexRebuildsTotal.WithLabelValues(status).Inc()
	s.metrics.IndexBuildDuration.Observe(time.Since(start).Seconds())
}

// StartRebuildLoop rebuilds the index periodically until ctx is cancelled.
func (s *Service) StartRebuildLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RebuildInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				s.logger.Info("index rebuild loop stopping")
				return
			case <-ticker.C:
				if err := s.RebuildIndex(ctx); err != nil {
					s.logger.Error("periodic index rebuild failed", "error", err)
				}
			}
		}
	}()
}

// Search runs the full retrieval pipeline: a blank query with no filters
// takes the browse path; a blank query with filters takes the filter-only
// path; anything else fans out the three retrieval strategies, fuses and
// filters the union, sorts, and paginates. Non-blank queries are recorded
// into the search history.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	start := time.Now()
	opts.normalize(s.cfg)

	ctx, span := tracing.StartSpan(ctx, "discovery.search", middleware.GetRequestID(ctx))
	defer func() {
		span.End()
		// only slow searches earn a span dump in the logs
		if span.Duration > time.Second {
			span.Log()
		}
	}()

	blank := strings.TrimSpace(query) == ""
	span.SetAttr("blank", blank)

	var resp *SearchResponse
	var err error
	cacheHit := false

	if blank {
		resp, err = s.browse(ctx, opts)
	} else if s.respCache != nil {
		key := searchCacheKey(query, opts)
		resp, cacheHit, err = s.respCache.GetOrCompute(ctx, key, func() (*SearchResponse, error) {
			return s.searchFused(ctx, query, opts)
		})
	} else {
		resp, err = s.searchFused(ctx, query, opts)
	}
	if err != nil {
		s.observeOp(analytics.OpSearch, "error", start)
		return nil, err
	}

	if !blank {
		s.history.Record(ctx, query)
	}

	resp.SearchTimeMs = time.Since(start).Milliseconds()
	span.SetAttr("results", len(resp.Items))
	span.SetAttr("cache_hit", cacheHit)
	s.trackSearch(ctx, query, resp, cacheHit, start)
	return resp, nil
}

// browse serves blank-query requests: the whole non-draft corpus, filtered,
// sorted, paginated. No strategies and no history entry.
func (s *Service) browse(ctx context.Context, opts SearchOptions) (*SearchResponse, error) {
	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]content.SearchResult, 0, len(items))
	for i := range items {
		if items[i].IsDraft || !opts.Filters.Match(&items[i]) {
			continue
		}
		results = append(results, content.SearchResult{Item: items[i]})
	}
	mode := opts.Sort
	if mode == SortRelevance {
		// relevance is meaningless without a query
		mode = SortNewest
	}
	sortResults(results, mode)
	total := len(results)
	page, hasMore := paginate(results, opts.Offset, opts.Limit)
	return &SearchResponse{Items: page, Total: total, HasMore: hasMore, Degraded: degraded}, nil
}

// searchFused fans out the retrieval strategies, joins their results, and
// fuses them into one ranking.
func (s *Service) searchFused(ctx context.Context, query string, opts SearchOptions) (*SearchResponse, error) {
	if !s.index.Ready() {
		if err := s.RebuildIndex(ctx); err != nil {
			s.logger.Warn("index build on demand failed", "error", err)
		}
	}

	results := make([]strategyResult, len(s.strategies))
	g, gctx := errgroup.WithContext(ctx)
	for k, strat := range s.strategies {
		g.Go(func() error {
			sctx, span := tracing.StartChildSpan(gctx, "strategy."+strat.Name())
			defer span.End()
			if s.cfg.StrategyTimeout > 0 {
				var cancel context.CancelFunc
				sctx, cancel = context.WithTimeout(sctx, s.cfg.StrategyTimeout)
				defer cancel()
			}
			scores, err := strat.Search(sctx, query)
			span.SetAttr("hits", len(scores))
			results[k] = strategyResult{name: strat.Name(), scores: scores, err: err}
			// strategy failures degrade to empty, never abort the call
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, res := range results {
		if res.err != nil {
			failed++
			s.logger.Warn("retrieval strategy degraded to empty",
				"strategy", res.name,
				"error", res.err,
			)
			if s.metrics != nil {
				s.metrics.StrategyFailures.WithLabelValues(res.name).Inc()
			}
		}
	}
	if failed == len(results) {
		// total failure: serve an empty, degraded response rather than an
		// error; the caller is expected to offer a retry affordance
		return &SearchResponse{Items: []content.SearchResult{}, Degraded: true}, nil
	}

	items, corpusDegraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]*content.Item, len(items))
	for i := range items {
		byID[items[i].ID] = &items[i]
	}

	fused := fuse(results, s.weights)
	ranked := rank(fused, byID, opts.Filters, opts.Sort)
	if s.metrics != nil {
		s.metrics.FusionWorkingSet.Observe(float64(len(ranked)))
	}

	total := len(ranked)
	page, hasMore := paginate(ranked, opts.Offset, opts.Limit)
	return &SearchResponse{
		Items:    page,
		Total:    total,
		HasMore:  hasMore,
		Degraded: corpusDegraded,
	}, nil
}

// Nearby returns non-draft located items within radiusKm of center, sorted
// by ascending distance. Invalid input (negative radius, out-of-range
// coordinates) yields an empty result, not an error. A zero radius admits
// only exact-coincident points.
func (s *Service) Nearby(ctx context.Context, center geo.Point, radiusKm float64, limit int) ([]content.SearchResult, error) {
	start := time.Now()
	if radiusKm < 0 || !geo.ValidCoordinates(center.Lat, center.Lng) {
		s.observeOp(analytics.OpNearby, "zero_result", start)
		return []content.SearchResult{}, nil
	}
	if radiusKm > s.geoCfg.MaxRadiusKm {
		radiusKm = s.geoCfg.MaxRadiusKm
	}
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}

	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		s.observeOp(analytics.OpNearby, "error", start)
		return nil, err
	}

	bounds := geo.QueryBounds(center, radiusKm, geo.PrecisionForRadius(radiusKm))

	// candidate fetch per bound pair, unioned and deduped
	candidates := make(map[string]*content.Item)
	for i := range items {
		if items[i].IsDraft || items[i].Geohash == "" {
			continue
		}
		for _, b := range bounds {
			if b.Contains(items[i].Geohash) {
				candidates[items[i].ID] = &items[i]
				break
			}
		}
	}
	if s.metrics != nil {
		s.metrics.NearbyCandidates.Observe(float64(len(candidates)))
	}

	results := make([]content.SearchResult, 0, len(candidates))
	for _, it := range candidates {
		d := geo.HaversineKm(center, geo.Point{Lat: it.Location.Lat, Lng: it.Location.Lng})
		if d > radiusKm {
			continue
		}
		dist := d
		results = append(results, content.SearchResult{Item: *it, DistanceKm: &dist})
	}
	sort.Slice(results, func(i, j int) bool {
		if *results[i].DistanceKm != *results[j].DistanceKm {
			return *results[i].DistanceKm < *results[j].DistanceKm
		}
		return results[i].Item.ID < results[j].Item.ID
	})
	if len(results) > limit {
		results = results[:limit]
	}

	status := "ok"
	if degraded {
		status = "degraded"
	} else if len(results) == 0 {
		status = "zero_result"
	}
	s.observeOp(analytics.OpNearby, status, start)
	s.track(analytics.Event{
		Operation:   analytics.OpNearby,
		ResultCount: len(results),
		LatencyMs:   time.Since(start).Milliseconds(),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	})
	return results, nil
}

// Trending scores items created within the timeframe by time-decayed
// engagement and returns the top limit items. When the window contains
// nothing scoreable it falls back to a plain newest-first listing at the
// same limit rather than returning empty.
func (s *Service) Trending(ctx context.Context, tf Timeframe, limit int) ([]content.Item, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}

	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		s.observeOp(analytics.OpTrending, "error", start)
		return nil, err
	}

	now := time.Now()
	cutoff := now.Add(-tf.Duration())
	scored := make([]scoredItem, 0, len(items))
	for i := range items {
		if items[i].IsDraft || items[i].CreatedAt.Before(cutoff) {
			continue
		}
		scored = append(scored, scoredItem{item: &items[i], score: trendingScore(&items[i], now)})
	}

	var out []content.Item
	if len(scored) == 0 {
		out = s.newestFirst(items, limit)
		if s.metrics != nil {
			s.metrics.TrendingFallbacks.Inc()
		}
	} else {
		top := topK(scored, limit)
		out = make([]content.Item, 0, len(top))
		for _, si := range top {
			out = append(out, *si.item)
		}
	}

	status := "ok"
	if degraded {
		status = "degraded"
	}
	s.observeOp(analytics.OpTrending, status, start)
	s.track(analytics.Event{
		Operation:   analytics.OpTrending,
		ResultCount: len(out),
		LatencyMs:   time.Since(start).Milliseconds(),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	})
	return out, nil
}

// newestFirst is the trending fallback listing.
func (s *Service) newestFirst(items []content.Item, limit int) []content.Item {
	pool := make([]content.Item, 0, len(items))
	for i := range items {
		if !items[i].IsDraft {
			pool = append(pool, items[i])
		}
	}
	sort.Slice(pool, func(i, j int) bool {
		if !pool[i].CreatedAt.Equal(pool[j].CreatedAt) {
			return pool[i].CreatedAt.After(pool[j].CreatedAt)
		}
		return pool[i].ID < pool[j].ID
	})
	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool
}

// tagBias is added to an item's engagement score per matched preference
// tag, so tag matches dominate raw engagement in the Discover pool.
const tagBias = 1000.0

// Discover builds a personalized feed for userID: the requester's own items
// are always excluded, preference tags bias the ranking, and the final page
// is a shuffle of a top-engagement pool so repeated calls do not pin the
// same items.
func (s *Service) Discover(ctx context.Context, userID string, prefs DiscoverPreferences, limit int) ([]content.Item, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
	}

	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		s.observeOp(analytics.OpDiscover, "error", start)
		return nil, err
	}

	scored := make([]scoredItem, 0, len(items))
	for i := range items {
		if items[i].IsDraft || items[i].AuthorID == userID {
			continue
		}
		score := engagementScore(items[i].Engagement)
		for _, tag := range prefs.Tags {
			if items[i].HasTag(tag) {
				// tag preference outweighs raw engagement
				score += tagBias
			}
		}
		scored = append(scored, scoredItem{item: &items[i], score: score})
	}

	poolSize := s.cfg.DiscoverPool
	if poolSize < limit {
		poolSize = limit
	}
	pool := topK(scored, poolSize)

	s.rngMu.Lock()
	s.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	s.rngMu.Unlock()

	if len(pool) > limit {
		pool = pool[:limit]
	}
	out := make([]content.Item, 0, len(pool))
	for _, si := range pool {
		out = append(out, *si.item)
	}

	status := "ok"
	if degraded {
		status = "degraded"
	}
	s.observeOp(analytics.OpDiscover, status, start)
	s.track(analytics.Event{
		Operation:   analytics.OpDiscover,
		ResultCount: len(out),
		LatencyMs:   time.Since(start).Milliseconds(),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	})
	return out, nil
}

// ClusterPoints groups map points for rendering; see geo.ClusterPoints for
// the seeding semantics. A negative radius yields no clusters; a zero
// radius groups only exact-coincident points.
func (s *Service) ClusterPoints(points []geo.Point, radiusKm float64) []geo.Cluster {
	return geo.ClusterPoints(points, radiusKm)
}

// DefaultRadiusKm is the nearby-search radius used when a request omits one.
func (s *Service) DefaultRadiusKm() float64 {
	return s.geoCfg.DefaultRadiusKm
}

// DefaultClusterRadiusKm is the grouping radius used when a cluster request
// omits one.
func (s *Service) DefaultClusterRadiusKm() float64 {
	return s.geoCfg.ClusterRadiusKm
}

// RecentSearches returns the search history, most recent first.
func (s *Service) RecentSearches() []string {
	return s.history.Recent()
}

// ClearHistory empties the search history.
func (s *Service) ClearHistory(ctx context.Context) {
	s.history.Clear(ctx)
}

// Corpus exposes the corpus cache for health checks and handlers.
func (s *Service) Corpus() *content.Cache {
	return s.corpus
}

// Index exposes the inverted index for health checks.
func (s *Service) Index() *index.Inverted {
	return s.index
}

// ResponseCache returns the attached response cache, or nil.
func (s *Service) ResponseCache() *ResponseCache {
	return s.respCache
}

func (s *Service) trackSearch(ctx context.Context, query string, resp *SearchResponse, cacheHit bool, start time.Time) {
	status := "ok"
	switch {
	case resp.Degraded:
		status = "degraded"
	case resp.Total == 0:
		status = "zero_result"
	}
	s.observeOp(analytics.OpSearch, status, start)
	if cacheHit && s.metrics != nil {
		s.metrics.CacheHitsTotal.Inc()
	} else if s.respCache != nil && s.metrics != nil {
		s.metrics.CacheMissesTotal.Inc()
	}
	s.track(analytics.Event{
		Operation:   analytics.OpSearch,
		Query:       query,
		ResultCount: len(resp.Items),
		Total:       resp.Total,
		LatencyMs:   time.Since(start).Milliseconds(),
		CacheHit:    cacheHit,
		Degraded:    resp.Degraded,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	})
}

func (s *Service) observeOp(op analytics.Operation, result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.DiscoveryOpsTotal.WithLabelValues(string(op), result).Inc()
	s.metrics.DiscoveryLatency.WithLabelValues(string(op)).Observe(time.Since(start).Seconds())
}

func (s *Service) track(ev analytics.Event) {
	if s.collector != nil {
		s.collector.Track(ev)
	}
}
