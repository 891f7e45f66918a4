package discovery

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/BotCoder254/story-discovery/pkg/config"
	pkgredis "github.com/BotCoder254/story-discovery/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const cacheKeyPrefix = "discovery:search:"

// ResponseCache caches search responses in Redis, deduplicating concurrent
// identical queries via singleflight. Cache failures are never surfaced:
// a broken cache degrades to computing every response.
type ResponseCache struct {
	client *pkgredis.Client
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// NewResponseCache creates a ResponseCache with the configured TTL.
func NewResponseCache(client *pkgredis.Client, cfg config.RedisConfig) *ResponseCache {
	return &ResponseCache{
		client: client,
		ttl:    cfg.CacheTTL,
		logger: slog.Default().With("component", "response-cache"),
	}
}

// Get returns the cached response for key, if present.
func (c *ResponseCache) Get(ctx context.Context, key string) (*SearchResponse, bool) {
	data, err := c.client.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var resp SearchResponse
	if err := json.Unmarshal([]byte(data), &resp); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	return &resp, true
}

// Set stores a response under key. Degraded responses are not cached so a
// recovered backend is visible immediately.
func (c *ResponseCache) Set(ctx context.Context, key string, resp *SearchResponse) {
	if resp.Degraded {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached response or computes and stores it,
// collapsing concurrent identical lookups into one computation.
func (c *ResponseCache) GetOrCompute(
	ctx context.Context,
	key string,
	computeFn func() (*SearchResponse, error),
) (*SearchResponse, bool, error) {
	if resp, ok := c.Get(ctx, key); ok {
		return resp, true, nil
	}
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		if resp, ok := c.Get(ctx, key); ok {
			return resp, nil
		}
		resp, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, key, resp)
		return resp, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*SearchResponse), false, nil
}

// Invalidate removes every cached search response.
func (c *ResponseCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, cacheKeyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating response cache: %w", err)
	}
	c.logger.Info("response cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns hit/miss counters.
func (c *ResponseCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// searchCacheKey builds a normalized cache key for a query+options pair.
// Term order within the query is not significant for retrieval, so terms
// are sorted before hashing.
func searchCacheKey(query string, opts SearchOptions) string {
	terms := strings.Fields(strings.ToLower(query))
	sort.Strings(terms)
	raw := fmt.Sprintf("%s|sort=%s|limit=%d|offset=%d|f=%s",
		strings.Join(terms, ","), opts.Sort, opts.Limit, opts.Offset, filtersKey(opts.Filters))
	sum := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", cacheKeyPrefix, sum[:16])
}

func filtersKey(f Filters) string {
	var b strings.Builder
	if f.From != nil {
		fmt.Fprintf(&b, "from=%d;", f.From.Unix())
	}
	if f.To != nil {
		fmt.Fprintf(&b, "to=%d;", f.To.Unix())
	}
	fmt.Fprintf(&b, "trip=%s;mood=%s;privacy=%s", f.TripType, f.Mood, f.Privacy)
	return b.String()
}
