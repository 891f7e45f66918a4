package content

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BotCoder254/story-discovery/internal/geo"
	"github.com/BotCoder254/story-discovery/pkg/resilience"
)

// Cache holds a TTL-bounded snapshot of the full corpus. Refreshes go
// through a circuit breaker with retry; when a refresh fails the previous
// snapshot stays in service and callers see a degraded flag instead of an
// error (stale-but-available).
type Cache struct {
	store    Store
	pageSize int
	ttl      time.Duration
	timeout  time.Duration

	mu        sync.RWMutex
	snapshot  []Item
	fetchedAt time.Time

	breaker *resilience.CircuitBreaker
	logger  *slog.Logger
}

// NewCache creates a corpus cache over store.
func NewCache(store Store, pageSize int, ttl, timeout time.Duration) *Cache {
	return &Cache{
		store:    store,
		pageSize: pageSize,
		ttl:      ttl,
		timeout:  timeout,
		breaker:  resilience.NewCircuitBreaker("corpus-fetch", resilience.CircuitBreakerConfig{}),
		logger:   slog.Default().With("component", "corpus-cache"),
	}
}

// Snapshot returns the current corpus, refreshing it first when the TTL has
// lapsed. The bool result is the degraded flag: true when a refresh failed
// and a stale snapshot is being served. An error is returned only when no
// snapshot has ever been fetched and the store is unreachable.
func (c *Cache) Snapshot(ctx context.Context) ([]Item, bool, error) {
	c.mu.RLock()
	fresh := c.snapshot != nil && time.Since(c.fetchedAt) < c.ttl
	items := c.snapshot
	c.mu.RUnlock()

	if fresh {
		return items, false, nil
	}

	if err := c.Refresh(ctx); err != nil {
		c.mu.RLock()
		stale := c.snapshot
		c.mu.RUnlock()
		if stale != nil {
			c.logger.Warn("corpus refresh failed, serving stale snapshot",
				"age", time.Since(c.fetchedAt),
				"error", err,
			)
			return stale, true, nil
		}
		return nil, false, fmt.Errorf("fetching corpus: %w", err)
	}

	c.mu.RLock()
	items = c.snapshot
	c.mu.RUnlock()
	return items, false, nil
}

// Refresh fetches the corpus unconditionally and publishes a new snapshot.
// Geohashes are computed here: the snapshot is a derived artifact, the
// store's items are never mutated.
func (c *Cache) Refresh(ctx context.Context) error {
	var fetched []Item
	err := c.breaker.Execute(func() error {
		return resilience.WithTimeout(ctx, c.timeout, "corpus-fetch", func(ctx context.Context) error {
			return resilience.Retry(ctx, "corpus-fetch", resilience.RetryConfig{MaxAttempts: 2}, func() error {
				items, err := c.store.GetAllItems(ctx, c.pageSize)
				if err != nil {
					return err
				}
				fetched = items
				return nil
			})
		})
	})
	if err != nil {
		return err
	}

	for i := range fetched {
		if fetched[i].HasLocation() {
			fetched[i].Geohash = geo.Encode(fetched[i].Location.Lat, fetched[i].Location.Lng, geo.MaxPrecision)
		} else {
			fetched[i].Geohash = ""
		}
	}

	c.mu.Lock()
	c.snapshot = fetched
	c.fetchedAt = time.Now()
	c.mu.Unlock()

	c.logger.Debug("corpus snapshot refreshed", "items", len(fetched))
	return nil
}

// Invalidate drops the snapshot so the next Snapshot call refetches.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.fetchedAt = time.Time{}
	c.mu.Unlock()
}

// Age returns how old the current snapshot is, or zero when none exists.
func (c *Cache) Age() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.snapshot == nil {
		return 0
	}
	return time.Since(c.fetchedAt)
}
