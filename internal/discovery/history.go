package discovery

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	pkgredis "github.com/BotCoder254/story-discovery/pkg/redis"
)

const historyKey = "discovery:history"

// History is the bounded recent-search list: most-recent-first,
// deduplicated, capped at max entries. The in-memory copy is authoritative;
// when a Redis client is attached the list is mirrored there so it survives
// restarts, and loaded back on startup. Cleared only via Clear.
type History struct {
	mu      sync.Mutex
	entries []string
	max     int

	redis  *pkgredis.Client
	logger *slog.Logger
}

// NewHistory creates a History capped at max entries. rdb may be nil for
// in-memory-only operation.
func NewHistory(max int, rdb *pkgredis.Client) *History {
	if max <= 0 {
		max = 20
	}
	return &History{
		entries: make([]string, 0, max),
		max:     max,
		redis:   rdb,
		logger:  slog.Default().With("component", "search-history"),
	}
}

// Load restores persisted history. Safe to call when Redis is absent.
func (h *History) Load(ctx context.Context) {
	if h.redis == nil {
		return
	}
	entries, err := h.redis.ListAll(ctx, historyKey)
	if err != nil {
		h.logger.Warn("loading search history failed", "error", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(entries) > h.max {
		entries = entries[:h.max]
	}
	h.entries = entries
}

// Record adds a query to the front of the history, deduplicating and
// trimming to the cap. Blank queries are ignored.
func (h *History) Record(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	if query == "" {
		return
	}

	h.mu.Lock()
	kept := make([]string, 0, len(h.entries)+1)
	kept = append(kept, query)
	for _, e := range h.entries {
		if e != query {
			kept = append(kept, e)
		}
	}
	if len(kept) > h.max {
		kept = kept[:h.max]
	}
	h.entries = kept
	h.mu.Unlock()

	if h.redis != nil {
		if err := h.redis.PushBounded(ctx, historyKey, query, h.max); err != nil {
			h.logger.Warn("persisting search history failed", "error", err)
		}
	}
}

// Recent returns a copy of the history, most recent first.
func (h *History) Recent() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

// Clear empties the history, including the persisted copy.
func (h *History) Clear(ctx context.Context) {
	h.mu.Lock()
	h.entries = h.entries[:0]
	h.mu.Unlock()

	if h.redis != nil {
		if err := h.redis.Del(ctx, historyKey); err != nil {
			h.logger.Warn("clearing persisted history failed", "error", err)
		}
	}
}
