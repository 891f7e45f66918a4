// Package index implements the in-memory inverted index over the story
// corpus. The index is rebuilt from a corpus snapshot into a fresh
// structure and published with a single atomic pointer swap, so readers
// never observe a partially built index and need no lock beyond the swap.
package index

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/index/tokenizer"
)

// snapshot is one immutable build of the index.
type snapshot struct {
	postings map[string]map[string]struct{} // token -> set of item ids
	docCount int
	builtAt  time.Time
}

// Inverted maps tokens to the set of item IDs containing them. Postings are
// derived solely from the items' tokenizable fields; identical corpus input
// yields identical postings.
type Inverted struct {
	current atomic.Pointer[snapshot]
	logger  *slog.Logger
}

// New creates an empty, not-yet-ready index.
func New() *Inverted {
	return &Inverted{
		logger: slog.Default().With("component", "inverted-index"),
	}
}

// Build constructs a fresh snapshot from the corpus and publishes it
// atomically. Single writer; concurrent readers keep seeing the previous
// snapshot until the swap.
func (ix *Inverted) Build(items []content.Item) {
	start := time.Now()
	postings := make(map[string]map[string]struct{})
	for i := range items {
		for _, tok := range tokenizer.Tokenize(items[i].SearchText()) {
			set, ok := postings[tok]
			if !ok {
				set = make(map[string]struct{})
				postings[tok] = set
			}
			set[items[i].ID] = struct{}{}
		}
	}
	ix.current.Store(&snapshot{
		postings: postings,
		docCount: len(items),
		builtAt:  time.Now(),
	})
	ix.logger.Debug("index snapshot published",
		"items", len(items),
		"terms", len(postings),
		"build_time", time.Since(start),
	)
}

// Ready reports whether at least one build has been published.
func (ix *Inverted) Ready() bool {
	return ix.current.Load() != nil
}

// Lookup tokenizes nothing itself: it takes pre-tokenized query terms and
// returns itemID -> count of distinct query tokens matched. Duplicate query
// tokens count once. Returns nil when no build has been published.
func (ix *Inverted) Lookup(tokens []string) map[string]int {
	snap := ix.current.Load()
	if snap == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(tokens))
	counts := make(map[string]int)
	for _, tok := range tokens {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		for id := range snap.postings[tok] {
			counts[id]++
		}
	}
	return counts
}

// DocCount returns the number of items in the published snapshot.
func (ix *Inverted) DocCount() int {
	if snap := ix.current.Load(); snap != nil {
		return snap.docCount
	}
	return 0
}

// TermCount returns the number of distinct terms in the published snapshot.
func (ix *Inverted) TermCount() int {
	if snap := ix.current.Load(); snap != nil {
		return len(snap.postings)
	}
	return 0
}

// BuiltAt returns when the published snapshot was built, or the zero time.
func (ix *Inverted) BuiltAt() time.Time {
	if snap := ix.current.Load(); snap != nil {
		return snap.builtAt
	}
	return time.Time{}
}
