package discovery

import (
	"sort"

	"github.com/BotCoder254/story-discovery/internal/content"
)

// fuse combines per-strategy scores into one relevance score per item:
// relevance(item) = Σ weight_k · score_k(item). Weights are positional,
// strongest strategy first, so an item matched by several strategies
// accumulates score from each of them.
func fuse(results []strategyResult, weights []float64) map[string]float64 {
	fused := make(map[string]float64)
	for k, res := range results {
		if res.err != nil || len(res.scores) == 0 {
			continue
		}
		w := 1.0
		if k < len(weights) {
			w = weights[k]
		}
		for id, score := range res.scores {
			fused[id] += w * score
		}
	}
	return fused
}

// rank materializes fused scores against the corpus, excluding drafts and
// items missing from the snapshot, applies the post-fusion filters, and
// sorts by the requested mode. Relevance ties break by recency; all modes
// break final ties by ID so ordering is deterministic for a fixed snapshot.
func rank(fused map[string]float64, byID map[string]*content.Item, filters Filters, mode SortMode) []content.SearchResult {
	results := make([]content.SearchResult, 0, len(fused))
	for id, score := range fused {
		it, ok := byID[id]
		if !ok || it.IsDraft {
			continue
		}
		if !filters.Match(it) {
			continue
		}
		results = append(results, content.SearchResult{Item: *it, RelevanceScore: score})
	}
	sortResults(results, mode)
	return results
}

func sortResults(results []content.SearchResult, mode SortMode) {
	sort.Slice(results, func(i, j int) bool {
		a, b := &results[i], &results[j]
		switch mode {
		case SortNewest:
			if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
				return a.Item.CreatedAt.After(b.Item.CreatedAt)
			}
		case SortOldest:
			if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
				return a.Item.CreatedAt.Before(b.Item.CreatedAt)
			}
		case SortPopular:
			if a.Item.Engagement.Likes != b.Item.Engagement.Likes {
				return a.Item.Engagement.Likes > b.Item.Engagement.Likes
			}
		default: // SortRelevance
			if a.RelevanceScore != b.RelevanceScore {
				return a.RelevanceScore > b.RelevanceScore
			}
			if !a.Item.CreatedAt.Equal(b.Item.CreatedAt) {
				return a.Item.CreatedAt.After(b.Item.CreatedAt)
			}
		}
		return a.Item.ID < b.Item.ID
	})
}

// paginate applies offset+limit after the full in-memory sort.
func paginate(results []content.SearchResult, offset, limit int) (page []content.SearchResult, hasMore bool) {
	if offset >= len(results) {
		return []content.SearchResult{}, false
	}
	end := offset + limit
	if end > len(results) {
		end = len(results)
	}
	return results[offset:end], end < len(results)
}
