package discovery

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/BotCoder254/story-discovery/internal/analytics"
	"github.com/BotCoder254/story-discovery/pkg/middleware"
)

// Suggestions returns typeahead completions for prefix: the union of recent
// searches, popular tags, and location names, deduplicated
// case-insensitively and capped at limit. Tags are ordered by how often
// they appear in the corpus, so the most popular tags surface first.
func (s *Service) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	start := time.Now()
	if limit <= 0 {
		limit = s.cfg.SuggestionLimit
	}
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		s.observeOp(analytics.OpSuggestions, "zero_result", start)
		return []string{}, nil
	}

	out := make([]string, 0, limit)
	seen := make(map[string]struct{})
	add := func(v string) {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}

	for _, q := range s.history.Recent() {
		if strings.HasPrefix(strings.ToLower(q), prefix) {
			add(q)
		}
	}

	items, degraded, err := s.corpus.Snapshot(ctx)
	if err != nil {
		// history-only suggestions are better than none
		s.logger.Warn("suggestions degraded to history only", "error", err)
		items = nil
		degraded = true
	}

	tagCounts := make(map[string]int)
	for i := range items {
		if items[i].IsDraft {
			continue
		}
		for _, tag := range items[i].Tags {
			tag = strings.ToLower(tag)
			if strings.HasPrefix(tag, prefix) {
				tagCounts[tag]++
			}
		}
	}
	tags := make([]string, 0, len(tagCounts))
	for tag := range tagCounts {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if tagCounts[tags[i]] != tagCounts[tags[j]] {
			return tagCounts[tags[i]] > tagCounts[tags[j]]
		}
		return tags[i] < tags[j]
	})
	for _, tag := range tags {
		add(tag)
	}

	for i := range items {
		if items[i].IsDraft || items[i].Location == nil {
			continue
		}
		if name := items[i].Location.Name; name != "" &&
			strings.HasPrefix(strings.ToLower(name), prefix) {
			add(name)
		}
	}

	if len(out) > limit {
		out = out[:limit]
	}

	status := "ok"
	switch {
	case degraded:
		status = "degraded"
	case len(out) == 0:
		status = "zero_result"
	}
	s.observeOp(analytics.OpSuggestions, status, start)
	s.track(analytics.Event{
		Operation:   analytics.OpSuggestions,
		Query:       prefix,
		ResultCount: len(out),
		LatencyMs:   time.Since(start).Milliseconds(),
		Degraded:    degraded,
		Timestamp:   time.Now().UTC(),
		RequestID:   middleware.GetRequestID(ctx),
	})
	return out, nil
}
