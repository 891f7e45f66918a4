// Package discovery implements the discovery orchestrator: text search with
// multi-strategy relevance fusion, geospatial nearby search, proximity
// clustering, time-decayed trending, personalized discover, and typeahead
// suggestions over a read-only story corpus.
package discovery

import (
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/pkg/config"
	apperrors "github.com/BotCoder254/story-discovery/pkg/errors"
)

// SortMode selects the final ordering of fused search results.
type SortMode string

const (
	SortRelevance SortMode = "relevance"
	SortNewest    SortMode = "newest"
	SortOldest    SortMode = "oldest"
	SortPopular   SortMode = "popular"
)

// ParseSortMode validates a sort query parameter, defaulting to relevance.
func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(s) {
	case "":
		return SortRelevance, nil
	case SortRelevance, SortNewest, SortOldest, SortPopular:
		return SortMode(s), nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidQuery, 400, "unknown sort mode %q", s)
	}
}

// Filters are the post-fusion predicates applied to the fused working set.
// Every supported filter is an explicit field; there is no untyped options
// bag.
type Filters struct {
	From     *time.Time `json:"from,omitempty"`
	To       *time.Time `json:"to,omitempty"`
	TripType string     `json:"trip_type,omitempty"`
	Mood     string     `json:"mood,omitempty"`
	Privacy  string     `json:"privacy,omitempty"`
}

// IsZero reports whether no filter is set.
func (f Filters) IsZero() bool {
	return f.From == nil && f.To == nil && f.TripType == "" && f.Mood == "" && f.Privacy == ""
}

// Match applies every set predicate to the item.
func (f Filters) Match(it *content.Item) bool {
	if f.From != nil && it.CreatedAt.Before(*f.From) {
		return false
	}
	if f.To != nil && it.CreatedAt.After(*f.To) {
		return false
	}
	if f.TripType != "" && it.TripType != f.TripType {
		return false
	}
	if f.Mood != "" && it.Mood != f.Mood {
		return false
	}
	if f.Privacy != "" && it.Privacy != f.Privacy {
		return false
	}
	return true
}

// SearchOptions parameterizes a Search call.
type SearchOptions struct {
	Filters Filters  `json:"filters"`
	Sort    SortMode `json:"sort"`
	Limit   int      `json:"limit"`
	Offset  int      `json:"offset"`
}

// normalize clamps limit/offset and fills defaults from config.
func (o *SearchOptions) normalize(cfg config.DiscoveryConfig) {
	if o.Sort == "" {
		o.Sort = SortRelevance
	}
	if o.Limit <= 0 {
		o.Limit = cfg.DefaultLimit
	}
	if o.Limit > cfg.MaxResults {
		o.Limit = cfg.MaxResults
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
}

// SearchResponse is the result of one Search call. Total reflects the fused
// working-set size (not a corpus-wide count) and Degraded is set when every
// retrieval strategy failed and stale or empty data was served.
type SearchResponse struct {
	Items        []content.SearchResult `json:"items"`
	Total        int                    `json:"total"`
	HasMore      bool                   `json:"has_more"`
	SearchTimeMs int64                  `json:"search_time_ms"`
	Degraded     bool                   `json:"degraded,omitempty"`
}

// DiscoverPreferences bias the Discover feed.
type DiscoverPreferences struct {
	Tags []string `json:"tags,omitempty"`
}
