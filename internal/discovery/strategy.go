package discovery

import (
	"context"
	"strings"

	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/index"
	"github.com/BotCoder254/story-discovery/internal/index/tokenizer"
	apperrors "github.com/BotCoder254/story-discovery/pkg/errors"
)

// prefixSentinel is appended to a lowercased term to form the exclusive end
// of the half-open prefix range [term, term+prefixSentinel). It sorts after
// any continuation of the term.
const prefixSentinel = "\uffff"

// strategy is one independent, side-effect-free retrieval signal. Search
// returns raw per-item scores; a transient failure is returned as an error
// value and the orchestrator degrades that strategy to empty instead of
// aborting the call.
type strategy interface {
	Name() string
	Search(ctx context.Context, query string) (map[string]float64, error)
}

// strategyResult carries one strategy's outcome to fusion.
type strategyResult struct {
	name   string
	scores map[string]float64
	err    error
}

// prefixFieldStrategy matches items whose title or author field starts with
// a query term, via the store's prefix-range queries.
type prefixFieldStrategy struct {
	store content.Store
}

func (s *prefixFieldStrategy) Name() string { return "prefix_field" }

func (s *prefixFieldStrategy) Search(ctx context.Context, query string) (map[string]float64, error) {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return nil, nil
	}
	scores := make(map[string]float64)
	for _, term := range terms {
		matched := make(map[string]struct{})
		for _, field := range []content.Field{content.FieldTitle, content.FieldAuthor} {
			items, err := s.store.PrefixRange(ctx, field, term, term+prefixSentinel)
			if err != nil {
				return nil, apperrors.New(apperrors.ErrStoreUnavailable, 503, err.Error())
			}
			for i := range items {
				matched[items[i].ID] = struct{}{}
			}
		}
		// one point per term regardless of how many fields matched
		for id := range matched {
			scores[id]++
		}
	}
	return scores, nil
}

// tokenIndexStrategy scores items by the number of distinct query tokens
// found in the inverted index.
type tokenIndexStrategy struct {
	index *index.Inverted
}

func (s *tokenIndexStrategy) Name() string { return "token_index" }

func (s *tokenIndexStrategy) Search(ctx context.Context, query string) (map[string]float64, error) {
	if !s.index.Ready() {
		return nil, apperrors.ErrIndexNotReady
	}
	tokens := tokenizer.Tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}
	counts := s.index.Lookup(tokens)
	scores := make(map[string]float64, len(counts))
	for id, n := range counts {
		scores[id] = float64(n)
	}
	return scores, nil
}

// tagStrategy matches items whose tag set intersects the query tags. A
// leading '#' on a query term is stripped, so "#backpacking" and
// "backpacking" are the same tag.
type tagStrategy struct {
	corpus *content.Cache
}

func (s *tagStrategy) Name() string { return "tag" }

func (s *tagStrategy) Search(ctx context.Context, query string) (map[string]float64, error) {
	tags := queryTags(query)
	if len(tags) == 0 {
		return nil, nil
	}
	items, _, err := s.corpus.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.New(apperrors.ErrStoreUnavailable, 503, err.Error())
	}
	scores := make(map[string]float64)
	for i := range items {
		for _, tag := range tags {
			if items[i].HasTag(tag) {
				scores[items[i].ID]++
			}
		}
	}
	return scores, nil
}

// queryTags splits the query on whitespace and strips leading '#' markers.
func queryTags(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimPrefix(f, "#")
		if f != "" {
			tags = append(tags, f)
		}
	}
	return tags
}
