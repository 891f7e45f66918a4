package discovery

import (
	"container/heap"
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
	apperrors "github.com/BotCoder254/story-discovery/pkg/errors"
)

// Engagement weights and decay parameters of the trending score.
const (
	likeWeight     = 3.0
	commentWeight  = 2.0
	bookmarkWeight = 4.0
	viewWeight     = 0.1

	decayWindow = 7 * 24 * time.Hour
	decayFloor  = 0.1
)

// Timeframe is a trending window.
type Timeframe string

const (
	Timeframe1d  Timeframe = "1d"
	Timeframe7d  Timeframe = "7d"
	Timeframe30d Timeframe = "30d"
)

// ParseTimeframe validates a timeframe parameter, defaulting to 7d.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return Timeframe7d, nil
	case Timeframe1d, Timeframe7d, Timeframe30d:
		return Timeframe(s), nil
	default:
		return "", apperrors.Newf(apperrors.ErrInvalidQuery, 400, "unknown timeframe %q", s)
	}
}

// Duration returns the window length.
func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1d:
		return 24 * time.Hour
	case Timeframe30d:
		return 30 * 24 * time.Hour
	default:
		return 7 * 24 * time.Hour
	}
}

// engagementScore is the weighted sum of an item's interaction counters.
func engagementScore(e content.Engagement) float64 {
	return float64(e.Likes)*likeWeight +
		float64(e.Comments)*commentWeight +
		float64(e.Bookmarks)*bookmarkWeight +
		float64(e.Views)*viewWeight
}

// timeDecay decays linearly from 1 at age zero to the 0.1 floor at seven
// days, and never below it: an old item keeps a tenth of its engagement
// score instead of vanishing.
func timeDecay(createdAt, now time.Time) float64 {
	age := now.Sub(createdAt)
	if age < 0 {
		age = 0
	}
	d := 1 - age.Hours()/decayWindow.Hours()
	if d < decayFloor {
		return decayFloor
	}
	return d
}

// trendingScore is the engagement score multiplied by time decay.
func trendingScore(it *content.Item, now time.Time) float64 {
	return engagementScore(it.Engagement) * timeDecay(it.CreatedAt, now)
}

// scoredItem pairs an item with its trending score.
type scoredItem struct {
	item  *content.Item
	score float64
}

// topK selects the k highest-scoring items with a bounded min-heap. Ties
// break by recency, then ID, so the selection is deterministic.
func topK(items []scoredItem, k int) []scoredItem {
	if k <= 0 {
		return nil
	}
	h := &scoredItemHeap{}
	heap.Init(h)
	for _, si := range items {
		heap.Push(h, si)
		if h.Len() > k {
			heap.Pop(h)
		}
	}
	out := make([]scoredItem, h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(h).(scoredItem)
	}
	return out
}

// scoredItemHeap is a min-heap: the weakest candidate sits at the root and
// is evicted first.
type scoredItemHeap []scoredItem

func (h scoredItemHeap) Len() int { return len(h) }

func (h scoredItemHeap) Less(i, j int) bool {
	if h[i].score != h[j].score {
		return h[i].score < h[j].score
	}
	if !h[i].item.CreatedAt.Equal(h[j].item.CreatedAt) {
		return h[i].item.CreatedAt.Before(h[j].item.CreatedAt)
	}
	return h[i].item.ID > h[j].item.ID
}

func (h scoredItemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredItemHeap) Push(x interface{}) {
	*h = append(*h, x.(scoredItem))
}

func (h *scoredItemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
