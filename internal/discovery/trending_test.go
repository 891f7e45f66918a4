package discovery

import (
	"math"
	"testing"
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
)

func TestEngagementScore(t *testing.T) {
	e := content.Engagement{Likes: 10, Comments: 5, Bookmarks: 2, Views: 100}
	want := 10*3.0 + 5*2.0 + 2*4.0 + 100*0.1
	if got := engagementScore(e); got != want {
		t.Errorf("engagementScore = %v, want %v", got, want)
	}
	if got := engagementScore(content.Engagement{}); got != 0 {
		t.Errorf("zero engagement scored %v", got)
	}
}

func TestTimeDecay(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		age  time.Duration
		want float64
	}{
		{"fresh", 0, 1.0},
		{"half window", 3*24*time.Hour + 12*time.Hour, 0.5},
		{"at window edge", 7 * 24 * time.Hour, 0.1},
		{"well past window", 30 * 24 * time.Hour, 0.1},
		{"future timestamp clamped", -time.Hour, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeDecay(now.Add(-tt.age), now)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("timeDecay(age=%v) = %v, want %v", tt.age, got, tt.want)
			}
		})
	}
}

func TestTrendingScoreOrdering(t *testing.T) {
	now := time.Now()
	// an hour-old item with modest engagement should outrank a six-day-old
	// item with slightly better engagement
	fresh := &content.Item{CreatedAt: now.Add(-time.Hour),
		Engagement: content.Engagement{Likes: 10}}
	stale := &content.Item{CreatedAt: now.Add(-6 * 24 * time.Hour),
		Engagement: content.Engagement{Likes: 12}}
	if trendingScore(fresh, now) <= trendingScore(stale, now) {
		t.Errorf("fresh item scored %v, stale %v; fresh should win",
			trendingScore(fresh, now), trendingScore(stale, now))
	}
}

func TestTopK(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []scoredItem{
		{item: &content.Item{ID: "a", CreatedAt: base}, score: 5},
		{item: &content.Item{ID: "b", CreatedAt: base}, score: 9},
		{item: &content.Item{ID: "c", CreatedAt: base}, score: 1},
		{item: &content.Item{ID: "d", CreatedAt: base}, score: 7},
	}

	top := topK(items, 2)
	if len(top) != 2 {
		t.Fatalf("topK returned %d items, want 2", len(top))
	}
	if top[0].item.ID != "b" || top[1].item.ID != "d" {
		t.Errorf("topK = [%s %s], want [b d]", top[0].item.ID, top[1].item.ID)
	}

	if got := topK(items, 10); len(got) != 4 {
		t.Errorf("topK with k > n returned %d items, want 4", len(got))
	}
	if got := topK(items, 0); got != nil {
		t.Errorf("topK with k=0 returned %v, want nil", got)
	}
}

func TestTopKTieBreaksByRecencyThenID(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	items := []scoredItem{
		{item: &content.Item{ID: "older", CreatedAt: base.Add(-time.Hour)}, score: 5},
		{item: &content.Item{ID: "newer", CreatedAt: base}, score: 5},
	}
	top := topK(items, 1)
	if top[0].item.ID != "newer" {
		t.Errorf("tie at equal score kept %q, want newer", top[0].item.ID)
	}

	sameTime := []scoredItem{
		{item: &content.Item{ID: "bbb", CreatedAt: base}, score: 5},
		{item: &content.Item{ID: "aaa", CreatedAt: base}, score: 5},
	}
	top = topK(sameTime, 1)
	if top[0].item.ID != "aaa" {
		t.Errorf("tie at equal score and time kept %q, want aaa", top[0].item.ID)
	}
}

func TestParseTimeframe(t *testing.T) {
	if tf, err := ParseTimeframe(""); err != nil || tf != Timeframe7d {
		t.Errorf("blank timeframe = %v, %v; want 7d", tf, err)
	}
	if _, err := ParseTimeframe("90d"); err == nil {
		t.Error("unknown timeframe accepted")
	}
	if Timeframe1d.Duration() != 24*time.Hour {
		t.Errorf("1d duration = %v", Timeframe1d.Duration())
	}
	if Timeframe30d.Duration() != 30*24*time.Hour {
		t.Errorf("30d duration = %v", Timeframe30d.Duration())
	}
}
