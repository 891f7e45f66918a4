package discovery

import (
	"context"
	"fmt"
	"reflect"
	"testing"
)

func TestHistoryRecordMostRecentFirst(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "santorini")
	h.Record(ctx, "alps")
	h.Record(ctx, "bali")

	want := []string{"bali", "alps", "santorini"}
	if got := h.Recent(); !reflect.DeepEqual(got, want) {
		t.Errorf("Recent = %v, want %v", got, want)
	}
}

func TestHistoryDedupMovesToFront(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "santorini")
	h.Record(ctx, "alps")
	h.Record(ctx, "santorini")

	want := []string{"santorini", "alps"}
	if got := h.Recent(); !reflect.DeepEqual(got, want) {
		t.Errorf("Recent = %v, want %v", got, want)
	}
}

func TestHistoryCap(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	for i := 0; i < 30; i++ {
		h.Record(ctx, fmt.Sprintf("query-%d", i))
	}

	got := h.Recent()
	if len(got) != 20 {
		t.Fatalf("history holds %d entries, want 20", len(got))
	}
	if got[0] != "query-29" {
		t.Errorf("newest entry = %q, want query-29", got[0])
	}
	if got[19] != "query-10" {
		t.Errorf("oldest retained entry = %q, want query-10", got[19])
	}
}

func TestHistoryIgnoresBlank(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "")
	h.Record(ctx, "   ")
	if got := h.Recent(); len(got) != 0 {
		t.Errorf("blank queries recorded: %v", got)
	}
}

func TestHistoryTrimsWhitespace(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "  santorini  ")
	h.Record(ctx, "santorini")
	if got := h.Recent(); len(got) != 1 || got[0] != "santorini" {
		t.Errorf("Recent = %v, want [santorini]", got)
	}
}

func TestHistoryClear(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "santorini")
	h.Clear(ctx)
	if got := h.Recent(); len(got) != 0 {
		t.Errorf("history not empty after Clear: %v", got)
	}
	// usable after clearing
	h.Record(ctx, "alps")
	if got := h.Recent(); len(got) != 1 {
		t.Errorf("history broken after Clear: %v", got)
	}
}

func TestHistoryRecentReturnsCopy(t *testing.T) {
	h := NewHistory(20, nil)
	ctx := context.Background()

	h.Record(ctx, "santorini")
	got := h.Recent()
	got[0] = "mutated"
	if h.Recent()[0] != "santorini" {
		t.Error("Recent exposed internal slice")
	}
}

func TestHistoryDefaultCap(t *testing.T) {
	h := NewHistory(0, nil)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		h.Record(ctx, fmt.Sprintf("q%d", i))
	}
	if got := len(h.Recent()); got != 20 {
		t.Errorf("default cap held %d entries, want 20", got)
	}
}
