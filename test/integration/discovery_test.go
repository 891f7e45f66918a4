// Package integration exercises the discovery service through its full HTTP
// stack: router, middleware chain, handlers, and orchestrator, backed by the
// in-memory content store.
package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/discovery"
	"github.com/BotCoder254/story-discovery/internal/discovery/handler"
	"github.com/BotCoder254/story-discovery/internal/discovery/router"
	"github.com/BotCoder254/story-discovery/internal/ratelimit"
	"github.com/BotCoder254/story-discovery/pkg/config"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := time.Now()
	store := content.NewMemoryStore()
	store.Put(
		content.Item{
			ID: "p1", Title: "Santorini sunset walk", Body: "Caldera rim at golden hour",
			AuthorID: "u1", AuthorName: "Maria", Tags: []string{"greece", "sunset"},
			Location:   &content.Location{Lat: 36.3932, Lng: 25.4615, Name: "Santorini"},
			Engagement: content.Engagement{Likes: 10},
			CreatedAt:  now.Add(-2 * time.Hour),
		},
		content.Item{
			ID: "p2", Title: "Santorini food crawl", Body: "Tomato fritters and fava",
			AuthorID: "u2", AuthorName: "Nikos", Tags: []string{"greece", "food"},
			Location:   &content.Location{Lat: 36.4618, Lng: 25.3753, Name: "Oia"},
			Engagement: content.Engagement{Likes: 40},
			CreatedAt:  now.Add(-5 * time.Hour),
		},
		content.Item{
			ID: "p3", Title: "Kyoto temple mornings", Body: "Quiet before the crowds",
			AuthorID: "u3", AuthorName: "Ken", Tags: []string{"japan", "backpacking"},
			Location:   &content.Location{Lat: 35.0116, Lng: 135.7681, Name: "Kyoto"},
			Engagement: content.Engagement{Likes: 25},
			CreatedAt:  now.Add(-72 * time.Hour),
		},
	)

	cfg := config.DiscoveryConfig{
		DefaultLimit: 20, MaxResults: 100, HistorySize: 20, SuggestionLimit: 10,
		DiscoverPool: 50, StorePageSize: 100, CorpusTTL: time.Minute,
		RebuildInterval: time.Minute, StrategyTimeout: time.Second,
		PrefixWeight: 3, TokenWeight: 2, TagWeight: 1,
	}
	geoCfg := config.GeoConfig{DefaultRadiusKm: 10, MaxRadiusKm: 500, ClusterRadiusKm: 1}
	svc := discovery.New(store, discovery.NewHistory(20, nil), cfg, geoCfg)
	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("building index: %v", err)
	}

	h := handler.New(svc, nil)
	api := router.New(h, nil, ratelimit.New(time.Minute), router.Config{
		RateLimitPerMin: 1000,
		RequestTimeout:  5 * time.Second,
	})
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, url string, into any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if into != nil {
		if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestSearchFlow(t *testing.T) {
	srv := newTestServer(t)

	var resp discovery.SearchResponse
	r := getJSON(t, srv.URL+"/api/v1/search?q=santorini&sort=popular", &resp)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", r.StatusCode)
	}
	if resp.Total != 2 {
		t.Fatalf("Total = %d, want 2", resp.Total)
	}
	if resp.Items[0].Item.ID != "p2" {
		t.Errorf("popular sort put %q first, want p2 (40 likes)", resp.Items[0].Item.ID)
	}
	if r.Header.Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}

	// the query must now appear in history
	var hist struct {
		Searches []string `json:"searches"`
	}
	getJSON(t, srv.URL+"/api/v1/history", &hist)
	if len(hist.Searches) != 1 || hist.Searches[0] != "santorini" {
		t.Errorf("history = %v, want [santorini]", hist.Searches)
	}
}

func TestNearbyFlow(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		Items []content.SearchResult `json:"items"`
		Count int                    `json:"count"`
	}
	getJSON(t, srv.URL+"/api/v1/nearby?lat=36.3932&lng=25.4615&radius_km=15", &resp)
	if resp.Count != 2 {
		t.Fatalf("nearby count = %d, want 2", resp.Count)
	}
	if resp.Items[0].Item.ID != "p1" {
		t.Errorf("nearest = %q, want p1", resp.Items[0].Item.ID)
	}
}

func TestTrendingFlow(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		Items []content.Item `json:"items"`
		Count int            `json:"count"`
	}
	getJSON(t, srv.URL+"/api/v1/trending?timeframe=1d&limit=5", &resp)
	if resp.Count != 2 {
		t.Fatalf("trending count = %d, want 2 (p3 outside window)", resp.Count)
	}
	if resp.Items[0].ID != "p2" {
		t.Errorf("top trending = %q, want p2", resp.Items[0].ID)
	}
}

func TestDiscoverFlow(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		Items []content.Item `json:"items"`
	}
	getJSON(t, srv.URL+"/api/v1/discover?user_id=u1&tags=backpacking", &resp)
	for _, it := range resp.Items {
		if it.AuthorID == "u1" {
			t.Errorf("own story %q in feed", it.ID)
		}
	}
}

func TestClustersFlow(t *testing.T) {
	srv := newTestServer(t)

	body := `{"points":[{"lat":0,"lng":0},{"lat":0,"lng":0.001},{"lat":10,"lng":10}],"radius_km":1}`
	resp, err := http.Post(srv.URL+"/api/v1/clusters", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST clusters: %v", err)
	}
	defer resp.Body.Close()

	var out struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding: %v", err)
	}
	if out.Count != 2 {
		t.Errorf("cluster count = %d, want 2", out.Count)
	}
}

func TestSuggestionsFlow(t *testing.T) {
	srv := newTestServer(t)

	var resp struct {
		Suggestions []string `json:"suggestions"`
	}
	getJSON(t, srv.URL+"/api/v1/suggestions?q=gre", &resp)
	if len(resp.Suggestions) != 1 || resp.Suggestions[0] != "greece" {
		t.Errorf("suggestions = %v, want [greece]", resp.Suggestions)
	}
}

func TestHealthFlow(t *testing.T) {
	srv := newTestServer(t)
	r := getJSON(t, srv.URL+"/health", nil)
	if r.StatusCode != http.StatusOK {
		t.Errorf("health status = %d", r.StatusCode)
	}
}

func TestRateLimitFlow(t *testing.T) {
	now := time.Now()
	store := content.NewMemoryStore()
	store.Put(content.Item{ID: "p1", Title: "Only story", CreatedAt: now})
	cfg := config.DiscoveryConfig{
		DefaultLimit: 20, MaxResults: 100, HistorySize: 20, SuggestionLimit: 10,
		DiscoverPool: 50, StorePageSize: 100, CorpusTTL: time.Minute,
		RebuildInterval: time.Minute, StrategyTimeout: time.Second,
		PrefixWeight: 3, TokenWeight: 2, TagWeight: 1,
	}
	geoCfg := config.GeoConfig{MaxRadiusKm: 500}
	svc := discovery.New(store, discovery.NewHistory(20, nil), cfg, geoCfg)
	if err := svc.RebuildIndex(context.Background()); err != nil {
		t.Fatalf("building index: %v", err)
	}

	api := router.New(handler.New(svc, nil), nil, ratelimit.New(time.Minute), router.Config{
		RateLimitPerMin: 3,
		RequestTimeout:  5 * time.Second,
	})
	srv := httptest.NewServer(api)
	defer srv.Close()

	var last int
	for i := 0; i < 5; i++ {
		resp, err := http.Get(fmt.Sprintf("%s/api/v1/search?q=story&n=%d", srv.URL, i))
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		resp.Body.Close()
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("5th request status = %d, want 429", last)
	}

	// health stays exempt
	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET health: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status under rate limit = %d, want 200", resp.StatusCode)
	}
}
