package benchmark

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/BotCoder254/story-discovery/internal/content"
	"github.com/BotCoder254/story-discovery/internal/discovery"
	"github.com/BotCoder254/story-discovery/internal/geo"
	"github.com/BotCoder254/story-discovery/pkg/config"
)

func benchService(b *testing.B, n int) *discovery.Service {
	b.Helper()
	items := corpus(n)
	// give half the corpus locations spread along a coastline
	for i := range items {
		if i%2 == 0 {
			items[i].Location = &content.Location{
				Lat:  36.0 + float64(i%100)*0.01,
				Lng:  25.0 + float64(i%100)*0.01,
				Name: "Stop " + items[i].ID,
			}
		}
	}
	store := content.NewMemoryStore()
	store.Put(items...)

	cfg := config.DiscoveryConfig{
		DefaultLimit: 20, MaxResults: 100, HistorySize: 20, SuggestionLimit: 10,
		DiscoverPool: 50, StorePageSize: 1000, CorpusTTL: time.Hour,
		RebuildInterval: time.Hour, StrategyTimeout: 5 * time.Second,
		PrefixWeight: 3, TokenWeight: 2, TagWeight: 1,
	}
	geoCfg := config.GeoConfig{DefaultRadiusKm: 10, MaxRadiusKm: 500, ClusterRadiusKm: 1}
	svc := discovery.New(store, discovery.NewHistory(20, nil), cfg, geoCfg)
	if err := svc.RebuildIndex(context.Background()); err != nil {
		b.Fatal(err)
	}
	return svc
}

// BenchmarkSearch measures the full fused search pipeline at varying corpus
// sizes.
func BenchmarkSearch(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, n := range sizes {
		b.Run(fmt.Sprintf("items_%d", n), func(b *testing.B) {
			svc := benchService(b, n)
			ctx := context.Background()
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				resp, err := svc.Search(ctx, "santorini diary", discovery.SearchOptions{})
				if err != nil {
					b.Fatal(err)
				}
				_ = resp
			}
		})
	}
}

// BenchmarkSearchParallel measures concurrent search throughput.
func BenchmarkSearchParallel(b *testing.B) {
	svc := benchService(b, 5000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			resp, err := svc.Search(ctx, "kyoto photography", discovery.SearchOptions{})
			if err != nil {
				b.Fatal(err)
			}
			_ = resp
		}
	})
}

// BenchmarkNearby measures geospatial candidate selection plus the distance
// filter.
func BenchmarkNearby(b *testing.B) {
	svc := benchService(b, 10000)
	ctx := context.Background()
	center := geo.Point{Lat: 36.3, Lng: 25.3}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := svc.Nearby(ctx, center, 25, 50)
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}

// BenchmarkTrending measures scoring plus top-k selection over the whole
// corpus.
func BenchmarkTrending(b *testing.B) {
	svc := benchService(b, 10000)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		items, err := svc.Trending(ctx, discovery.Timeframe30d, 20)
		if err != nil {
			b.Fatal(err)
		}
		_ = items
	}
}

// BenchmarkClusterPoints measures greedy clustering at map-viewport scales.
func BenchmarkClusterPoints(b *testing.B) {
	sizes := []int{50, 200, 1000}
	for _, n := range sizes {
		points := make([]geo.Point, n)
		for i := range points {
			points[i] = geo.Point{
				Lat: 48.0 + float64(i%40)*0.002,
				Lng: 2.0 + float64(i/40)*0.002,
			}
		}
		b.Run(fmt.Sprintf("points_%d", n), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				clusters := geo.ClusterPoints(points, 0.5)
				_ = clusters
			}
		})
	}
}

// BenchmarkHaversine measures raw distance computation.
func BenchmarkHaversine(b *testing.B) {
	a := geo.Point{Lat: 48.8566, Lng: 2.3522}
	c := geo.Point{Lat: 51.5074, Lng: -0.1278}
	for i := 0; i < b.N; i++ {
		d := geo.HaversineKm(a, c)
		_ = d
	}
}

// BenchmarkQueryBounds measures geohash cover construction.
func BenchmarkQueryBounds(b *testing.B) {
	center := geo.Point{Lat: 36.3932, Lng: 25.4615}
	for _, radius := range []float64{1, 10, 100} {
		b.Run(fmt.Sprintf("radius_%v", radius), func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				bounds := geo.QueryBounds(center, radius, 0)
				_ = bounds
			}
		})
	}
}
