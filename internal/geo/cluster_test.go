package geo

import (
	"math"
	"testing"
)

func TestClusterPointsEmpty(t *testing.T) {
	if got := ClusterPoints(nil, 1); got != nil {
		t.Errorf("ClusterPoints(nil) = %v, want nil", got)
	}
	if got := ClusterPoints([]Point{}, 1); got != nil {
		t.Errorf("ClusterPoints(empty) = %v, want nil", got)
	}
}

func TestClusterPointsNegativeRadius(t *testing.T) {
	if got := ClusterPoints([]Point{{0, 0}}, -1); got != nil {
		t.Errorf("negative radius produced clusters: %v", got)
	}
}

func TestClusterPointsZeroRadius(t *testing.T) {
	points := []Point{{0, 0}, {0, 0}, {0, 0.001}}
	clusters := ClusterPoints(points, 0)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2 (coincident pair + outlier)", len(clusters))
	}
	if clusters[0].Count != 2 {
		t.Errorf("coincident cluster count = %d, want 2", clusters[0].Count)
	}
}

func TestClusterPointsGrouping(t *testing.T) {
	points := []Point{{0, 0}, {0, 0.001}, {10, 10}}
	clusters := ClusterPoints(points, 1)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2", len(clusters))
	}
	if clusters[0].Count != 2 || clusters[1].Count != 1 {
		t.Errorf("cluster sizes = %d, %d; want 2, 1", clusters[0].Count, clusters[1].Count)
	}
}

func TestClusterEveryPointAssignedOnce(t *testing.T) {
	points := []Point{
		{0, 0}, {0, 0.001}, {0, 0.002},
		{1, 1}, {1.001, 1},
		{40, 40},
	}
	clusters := ClusterPoints(points, 1)
	sum := 0
	for _, c := range clusters {
		sum += c.Count
		if c.Count != len(c.Points) {
			t.Errorf("cluster Count %d != len(Points) %d", c.Count, len(c.Points))
		}
	}
	if sum != len(points) {
		t.Errorf("cluster counts sum to %d, want %d", sum, len(points))
	}
}

func TestClusterSingletonKeepsSeed(t *testing.T) {
	seed := Point{Lat: 48.8566, Lng: 2.3522}
	clusters := ClusterPoints([]Point{seed}, 5)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	if clusters[0].Center != seed {
		t.Errorf("singleton center = %v, want seed %v", clusters[0].Center, seed)
	}
}

func TestClusterCentroidIsMean(t *testing.T) {
	clusters := ClusterPoints([]Point{{0, 0}, {0, 0.002}}, 1)
	if len(clusters) != 1 {
		t.Fatalf("got %d clusters, want 1", len(clusters))
	}
	c := clusters[0].Center
	if math.Abs(c.Lat) > 1e-9 || math.Abs(c.Lng-0.001) > 1e-9 {
		t.Errorf("centroid = %v, want (0, 0.001)", c)
	}
}

// Membership is measured against the seed only: a chain A-B-C where only
// consecutive points are within radius splits after the seed's reach.
func TestClusterStarNotChain(t *testing.T) {
	// ~0.9km spacing along the equator; A-B and B-C within 1km, A-C not
	a := Point{0, 0}
	b := Point{0, 0.008}
	c := Point{0, 0.016}
	clusters := ClusterPoints([]Point{a, b, c}, 1)
	if len(clusters) != 2 {
		t.Fatalf("got %d clusters, want 2 (seed A absorbs B, C opens its own)", len(clusters))
	}
	if clusters[0].Count != 2 {
		t.Errorf("seed cluster count = %d, want 2", clusters[0].Count)
	}
}
