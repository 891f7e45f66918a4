package geo

import (
	"sort"
	"strings"
	"testing"
)

func TestEncodeClampsPrecision(t *testing.T) {
	if got := Encode(48.8566, 2.3522, 0); len(got) != 1 {
		t.Errorf("precision 0 clamped hash = %q, want length 1", got)
	}
	if got := Encode(48.8566, 2.3522, 99); len(got) != MaxPrecision {
		t.Errorf("precision 99 clamped hash = %q, want length %d", got, MaxPrecision)
	}
}

func TestEncodePrefixNesting(t *testing.T) {
	// a higher-precision hash of the same point extends the lower-precision one
	coarse := Encode(48.8566, 2.3522, 5)
	fine := Encode(48.8566, 2.3522, 12)
	if !strings.HasPrefix(fine, coarse) {
		t.Errorf("fine hash %q does not extend coarse hash %q", fine, coarse)
	}
}

func TestPrecisionForRadius(t *testing.T) {
	tests := []struct {
		radiusKm float64
		want     int
	}{
		{0.01, 8},
		{0.05, 7},
		{0.5, 6},
		{2, 5},
		{10, 4},
		{50, 3},
		{100, 2},
		{1000, 1},
		{5000, 1},
	}
	for _, tt := range tests {
		if got := PrecisionForRadius(tt.radiusKm); got != tt.want {
			t.Errorf("PrecisionForRadius(%v) = %d, want %d", tt.radiusKm, got, tt.want)
		}
	}
}

func TestQueryBoundsInvalidInput(t *testing.T) {
	if b := QueryBounds(Point{Lat: 48, Lng: 2}, -1, 0); b != nil {
		t.Errorf("negative radius produced bounds: %v", b)
	}
	if b := QueryBounds(Point{Lat: 95, Lng: 2}, 10, 0); b != nil {
		t.Errorf("invalid latitude produced bounds: %v", b)
	}
}

func TestQueryBoundsSortedAndDisjoint(t *testing.T) {
	bounds := QueryBounds(Point{Lat: 48.8566, Lng: 2.3522}, 5, 0)
	if len(bounds) == 0 {
		t.Fatal("no bounds produced")
	}
	if !sort.SliceIsSorted(bounds, func(i, j int) bool { return bounds[i].Start < bounds[j].Start }) {
		t.Errorf("bounds not sorted: %v", bounds)
	}
	for i := 1; i < len(bounds); i++ {
		if bounds[i].Start < bounds[i-1].End {
			t.Errorf("bounds overlap: %v then %v", bounds[i-1], bounds[i])
		}
	}
}

// Points inside the query circle must always fall inside some bound when
// tested by their full-precision geohash. The cover may admit extra points
// (the distance filter removes those); it must never miss one.
func TestQueryBoundsCoverProperty(t *testing.T) {
	centers := []Point{
		{Lat: 48.8566, Lng: 2.3522}, // Paris
		{Lat: -33.8688, Lng: 151.2093},
		{Lat: 0.01, Lng: 0.01},
		{Lat: 64.1466, Lng: -21.9426}, // Reykjavik, high latitude
	}
	radii := []float64{0.5, 2, 10, 50}

	for _, center := range centers {
		for _, radiusKm := range radii {
			bounds := QueryBounds(center, radiusKm, PrecisionForRadius(radiusKm))
			// probe points on a small grid inside the circle
			for _, fLat := range []float64{-0.6, 0, 0.6} {
				for _, fLng := range []float64{-0.6, 0, 0.6} {
					p := Point{
						Lat: center.Lat + fLat*radiusKm/111.0,
						Lng: center.Lng + fLng*radiusKm/111.0,
					}
					if HaversineKm(center, p) > radiusKm {
						continue
					}
					hash := Encode(p.Lat, p.Lng, MaxPrecision)
					found := false
					for _, b := range bounds {
						if b.Contains(hash) {
							found = true
							break
						}
					}
					if !found {
						t.Errorf("center %v radius %v: point %v (hash %s) not covered by %v",
							center, radiusKm, p, hash, bounds)
					}
				}
			}
		}
	}
}

func TestBoundContains(t *testing.T) {
	b := Bound{Start: "u09t", End: "u09t~"}
	tests := []struct {
		hash string
		want bool
	}{
		{"u09t", true},
		{"u09tzzzzzzzz", true},
		{"u09s", false},
		{"u09u", false},
		{"u09", false},
	}
	for _, tt := range tests {
		if got := b.Contains(tt.hash); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.hash, got, tt.want)
		}
	}
}

func TestBase32Successor(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"u09t", "u09u"},
		{"u099", "u09b"}, // 9 -> b, the alphabet skips a, i, l, o
		{"u09z", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := base32Successor(tt.in); got != tt.want {
			t.Errorf("base32Successor(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
