package geo

import (
	"sort"

	"github.com/mmcloughlin/geohash"
)

// MaxPrecision is the geohash length stored on indexed items.
const MaxPrecision = 12

// boundSentinel sorts after every geohash character, so the half-open range
// [hash, hash+boundSentinel) covers exactly the hashes prefixed by hash.
const boundSentinel = "~"

// base32 is the geohash alphabet, in sort order.
const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// Bound is a lexicographic [Start, End) range of geohash strings.
type Bound struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Contains reports whether hash falls inside the bound.
func (b Bound) Contains(hash string) bool {
	return hash >= b.Start && hash < b.End
}

// Encode returns the geohash of the point at the given precision
// (1..MaxPrecision characters).
func Encode(lat, lng float64, precision int) string {
	if precision < 1 {
		precision = 1
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}

// cellSizeKm is the approximate minimum cell dimension per geohash
// precision. A query circle of radius r is covered by the center cell and
// its eight neighbors as long as the cell dimension is at least r.
var cellSizeKm = [...]float64{
	1: 2500,
	2: 630,
	3: 78,
	4: 20,
	5: 2.4,
	6: 0.61,
	7: 0.076,
	8: 0.019,
}

// PrecisionForRadius returns the longest geohash precision whose cells are
// still large enough that a circle of radiusKm fits inside one cell ring.
func PrecisionForRadius(radiusKm float64) int {
	for p := len(cellSizeKm) - 1; p >= 1; p-- {
		if cellSizeKm[p] >= radiusKm {
			return p
		}
	}
	return 1
}

// QueryBounds returns one or more geohash ranges whose bounding boxes cover
// the circle around center. The cover is the center cell plus its eight
// neighbors at the given precision; lexicographically consecutive cells are
// merged into a single range, so a circle straddling several cells yields
// several ranges.
//
// Longitude wraparound at the ±180° antimeridian is not handled: a circle
// crossing it produces bounds for the near side only.
func QueryBounds(center Point, radiusKm float64, precision int) []Bound {
	if radiusKm < 0 || !ValidCoordinates(center.Lat, center.Lng) {
		return nil
	}
	if precision < 1 {
		precision = PrecisionForRadius(radiusKm)
	}
	if precision > MaxPrecision {
		precision = MaxPrecision
	}

	cell := Encode(center.Lat, center.Lng, precision)
	cells := append(geohash.Neighbors(cell), cell)
	sort.Strings(cells)
	cells = dedupeSorted(cells)

	bounds := make([]Bound, 0, len(cells))
	runStart, runEnd := cells[0], cells[0]
	for _, c := range cells[1:] {
		if c == base32Successor(runEnd) {
			runEnd = c
			continue
		}
		bounds = append(bounds, Bound{Start: runStart, End: runEnd + boundSentinel})
		runStart, runEnd = c, c
	}
	bounds = append(bounds, Bound{Start: runStart, End: runEnd + boundSentinel})
	return bounds
}

// base32Successor returns the next geohash cell of the same length in sort
// order, or "" when the last character is the final alphabet symbol (a
// carry across cell prefixes never merges, which is fine for a cover).
func base32Successor(hash string) string {
	if hash == "" {
		return ""
	}
	last := hash[len(hash)-1]
	for i := 0; i < len(base32)-1; i++ {
		if base32[i] == last {
			return hash[:len(hash)-1] + string(base32[i+1])
		}
	}
	return ""
}

func dedupeSorted(s []string) []string {
	out := s[:0]
	for i, v := range s {
		if i == 0 || v != s[i-1] {
			out = append(out, v)
		}
	}
	return out
}
