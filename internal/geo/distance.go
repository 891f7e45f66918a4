// Package geo provides the geospatial primitives of the discovery engine:
// great-circle distance, geohash encoding with circular query bounds, and
// proximity clustering for map display.
package geo

import "math"

// earthRadiusKm is the mean radius of Earth used for haversine distance.
const earthRadiusKm = 6371.0

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// HaversineKm returns the great-circle distance between a and b in
// kilometers.
func HaversineKm(a, b Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// WithinRadius reports whether b lies within radiusKm of a. A zero radius
// admits only exact-coincident points.
func WithinRadius(a, b Point, radiusKm float64) bool {
	return HaversineKm(a, b) <= radiusKm
}

// ValidCoordinates checks that latitude is in [-90,90] and longitude in
// [-180,180].
func ValidCoordinates(lat, lng float64) bool {
	return lat >= -90 && lat <= 90 && lng >= -180 && lng <= 180
}
