package geo

// Cluster groups nearby points for map rendering. Center is the arithmetic
// mean of the member points; a singleton cluster keeps its seed as center.
type Cluster struct {
	Center Point   `json:"center"`
	Points []Point `json:"points"`
	Count  int     `json:"count"`
}

// ClusterPoints groups points by greedy single-pass seeding: each
// unprocessed point opens a cluster and absorbs every remaining unprocessed
// point within radiusKm of the seed. Membership is measured against the
// seed only, not against other absorbed members, so clusters are stars
// rather than transitive chains. Every point is assigned to exactly one
// cluster.
//
// The result depends on input order; callers relying on stable map pins
// must pass points in a stable order. O(n²), intended for small
// viewport-bounded point sets.
func ClusterPoints(points []Point, radiusKm float64) []Cluster {
	if len(points) == 0 || radiusKm < 0 {
		return nil
	}

	processed := make([]bool, len(points))
	clusters := make([]Cluster, 0)

	for i, seed := range points {
		if processed[i] {
			continue
		}
		processed[i] = true
		members := []Point{seed}

		for j := i + 1; j < len(points); j++ {
			if processed[j] {
				continue
			}
			if WithinRadius(seed, points[j], radiusKm) {
				processed[j] = true
				members = append(members, points[j])
			}
		}

		clusters = append(clusters, Cluster{
			Center: centroid(members, seed),
			Points: members,
			Count:  len(members),
		})
	}

	return clusters
}

// centroid returns the arithmetic mean of members; a singleton keeps the
// seed.
func centroid(members []Point, seed Point) Point {
	if len(members) == 1 {
		return seed
	}
	var sumLat, sumLng float64
	for _, p := range members {
		sumLat += p.Lat
		sumLng += p.Lng
	}
	n := float64(len(members))
	return Point{Lat: sumLat / n, Lng: sumLng / n}
}
