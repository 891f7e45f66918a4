// Package content defines the read-side model of the story corpus and the
// Store interface through which the discovery engine reads it. The content
// store is an external collaborator: the engine never writes items back.
package content

import (
	"strings"
	"time"
)

// Location is an optional place attached to a story.
type Location struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address,omitempty"`
}

// Engagement holds the interaction counters maintained by the content store.
type Engagement struct {
	Likes     int `json:"likes"`
	Comments  int `json:"comments"`
	Bookmarks int `json:"bookmarks"`
	Views     int `json:"views"`
}

// Item is a single story as read from the content store. Geohash is a
// derived field: present iff Location is present, computed when the corpus
// snapshot is built, never written back.
type Item struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Tags       []string   `json:"tags,omitempty"`
	Location   *Location  `json:"location,omitempty"`
	Geohash    string     `json:"geohash,omitempty"`
	Engagement Engagement `json:"engagement"`
	TripType   string     `json:"trip_type,omitempty"`
	Mood       string     `json:"mood,omitempty"`
	Privacy    string     `json:"privacy,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	IsDraft    bool       `json:"is_draft"`
}

// HasLocation reports whether the item carries usable coordinates.
func (it *Item) HasLocation() bool {
	return it.Location != nil
}

// SearchText concatenates every tokenizable field: title, body, author name,
// location name and address, and tags.
func (it *Item) SearchText() string {
	parts := make([]string, 0, 6)
	parts = append(parts, it.Title, it.Body, it.AuthorName)
	if it.Location != nil {
		parts = append(parts, it.Location.Name, it.Location.Address)
	}
	parts = append(parts, it.Tags...)
	return strings.Join(parts, " ")
}

// HasTag reports whether the item carries the given tag, case-insensitively.
func (it *Item) HasTag(tag string) bool {
	for _, t := range it.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// SearchResult pairs an item with its relevance score and, for geospatial
// queries, the great-circle distance from the query center.
type SearchResult struct {
	Item           Item     `json:"item"`
	RelevanceScore float64  `json:"relevance_score"`
	DistanceKm     *float64 `json:"distance_km,omitempty"`
}
