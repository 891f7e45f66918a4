package content

import "context"

// Field names a prefix-searchable item field.
type Field string

const (
	FieldTitle  Field = "title"
	FieldAuthor Field = "author_name"
)

// Store is the read-only interface to the external content store.
type Store interface {
	// GetAllItems returns the full corpus, fetched in pages of pageSize.
	GetAllItems(ctx context.Context, pageSize int) ([]Item, error)
	// PrefixRange returns items whose lowercased field falls in the
	// half-open range [start, end).
	PrefixRange(ctx context.Context, field Field, start, end string) ([]Item, error)
}
