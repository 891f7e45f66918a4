// Package postgresstore implements content.Store over the stories table in
// PostgreSQL.
package postgresstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/BotCoder254/story-discovery/internal/content"
	apperrors "github.com/BotCoder254/story-discovery/pkg/errors"
	"github.com/BotCoder254/story-discovery/pkg/postgres"
)

const selectColumns = `id, title, body, author_id, author_name, tags,
	location_lat, location_lng, location_name, location_address,
	likes, comments, bookmarks, views,
	trip_type, mood, privacy, created_at, is_draft`

// Store reads the story corpus from PostgreSQL. It is strictly read-only:
// the discovery engine never writes stories back.
type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

// New creates a Store over the given client.
func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "postgres-store"),
	}
}

// GetAllItems fetches the full corpus in keyset-paginated pages of pageSize,
// ordered by ID so pagination is stable under concurrent inserts.
func (s *Store) GetAllItems(ctx context.Context, pageSize int) ([]content.Item, error) {
	if pageSize <= 0 {
		pageSize = 500
	}

	items := make([]content.Item, 0, pageSize)
	lastID := ""
	for {
		rows, err := s.db.DB.QueryContext(ctx,
			`SELECT `+selectColumns+`
			 FROM stories WHERE id > $1 ORDER BY id LIMIT $2`,
			lastID, pageSize,
		)
		if err != nil {
			return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503,
				"fetching stories page after %q: %v", lastID, err)
		}

		page, err := scanItems(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		if len(page) == 0 {
			break
		}
		items = append(items, page...)
		lastID = page[len(page)-1].ID
		if len(page) < pageSize {
			break
		}
	}
	s.logger.Debug("corpus fetched", "items", len(items))
	return items, nil
}

// PrefixRange returns items whose lowercased field falls in [start, end).
// The field name comes from a closed enum, never from user input.
func (s *Store) PrefixRange(ctx context.Context, field content.Field, start, end string) ([]content.Item, error) {
	var column string
	switch field {
	case content.FieldTitle:
		column = "title"
	case content.FieldAuthor:
		column = "author_name"
	default:
		return nil, apperrors.Newf(apperrors.ErrInvalidQuery, 400, "unknown prefix field %q", field)
	}

	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT `+selectColumns+`
		 FROM stories WHERE lower(`+column+`) >= $1 AND lower(`+column+`) < $2
		 ORDER BY id`,
		start, end,
	)
	if err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503,
			"prefix range on %s: %v", column, err)
	}
	defer rows.Close()

	return scanItems(rows)
}

func scanItems(rows *sql.Rows) ([]content.Item, error) {
	var items []content.Item
	for rows.Next() {
		var (
			it      content.Item
			tags    pq.StringArray
			lat     sql.NullFloat64
			lng     sql.NullFloat64
			locName sql.NullString
			locAddr sql.NullString
		)
		if err := rows.Scan(
			&it.ID, &it.Title, &it.Body, &it.AuthorID, &it.AuthorName, &tags,
			&lat, &lng, &locName, &locAddr,
			&it.Engagement.Likes, &it.Engagement.Comments,
			&it.Engagement.Bookmarks, &it.Engagement.Views,
			&it.TripType, &it.Mood, &it.Privacy, &it.CreatedAt, &it.IsDraft,
		); err != nil {
			return nil, fmt.Errorf("scanning story row: %w", err)
		}
		it.Tags = tags
		if lat.Valid && lng.Valid {
			it.Location = &content.Location{
				Lat:     lat.Float64,
				Lng:     lng.Float64,
				Name:    locName.String,
				Address: locAddr.String,
			}
		}
		it.CreatedAt = it.CreatedAt.UTC()
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Newf(apperrors.ErrStoreUnavailable, 503, "iterating story rows: %v", err)
	}
	return items, nil
}

// Ping verifies connectivity for health checks.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.DB.PingContext(ctx)
}
