// Package postgres opens and pools the database/sql connection used by the
// story store. The service only reads, so the client carries no
// transaction helpers.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/BotCoder254/story-discovery/pkg/config"
	_ "github.com/lib/pq"
)

// Client wraps the pooled connection.
type Client struct {
	DB *sql.DB
}

// New opens the pool and verifies connectivity with a ping before
// returning.
func New(cfg config.PostgresConfig) (*Client, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("opening postgres pool: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{DB: db}, nil
}

// Ping verifies the connection is still alive.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

// Close drains the pool.
func (c *Client) Close() error {
	return c.DB.Close()
}
