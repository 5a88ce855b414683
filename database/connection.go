package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

const (
	applicationName     = "bookclub"
	defaultConnIdleTime = 5 * time.Minute
)

// DB wraps the pgx pool shared by every repository and unit of work
type DB struct {
	*pgxpool.Pool
}

// Option adjusts the pool configuration before it is opened
type Option func(*pgxpool.Config)

// WithMaxConns caps the pool size. Zero keeps the pgx default.
func WithMaxConns(n int) Option {
	return func(c *pgxpool.Config) {
		if n > 0 {
			c.MaxConns = int32(n)
		}
	}
}

// WithMinConns keeps n connections warm. Values above MaxConns are clamped.
func WithMinConns(n int) Option {
	return func(c *pgxpool.Config) {
		if n <= 0 {
			return
		}
		c.MinConns = int32(n)
		if c.MinConns > c.MaxConns {
			c.MinConns = c.MaxConns
		}
	}
}

// poolConfig parses the URL and applies session defaults plus any options.
// Sessions run in UTC so approved_at and paid_at round-trip unchanged.
func poolConfig(databaseURL string, opts ...Option) (*pgxpool.Config, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	config.ConnConfig.RuntimeParams["timezone"] = "UTC"
	config.ConnConfig.RuntimeParams["application_name"] = applicationName
	config.MaxConnIdleTime = defaultConnIdleTime

	for _, opt := range opts {
		opt(config)
	}
	return config, nil
}

// NewConnection opens the pool and verifies it with a ping
func NewConnection(ctx context.Context, databaseURL string, opts ...Option) (*DB, error) {
	config, err := poolConfig(databaseURL, opts...)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.WithFields(log.Fields{
		"maxConns": config.MaxConns,
		"minConns": config.MinConns,
	}).Debug("Database pool opened")

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}
