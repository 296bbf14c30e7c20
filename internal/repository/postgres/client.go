package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Client wraps the pgx connection pool.
type Client struct {
	pool *pgxpool.Pool
	log  *zap.Logger
}

// NewClient connects to Postgres and verifies the connection.
func NewClient(ctx context.Context, dsn string, log *zap.Logger) (*Client, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Postgres connection established",
		zap.String("database", cfg.ConnConfig.Database),
		zap.String("host", cfg.ConnConfig.Host))

	return &Client{pool: pool, log: log}, nil
}

// Pool returns the underlying connection pool.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Close closes the connection pool.
func (c *Client) Close() {
	c.log.Info("Closing Postgres connection pool")
	c.pool.Close()
}
