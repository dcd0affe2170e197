// Package redisx provides the shared Redis client for Amptimal
// services: one way to build a client from a connection URL, probe it,
// and close it on shutdown. Services needing more than that use the
// underlying client directly via [Client.Unwrap].
package redisx

import (
	"context"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"amptimal.dev/svc/errors"
)

// Client wraps a redis client built from a connection URL.
type Client struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// New creates a Client from a URL of the form
// redis://[user:pass@]host:port/db. The connection is established
// lazily; use [Client.Ping] to verify it.
func New(url string, logger *slog.Logger) (*Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.Wrap(err, "redisx: invalid url")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		rdb:    redis.NewClient(opts),
		logger: logger,
	}, nil
}

// Ping checks that Redis is reachable. It is shaped to serve as a
// health.DependencyCheck.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		c.logger.Warn("redis ping failed", "err", err)
		return errors.Wrap(err, "redisx: ping failed")
	}
	return nil
}

// Unwrap returns the underlying client.
func (c *Client) Unwrap() *redis.Client {
	return c.rdb
}

// Close closes the connection. Call on shutdown.
func (c *Client) Close() error {
	return c.rdb.Close()
}
