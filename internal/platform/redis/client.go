// Package redis connects the OCR line cache.
package redis

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docverify/internal/platform/config"
)

const healthTimeout = 2 * time.Second

// Client is a go-redis client that was reachable at startup.
type Client struct {
	*redis.Client
}

// New dials the cache described by cfg and pings it once. An empty URL means the
// cache is disabled and New returns a nil client without error.
func New(ctx context.Context, cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	opts.PoolSize = cmp.Or(cfg.PoolSize, opts.PoolSize)
	opts.MinIdleConns = cmp.Or(cfg.MinIdleConns, opts.MinIdleConns)
	opts.DialTimeout = cmp.Or(cfg.DialTimeout, opts.DialTimeout)
	opts.ReadTimeout = cmp.Or(cfg.ReadTimeout, opts.ReadTimeout)
	opts.WriteTimeout = cmp.Or(cfg.WriteTimeout, opts.WriteTimeout)

	c := &Client{Client: redis.NewClient(opts)}
	if err := c.Health(ctx); err != nil {
		_ = c.Client.Close()
		return nil, fmt.Errorf("connect ocr cache at %s: %w", opts.Addr, err)
	}
	return c, nil
}

// Health pings the server, bounded so a stalled cache cannot hold up /health.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, healthTimeout)
	defer cancel()
	return c.Ping(ctx).Err()
}
