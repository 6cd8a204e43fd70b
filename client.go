// Package redisvl is a Redis vector library: a filter-expression
// algebra and query builder for RediSearch, index management over hash
// documents, and a semantic LLM cache built on top (see the llmcache
// and vectorize packages).
package redisvl

import (
	"context"
	"fmt"
	"time"

	"github.com/tuhinmallick/redisvl/internal/config"
	"github.com/tuhinmallick/redisvl/internal/redis"
)

const defaultReadinessTimeout = 10 * time.Second

// Client is the redisvl entry point: a connection to Redis plus the
// key-value and index primitives the library's layers build on.
type Client struct {
	store *redis.Store
}

// New connects to Redis. The address is resolved in order: explicit
// option (WithURL/WithAddrs), the REDIS_URL environment variable, then
// localhost:6379.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, o := range opts {
		o(cfg)
	}

	storeCfg, err := resolveStoreConfig(cfg)
	if err != nil {
		return nil, err
	}

	store, err := redis.NewStore(storeCfg)
	if err != nil {
		return nil, fmt.Errorf("redisvl: create store: %w", err)
	}

	if err := store.WaitForReady(context.Background(), defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("redisvl: redis not ready: %w", err)
	}

	return &Client{store: store}, nil
}

// resolveStoreConfig merges options with the environment. Explicit
// options win over REDIS_URL, which wins over the localhost default.
func resolveStoreConfig(cfg *clientConfig) (redis.Config, error) {
	url := cfg.url
	if url == "" && len(cfg.addrs) == 0 {
		url = config.ResolveRedisURL("")
	}

	var out redis.Config
	if url != "" {
		parsed, err := config.ParseRedisURL(url)
		if err != nil {
			return redis.Config{}, fmt.Errorf("redisvl: %w", err)
		}
		out = redis.Config{
			Addrs:    parsed.Addrs,
			Username: parsed.Username,
			Password: parsed.Password,
			DB:       parsed.DB,
		}
	} else {
		out = redis.Config{Addrs: cfg.addrs}
	}

	// Credential options override whatever the URL carried.
	if cfg.username != "" {
		out.Username = cfg.username
	}
	if cfg.password != "" {
		out.Password = cfg.password
	}
	if cfg.dbSet {
		out.DB = cfg.db
	}
	return out, nil
}

// Close releases the connection.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Get retrieves a plain value by key. Returns ErrKeyNotFound for a
// missing key.
func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.store.Get(ctx, key)
}

// Set stores a plain value.
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	return c.store.Set(ctx, key, value)
}

// SetWithTTL stores a plain value with an expiration.
func (c *Client) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.store.SetWithTTL(ctx, key, value, ttl)
}

// Del deletes a key.
func (c *Client) Del(ctx context.Context, key string) error {
	return c.store.Del(ctx, key)
}

// Expire resets the TTL on a key.
func (c *Client) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return c.store.Expire(ctx, key, ttl)
}

// DeleteByPrefix removes every key under the prefix and returns how
// many were deleted.
func (c *Client) DeleteByPrefix(ctx context.Context, prefix string) (int64, error) {
	return c.store.DeleteByPrefix(ctx, prefix)
}

// DropIndex removes an FT index by name. With dropDocuments the
// indexed hashes are deleted too.
func (c *Client) DropIndex(ctx context.Context, name string, dropDocuments bool) error {
	return c.store.DropIndex(ctx, name, dropDocuments)
}

// IndexInfo returns the scalar attributes of FT.INFO for an index.
func (c *Client) IndexInfo(ctx context.Context, name string) (map[string]string, error) {
	return c.store.Info(ctx, name)
}

// ListIndexes returns the names of all FT indexes.
func (c *Client) ListIndexes(ctx context.Context) ([]string, error) {
	return c.store.ListIndexes(ctx)
}
