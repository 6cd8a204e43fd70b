package redisvl

import (
	"github.com/redis/rueidis"

	"github.com/tuhinmallick/redisvl/internal/redis"
)

// NewClientForTest creates a Client over the provided rueidis client,
// skipping connection setup and the readiness check (test-only).
func NewClientForTest(c rueidis.Client) *Client {
	return &Client{store: redis.NewStoreForTest(c)}
}
