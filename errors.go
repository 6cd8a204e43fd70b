package redisvl

import "github.com/tuhinmallick/redisvl/internal/redis"

// Sentinel errors callers can branch on with errors.Is.
var (
	// ErrKeyNotFound is returned by Get for a missing key.
	ErrKeyNotFound = redis.ErrKeyNotFound
	// ErrIndexNotFound is returned when an operation targets an index
	// that does not exist.
	ErrIndexNotFound = redis.ErrIndexNotFound
	// ErrIndexExists is returned by SearchIndex.Create when the index is
	// already defined and overwrite was not requested.
	ErrIndexExists = redis.ErrIndexExists
)
