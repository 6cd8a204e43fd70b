package llmcache

import (
	"context"
	"math"
	"time"

	"github.com/tuhinmallick/redisvl"
	"github.com/tuhinmallick/redisvl/query"
)

// stubVectorizer returns a fixed 4-dim vector and counts calls.
type stubVectorizer struct {
	vector []float32
	err    error
	calls  int
}

func (s *stubVectorizer) Embed(_ context.Context, _ string) ([]float32, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.vector != nil {
		return s.vector, nil
	}
	return []float32{0.1, 0.2, 0.3, 0.4}, nil
}

func (s *stubVectorizer) Dimensions() int { return 4 }

// mockIndex implements the searchIndex consumer interface with func fields.
type mockIndex struct {
	createFn func(ctx context.Context, overwrite bool) error
	loadFn   func(ctx context.Context, docs []redisvl.Document, ttl time.Duration) error
	queryFn  func(ctx context.Context, q query.Query) ([]redisvl.Document, error)
	expireFn func(ctx context.Context, key string, ttl time.Duration) error
	clearFn  func(ctx context.Context) (int64, error)
}

func (m *mockIndex) Create(ctx context.Context, overwrite bool) error {
	if m.createFn != nil {
		return m.createFn(ctx, overwrite)
	}
	return nil
}

func (m *mockIndex) Load(ctx context.Context, docs []redisvl.Document, ttl time.Duration) error {
	if m.loadFn != nil {
		return m.loadFn(ctx, docs, ttl)
	}
	return nil
}

func (m *mockIndex) Query(ctx context.Context, q query.Query) ([]redisvl.Document, error) {
	if m.queryFn != nil {
		return m.queryFn(ctx, q)
	}
	return nil, nil
}

func (m *mockIndex) Expire(ctx context.Context, key string, ttl time.Duration) error {
	if m.expireFn != nil {
		return m.expireFn(ctx, key, ttl)
	}
	return nil
}

func (m *mockIndex) Clear(ctx context.Context) (int64, error) {
	if m.clearFn != nil {
		return m.clearFn(ctx)
	}
	return 0, nil
}

func (m *mockIndex) Key(id string) string { return defaultPrefix + ":" + id }

// newTestCache wires a cache directly to mocks, skipping New.
func newTestCache(idx searchIndex, v Vectorizer, threshold float64, ttl time.Duration) *Cache {
	c := &Cache{index: idx, vectorizer: v, ttl: ttl}
	c.threshold.Store(math.Float64bits(threshold))
	return c
}

// hitDoc builds a query result document at the given distance.
func hitDoc(key, response, distance string) redisvl.Document {
	return redisvl.Document{
		ID: key,
		Fields: map[string]string{
			FieldResponse:       response,
			query.DistanceAlias: distance,
		},
	}
}
