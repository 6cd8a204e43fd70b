package vectorize

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/tuhinmallick/redisvl"
)

func errNotFound() error { return redisvl.ErrKeyNotFound }

func sha256Hex(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// stubVectorizer derives a deterministic 4-dim vector from the text.
type stubVectorizer struct {
	embedCalls int
	batchCalls int
	err        error
}

func stubVector(text string) []float32 {
	h := sha256.Sum256([]byte(text))
	vec := make([]float32, 4)
	for i := range vec {
		vec[i] = float32(h[i]) / 255
	}
	return vec
}

func (s *stubVectorizer) Embed(_ context.Context, text string) ([]float32, error) {
	s.embedCalls++
	if s.err != nil {
		return nil, s.err
	}
	return stubVector(text), nil
}

func (s *stubVectorizer) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	s.batchCalls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = stubVector(t)
	}
	return out, nil
}

func (s *stubVectorizer) Dimensions() int { return 4 }
func (s *stubVectorizer) Model() string   { return "stub-model" }

// mockKVStore implements the store consumer interface with func fields.
type mockKVStore struct {
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte) error
	ttlFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, redisvl.ErrKeyNotFound
}

func (m *mockKVStore) Set(ctx context.Context, key string, value []byte) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value)
	}
	return nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.ttlFn != nil {
		return m.ttlFn(ctx, key, value, ttl)
	}
	return nil
}
