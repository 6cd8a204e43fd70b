package vectorize

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/tuhinmallick/redisvl"
)

const cacheKeyPrefix = "embcache:"

// store is the consumer interface for the embedding cache (ISP).
// *redisvl.Client satisfies it.
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cached decorates a Vectorizer with a key-value embedding cache.
// Concurrent embeds of the same text are collapsed into one provider
// call; cache failures degrade to provider calls, never to errors.
type Cached struct {
	inner      Vectorizer
	store      store
	ttl        time.Duration
	logger     *slog.Logger
	cacheTotal *prometheus.CounterVec
	group      singleflight.Group
}

// CachedConfig holds the decorator settings.
type CachedConfig struct {
	TTL        time.Duration         // 0 = cache entries never expire
	Logger     *slog.Logger          // nil disables logging
	Registerer prometheus.Registerer // nil disables metrics
}

// NewCached wraps a vectorizer with a cache backed by s.
func NewCached(inner Vectorizer, s store, cfg CachedConfig) (*Cached, error) {
	c := &Cached{
		inner:  inner,
		store:  s,
		ttl:    cfg.TTL,
		logger: cfg.Logger,
	}

	if cfg.Registerer != nil {
		c.cacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "redisvl",
			Subsystem: "vectorize",
			Name:      "embedding_cache_total",
			Help:      "Embedding cache lookups by result.",
		}, []string{"result"})
		if err := registerOrReuse(cfg.Registerer, &c.cacheTotal); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Embed returns a cached embedding or calls the inner vectorizer.
func (c *Cached) Embed(ctx context.Context, text string) ([]float32, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return vec, nil
	}
	c.incCache("miss")

	// singleflight collapses concurrent misses for the same text.
	v, err, _ := c.group.Do(key, func() (any, error) {
		vec, err := c.inner.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		c.putToCache(ctx, key, vec)
		return vec, nil
	})
	if err != nil {
		return nil, err
	}

	vec := v.([]float32)
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, nil
}

// EmbedBatch serves cached texts locally and embeds the misses through
// the inner vectorizer in one batch call.
func (c *Cached) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if vec, ok := c.getFromCache(ctx, c.cacheKey(text)); ok {
			c.incCache("hit")
			out[i] = vec
			continue
		}
		c.incCache("miss")
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		vecs, err := c.inner.EmbedBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		if len(vecs) != len(missTexts) {
			return nil, fmt.Errorf("embedding batch has %d vectors for %d texts: %w",
				len(vecs), len(missTexts), ErrProviderError)
		}
		for j, vec := range vecs {
			out[missIdx[j]] = vec
			c.putToCache(ctx, c.cacheKey(missTexts[j]), vec)
		}
	}

	return out, nil
}

// Dimensions delegates to the inner vectorizer.
func (c *Cached) Dimensions() int { return c.inner.Dimensions() }

// Model delegates to the inner vectorizer.
func (c *Cached) Model() string { return c.inner.Model() }

func (c *Cached) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey includes the model so different models never share vectors.
func (c *Cached) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.inner.Model() + ":" + hex.EncodeToString(h[:])
}

func (c *Cached) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redisvl.ErrKeyNotFound) {
			c.warn("failed to get cached embedding", key, err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.warn("failed to parse cached embedding", key, err)
		return nil, false
	}
	return vec, true
}

func (c *Cached) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToBytes(vec)

	var err error
	if c.ttl > 0 {
		err = c.store.SetWithTTL(ctx, key, data, c.ttl)
	} else {
		err = c.store.Set(ctx, key, data)
	}
	if err != nil {
		c.warn("failed to cache embedding", key, err)
	}
}

func (c *Cached) warn(msg, key string, err error) {
	if c.logger != nil {
		c.logger.Warn(msg, "key", key, "error", err)
	}
}

func vectorToBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid cached vector: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// registerOrReuse registers a collector or reuses an existing one.
func registerOrReuse[T prometheus.Collector](reg prometheus.Registerer, c *T) error {
	if err := reg.Register(*c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			existing, ok := are.ExistingCollector.(T)
			if !ok {
				return fmt.Errorf("vectorize: metric already registered with incompatible type: %T", are.ExistingCollector)
			}
			*c = existing
			return nil
		}
		return fmt.Errorf("vectorize: register metric: %w", err)
	}
	return nil
}
