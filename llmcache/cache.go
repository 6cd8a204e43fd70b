// Package llmcache implements a semantic cache for LLM responses on top
// of a Redis vector index. Prompts are embedded, stored alongside their
// responses, and looked up by vector similarity, so a semantically close
// prompt can reuse an earlier answer without calling the model.
package llmcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/tuhinmallick/redisvl"
	"github.com/tuhinmallick/redisvl/query"
)

// Reserved hash field names. Metadata keys must not collide with them.
const (
	FieldPrompt   = "prompt"
	FieldResponse = "response"
	FieldVector   = "prompt_vector"
)

var reservedFields = map[string]bool{
	"id":                true,
	FieldPrompt:         true,
	FieldResponse:       true,
	FieldVector:         true,
	query.DistanceAlias: true,
}

var (
	// ErrInvalidThreshold is returned for thresholds outside [0, 1].
	ErrInvalidThreshold = errors.New("llmcache: distance threshold must be in [0, 1]")
	// ErrNoVectorizer is returned when an operation needs an embedding
	// but the cache was built without a vectorizer.
	ErrNoVectorizer = errors.New("llmcache: no vectorizer configured")
)

// searchIndex is the consumer interface over the vector index (ISP).
// *redisvl.SearchIndex satisfies it.
type searchIndex interface {
	Create(ctx context.Context, overwrite bool) error
	Load(ctx context.Context, docs []redisvl.Document, ttl time.Duration) error
	Query(ctx context.Context, q query.Query) ([]redisvl.Document, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Clear(ctx context.Context) (int64, error)
	Key(id string) string
}

// Vectorizer is the consumer interface over the embedding provider.
// Every vectorize implementation satisfies it.
type Vectorizer interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}

// Hit is one semantic cache match within the distance threshold.
type Hit struct {
	// Key is the full storage key of the cached entry.
	Key string
	// Distance is the vector distance between the query and the entry.
	// Always strictly below the threshold in effect at Check time.
	Distance float64
	// Response is the cached LLM response, when projected.
	Response string
	// Fields holds every projected field, metadata included.
	Fields map[string]string
}

// Cache is a semantic LLM cache. Safe for concurrent use; the distance
// threshold may be adjusted at runtime with SetThreshold.
type Cache struct {
	index      searchIndex
	searchIdx  *redisvl.SearchIndex
	vectorizer Vectorizer
	threshold  atomic.Uint64 // math.Float64bits
	ttl        time.Duration
	logger     *slog.Logger
	metrics    *cacheMetrics
}

// New connects a semantic cache to Redis, provisioning the backing
// vector index when it does not exist yet.
func New(ctx context.Context, client *redisvl.Client, opts ...Option) (*Cache, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.threshold < 0 || cfg.threshold > 1 {
		return nil, ErrInvalidThreshold
	}

	dims := cfg.dimensions
	if cfg.vectorizer != nil {
		if d := cfg.vectorizer.Dimensions(); d > 0 {
			dims = d
		}
	}

	index, err := redisvl.NewSearchIndex(client, cacheSchema(cfg.name, cfg.prefix, dims))
	if err != nil {
		return nil, fmt.Errorf("llmcache: build index: %w", err)
	}
	if err := index.Create(ctx, false); err != nil && !errors.Is(err, redisvl.ErrIndexExists) {
		return nil, fmt.Errorf("llmcache: create index: %w", err)
	}

	c := &Cache{
		index:      index,
		searchIdx:  index,
		vectorizer: cfg.vectorizer,
		ttl:        cfg.ttl,
		logger:     cfg.logger,
	}
	c.threshold.Store(math.Float64bits(cfg.threshold))

	if cfg.registerer != nil {
		m, err := newCacheMetrics(cfg.registerer)
		if err != nil {
			return nil, err
		}
		c.metrics = m
	}

	return c, nil
}

// cacheSchema describes the backing index: searchable prompt and
// response text plus a flat cosine vector over the prompt embedding.
func cacheSchema(name, prefix string, dims int) *redisvl.Schema {
	return &redisvl.Schema{
		Index: redisvl.IndexSettings{Name: name, Prefix: prefix},
		Fields: redisvl.FieldSet{
			Text: []redisvl.TextFieldSchema{
				{Name: FieldPrompt},
				{Name: FieldResponse},
			},
			Vector: []redisvl.VectorFieldSchema{{
				Name:           FieldVector,
				Dims:           dims,
				Algorithm:      "flat",
				DistanceMetric: "cosine",
			}},
		},
	}
}

// promptID derives the deterministic entry identifier, so storing the
// same prompt twice overwrites one entry instead of accumulating.
func promptID(prompt string) string {
	h := sha256.Sum256([]byte(prompt))
	return hex.EncodeToString(h[:])
}

// Store caches a response for a prompt and returns the storage key.
// Storing the same prompt again replaces the previous entry.
func (c *Cache) Store(ctx context.Context, prompt, response string, opts ...StoreOption) (string, error) {
	if prompt == "" {
		return "", errors.New("llmcache: prompt must not be empty")
	}
	if response == "" {
		return "", errors.New("llmcache: response must not be empty")
	}

	var so storeSettings
	for _, opt := range opts {
		opt(&so)
	}
	for k := range so.metadata {
		if reservedFields[k] {
			return "", fmt.Errorf("llmcache: metadata field %q is reserved", k)
		}
	}

	vector := so.vector
	if vector == nil {
		var err error
		vector, err = c.embed(ctx, prompt)
		if err != nil {
			return "", err
		}
	}

	fields := make(map[string]string, len(so.metadata)+3)
	for k, v := range so.metadata {
		fields[k] = v
	}
	fields[FieldPrompt] = prompt
	fields[FieldResponse] = response
	fields[FieldVector] = query.EncodeVector(vector)

	id := promptID(prompt)
	if err := c.index.Load(ctx, []redisvl.Document{{ID: id, Fields: fields}}, c.ttl); err != nil {
		return "", fmt.Errorf("llmcache: store entry: %w", err)
	}

	c.metrics.incStores()
	return c.index.Key(id), nil
}

// Check looks up semantically similar cached entries. Exactly one of
// WithPrompt and WithVector must be given. Only entries with a vector
// distance strictly below the threshold are returned; an empty result
// is a cache miss, not an error. Hits have their TTL refreshed when a
// TTL is configured.
func (c *Cache) Check(ctx context.Context, opts ...CheckOption) ([]Hit, error) {
	cs := defaultCheckSettings()
	for _, opt := range opts {
		opt(&cs)
	}
	if (cs.prompt == "") == (cs.vector == nil) {
		return nil, errors.New("llmcache: exactly one of prompt and vector is required")
	}

	start := time.Now()
	defer func() { c.metrics.observeCheck(time.Since(start)) }()

	vector := cs.vector
	if vector == nil {
		var err error
		vector, err = c.embed(ctx, cs.prompt)
		if err != nil {
			return nil, err
		}
	}

	q, err := query.NewVectorQuery(vector, FieldVector,
		query.WithNumResults(cs.numResults),
		query.WithReturnFields(cs.returnFields...),
	)
	if err != nil {
		return nil, fmt.Errorf("llmcache: build query: %w", err)
	}

	docs, err := c.index.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("llmcache: check: %w", err)
	}

	threshold := c.Threshold()
	var hits []Hit
	for _, doc := range docs {
		distance, err := strconv.ParseFloat(doc.Fields[query.DistanceAlias], 64)
		if err != nil {
			return nil, fmt.Errorf("llmcache: bad distance %q for %s: %w",
				doc.Fields[query.DistanceAlias], doc.ID, err)
		}
		if distance >= threshold {
			continue
		}

		fields := make(map[string]string, len(doc.Fields))
		for k, v := range doc.Fields {
			if k == query.DistanceAlias {
				continue // surfaced as Hit.Distance
			}
			fields[k] = v
		}
		hits = append(hits, Hit{
			Key:      doc.ID,
			Distance: distance,
			Response: doc.Fields[FieldResponse],
			Fields:   fields,
		})
		c.refreshTTL(ctx, doc.ID)
	}

	if len(hits) > 0 {
		c.metrics.incHits()
	} else {
		c.metrics.incMisses()
	}
	return hits, nil
}

// refreshTTL slides the entry expiry on a hit. Failures are logged,
// not returned: a stale TTL never invalidates a good answer.
func (c *Cache) refreshTTL(ctx context.Context, key string) {
	if c.ttl <= 0 {
		return
	}
	if err := c.index.Expire(ctx, key, c.ttl); err != nil && c.logger != nil {
		c.logger.Warn("failed to refresh cache entry ttl", "key", key, "error", err)
	}
}

func (c *Cache) embed(ctx context.Context, prompt string) ([]float32, error) {
	if c.vectorizer == nil {
		return nil, ErrNoVectorizer
	}
	vec, err := c.vectorizer.Embed(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("llmcache: embed prompt: %w", err)
	}
	return vec, nil
}

// Threshold returns the distance threshold currently in effect.
func (c *Cache) Threshold() float64 {
	return math.Float64frombits(c.threshold.Load())
}

// SetThreshold replaces the distance threshold. Valid range is [0, 1];
// in-flight Check calls observe either the old or the new value.
func (c *Cache) SetThreshold(v float64) error {
	if v < 0 || v > 1 {
		return ErrInvalidThreshold
	}
	c.threshold.Store(math.Float64bits(v))
	return nil
}

// TTL returns the configured entry lifetime, zero when entries persist.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Clear deletes every cached entry, leaving the index definition in
// place. Returns the number of deleted entries.
func (c *Cache) Clear(ctx context.Context) (int64, error) {
	return c.index.Clear(ctx)
}

// Index exposes the backing search index, nil when the cache was not
// built through New.
func (c *Cache) Index() *redisvl.SearchIndex { return c.searchIdx }
