package llmcache

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultName      = "cache"
	defaultPrefix    = "llmcache"
	defaultThreshold = 0.1
	// defaultNumResults keeps Check to the single best candidate.
	defaultNumResults = 1
	// defaultDimensions applies when no vectorizer reports a width.
	defaultDimensions = 768
)

type config struct {
	name       string
	prefix     string
	threshold  float64
	ttl        time.Duration
	vectorizer Vectorizer
	dimensions int
	logger     *slog.Logger
	registerer prometheus.Registerer
}

func defaultConfig() config {
	return config{
		name:       defaultName,
		prefix:     defaultPrefix,
		threshold:  defaultThreshold,
		dimensions: defaultDimensions,
	}
}

// Option configures the cache at construction.
type Option func(*config)

// WithName sets the backing index name.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

// WithPrefix sets the storage key prefix for cache entries.
func WithPrefix(prefix string) Option {
	return func(c *config) { c.prefix = prefix }
}

// WithDistanceThreshold sets the initial distance threshold. Valid
// range is [0, 1]; lower is stricter.
func WithDistanceThreshold(v float64) Option {
	return func(c *config) { c.threshold = v }
}

// WithTTL sets the entry lifetime. Hits slide the expiry; zero keeps
// entries until Clear.
func WithTTL(ttl time.Duration) Option {
	return func(c *config) { c.ttl = ttl }
}

// WithVectorizer sets the embedding provider used for prompts. Without
// one, callers must pass precomputed vectors to Store and Check.
func WithVectorizer(v Vectorizer) Option {
	return func(c *config) { c.vectorizer = v }
}

// WithDimensions sets the vector width when no vectorizer reports one.
func WithDimensions(dims int) Option {
	return func(c *config) { c.dimensions = dims }
}

// WithLogger sets the logger for best-effort failures (TTL refresh).
func WithLogger(l *slog.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithRegisterer enables Prometheus metrics on the given registerer.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(c *config) { c.registerer = r }
}

type storeSettings struct {
	vector   []float32
	metadata map[string]string
}

// StoreOption configures one Store call.
type StoreOption func(*storeSettings)

// StoreWithVector supplies a precomputed prompt embedding, skipping the
// vectorizer.
func StoreWithVector(v []float32) StoreOption {
	return func(s *storeSettings) { s.vector = v }
}

// StoreWithMetadata attaches extra fields to the entry. Keys must not
// collide with the reserved field names.
func StoreWithMetadata(md map[string]string) StoreOption {
	return func(s *storeSettings) { s.metadata = md }
}

type checkSettings struct {
	prompt       string
	vector       []float32
	numResults   int
	returnFields []string
}

func defaultCheckSettings() checkSettings {
	return checkSettings{
		numResults:   defaultNumResults,
		returnFields: []string{FieldResponse},
	}
}

// CheckOption configures one Check call.
type CheckOption func(*checkSettings)

// WithPrompt looks up by prompt text, embedding it first.
func WithPrompt(prompt string) CheckOption {
	return func(s *checkSettings) { s.prompt = prompt }
}

// WithVector looks up by a precomputed embedding.
func WithVector(v []float32) CheckOption {
	return func(s *checkSettings) { s.vector = v }
}

// WithNumResults sets how many candidates to consider, default 1.
func WithNumResults(n int) CheckOption {
	return func(s *checkSettings) { s.numResults = n }
}

// WithReturnFields sets the fields projected into each Hit, default
// just the response.
func WithReturnFields(fields ...string) CheckOption {
	return func(s *checkSettings) { s.returnFields = fields }
}
