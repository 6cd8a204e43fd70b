// Package query builds RediSearch query strings and parameter sets for
// KNN, vector range, filter and count searches. A Query carries its own
// paging, sorting and dialect, so an executor can drive FT.SEARCH
// without interpreting the query it was handed.
package query

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"

	"github.com/tuhinmallick/redisvl/filter"
)

// DistanceAlias is the field name under which the computed vector
// distance is yielded, returned and sorted.
const DistanceAlias = "vector_distance"

const (
	vectorParam    = "vector"
	thresholdParam = "distance_threshold"
)

const (
	defaultNumResults = 10
	defaultDialect    = 2
)

// DefaultDistanceThreshold is the range radius used by NewRangeQuery
// unless WithDistanceThreshold overrides it.
const DefaultDistanceThreshold = 0.2

// Param is one name/value pair for the PARAMS section of FT.SEARCH.
// Vector values are raw little-endian float32 buffers held in a string.
type Param struct {
	Name  string
	Value string
}

// Query is the executable form shared by all query variants.
type Query interface {
	// String renders the query expression.
	String() string
	// Params lists the bound parameters, in PARAMS order.
	Params() []Param
	// ReturnFields lists the fields to project. Empty means all fields.
	ReturnFields() []string
	// SortBy reports the sort field and direction. ok is false when the
	// query does not sort.
	SortBy() (field string, ascending, ok bool)
	// Paging reports the LIMIT offset and count. A zero limit asks the
	// engine for no rows, only the total.
	Paging() (offset, limit int)
	// Dialect reports the query dialect version.
	Dialect() int
}

var (
	_ Query = (*VectorQuery)(nil)
	_ Query = (*RangeQuery)(nil)
	_ Query = (*FilterQuery)(nil)
	_ Query = (*CountQuery)(nil)
)

// Option configures a query at construction. Not every option applies
// to every variant; constructors reject the ones they do not support.
type Option func(*settings)

type settings struct {
	filter       filter.Expression
	returnFields []string
	returnSet    bool
	numResults   int
	numSet       bool
	sortField    string
	sortAsc      bool
	sortSet      bool
	threshold    float64
	thresholdSet bool
	dialect      int
}

// WithFilter restricts the query to records matching the expression.
func WithFilter(e filter.Expression) Option {
	return func(s *settings) { s.filter = e }
}

// WithReturnFields sets the fields to project from each result.
func WithReturnFields(fields ...string) Option {
	return func(s *settings) {
		s.returnFields = fields
		s.returnSet = true
	}
}

// WithNumResults sets how many results to request.
func WithNumResults(n int) Option {
	return func(s *settings) {
		s.numResults = n
		s.numSet = true
	}
}

// WithSortBy sorts results by a field instead of the default order.
func WithSortBy(field string, ascending bool) Option {
	return func(s *settings) {
		s.sortField = field
		s.sortAsc = ascending
		s.sortSet = true
	}
}

// WithDistanceThreshold sets the range query radius. Only range queries
// accept it.
func WithDistanceThreshold(v float64) Option {
	return func(s *settings) {
		s.threshold = v
		s.thresholdSet = true
	}
}

// WithDialect overrides the query dialect version.
func WithDialect(d int) Option {
	return func(s *settings) { s.dialect = d }
}

func applyOptions(opts []Option) settings {
	s := settings{
		numResults: defaultNumResults,
		threshold:  DefaultDistanceThreshold,
		dialect:    defaultDialect,
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

func (s *settings) validate() error {
	if s.numResults < 1 {
		return fmt.Errorf("num results must be positive, got %d", s.numResults)
	}
	if s.dialect < 1 {
		return fmt.Errorf("dialect must be positive, got %d", s.dialect)
	}
	return nil
}

// EncodeVector packs a vector into the binary form RediSearch expects
// for vector parameters: little-endian IEEE 754 float32, four bytes per
// component.
func EncodeVector(vector []float32) string {
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return string(buf)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
