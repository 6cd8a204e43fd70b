package query

import (
	"errors"
	"fmt"

	"github.com/tuhinmallick/redisvl/filter"
)

// RangeQuery finds every record whose vector lies within a distance
// threshold of the query vector, rather than the top K. The threshold is
// mutable after construction; callers that post-filter client-side read
// it back through DistanceThreshold.
type RangeQuery struct {
	vector       []float32
	field        string
	filter       filter.Expression
	returnFields []string
	numResults   int
	sortField    string
	sortAsc      bool
	threshold    float64
	dialect      int
}

// NewRangeQuery builds a vector range query over the named vector field.
// The threshold defaults to DefaultDistanceThreshold.
func NewRangeQuery(vector []float32, field string, opts ...Option) (*RangeQuery, error) {
	if len(vector) == 0 {
		return nil, errors.New("vector must not be empty")
	}
	if field == "" {
		return nil, errors.New("vector field name is required")
	}

	s := applyOptions(opts)
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.threshold < 0 {
		return nil, fmt.Errorf("distance threshold must not be negative, got %g", s.threshold)
	}

	q := &RangeQuery{
		vector:       vector,
		field:        field,
		filter:       s.filter,
		returnFields: s.returnFields,
		numResults:   s.numResults,
		sortField:    DistanceAlias,
		sortAsc:      true,
		threshold:    s.threshold,
		dialect:      s.dialect,
	}
	if s.sortSet {
		q.sortField = s.sortField
		q.sortAsc = s.sortAsc
	}
	return q, nil
}

// SetFilter replaces the filter expression. The next render observes it.
func (q *RangeQuery) SetFilter(e filter.Expression) { q.filter = e }

// SetDistanceThreshold replaces the radius used on the next execution.
func (q *RangeQuery) SetDistanceThreshold(v float64) error {
	if v < 0 {
		return fmt.Errorf("distance threshold must not be negative, got %g", v)
	}
	q.threshold = v
	return nil
}

// DistanceThreshold reports the current radius.
func (q *RangeQuery) DistanceThreshold() float64 { return q.threshold }

// String renders the range clause, intersected with a non-wildcard
// filter inside one parenthesized group.
func (q *RangeQuery) String() string {
	rangeClause := "@" + q.field + ":[VECTOR_RANGE $" + thresholdParam + " $" + vectorParam +
		"]=>{$yield_distance_as: " + DistanceAlias + "}"
	if f := filter.Render(q.filter); f != "*" {
		return "(" + rangeClause + " " + f + ")"
	}
	return rangeClause
}

// Params binds the query vector and the current threshold.
func (q *RangeQuery) Params() []Param {
	return []Param{
		{Name: vectorParam, Value: EncodeVector(q.vector)},
		{Name: thresholdParam, Value: formatFloat(q.threshold)},
	}
}

// ReturnFields lists the projected fields with DistanceAlias appended.
func (q *RangeQuery) ReturnFields() []string {
	return withDistanceAlias(q.returnFields)
}

// SortBy reports the sort order, vector distance ascending by default.
func (q *RangeQuery) SortBy() (string, bool, bool) {
	return q.sortField, q.sortAsc, true
}

// Paging requests the first numResults rows.
func (q *RangeQuery) Paging() (int, int) { return 0, q.numResults }

// Dialect reports the query dialect version.
func (q *RangeQuery) Dialect() int { return q.dialect }
