package query

import (
	"errors"
	"strconv"

	"github.com/tuhinmallick/redisvl/filter"
)

// VectorQuery is a KNN search over a vector field, optionally restricted
// by a filter expression. Results carry the computed distance under
// DistanceAlias and sort by it ascending unless WithSortBy overrides.
type VectorQuery struct {
	vector       []float32
	field        string
	filter       filter.Expression
	returnFields []string
	numResults   int
	sortField    string
	sortAsc      bool
	dialect      int
}

// NewVectorQuery builds a KNN query for the given vector over the named
// vector field. Dimensionality is not checked here; the engine rejects
// mismatches at execution time.
func NewVectorQuery(vector []float32, field string, opts ...Option) (*VectorQuery, error) {
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
	if s.thresholdSet {
		return nil, errors.New("distance threshold only applies to range queries")
	}

	q := &VectorQuery{
		vector:       vector,
		field:        field,
		filter:       s.filter,
		returnFields: s.returnFields,
		numResults:   s.numResults,
		sortField:    DistanceAlias,
		sortAsc:      true,
		dialect:      s.dialect,
	}
	if s.sortSet {
		q.sortField = s.sortField
		q.sortAsc = s.sortAsc
	}
	return q, nil
}

// SetFilter replaces the filter expression. The next render observes it.
func (q *VectorQuery) SetFilter(e filter.Expression) { q.filter = e }

// String renders the query in KNN form, wrapping a non-wildcard filter
// in parentheses.
func (q *VectorQuery) String() string {
	knn := "=>[KNN " + strconv.Itoa(q.numResults) +
		" @" + q.field + " $" + vectorParam + " AS " + DistanceAlias + "]"
	if f := filter.Render(q.filter); f != "*" {
		return "(" + f + ")" + knn
	}
	return "*" + knn
}

// Params binds the query vector.
func (q *VectorQuery) Params() []Param {
	return []Param{{Name: vectorParam, Value: EncodeVector(q.vector)}}
}

// ReturnFields lists the projected fields with DistanceAlias appended.
func (q *VectorQuery) ReturnFields() []string {
	return withDistanceAlias(q.returnFields)
}

// SortBy reports the sort order, vector distance ascending by default.
func (q *VectorQuery) SortBy() (string, bool, bool) {
	return q.sortField, q.sortAsc, true
}

// Paging requests the first numResults rows.
func (q *VectorQuery) Paging() (int, int) { return 0, q.numResults }

// Dialect reports the query dialect version.
func (q *VectorQuery) Dialect() int { return q.dialect }

// withDistanceAlias appends DistanceAlias unless already requested.
func withDistanceAlias(fields []string) []string {
	for _, f := range fields {
		if f == DistanceAlias {
			out := make([]string, len(fields))
			copy(out, fields)
			return out
		}
	}
	out := make([]string, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, DistanceAlias)
}
