package query

import (
	"errors"

	"github.com/tuhinmallick/redisvl/filter"
)

// FilterQuery returns records matching a filter expression, with no
// vector component.
type FilterQuery struct {
	filter       filter.Expression
	returnFields []string
	numResults   int
	sortField    string
	sortAsc      bool
	sortSet      bool
	dialect      int
}

// NewFilterQuery builds a query over the attached filter expression,
// which defaults to the wildcard.
func NewFilterQuery(opts ...Option) (*FilterQuery, error) {
	s := applyOptions(opts)
	if err := s.validate(); err != nil {
		return nil, err
	}
	if s.thresholdSet {
		return nil, errors.New("distance threshold only applies to range queries")
	}

	return &FilterQuery{
		filter:       s.filter,
		returnFields: s.returnFields,
		numResults:   s.numResults,
		sortField:    s.sortField,
		sortAsc:      s.sortAsc,
		sortSet:      s.sortSet,
		dialect:      s.dialect,
	}, nil
}

// SetFilter replaces the filter expression. The next render observes it.
func (q *FilterQuery) SetFilter(e filter.Expression) { q.filter = e }

// String renders the filter expression.
func (q *FilterQuery) String() string { return filter.Render(q.filter) }

// Params reports no bound parameters.
func (q *FilterQuery) Params() []Param { return nil }

// ReturnFields lists the projected fields. Empty means all fields.
func (q *FilterQuery) ReturnFields() []string { return q.returnFields }

// SortBy reports the sort order, if one was requested.
func (q *FilterQuery) SortBy() (string, bool, bool) {
	return q.sortField, q.sortAsc, q.sortSet
}

// Paging requests the first numResults rows.
func (q *FilterQuery) Paging() (int, int) { return 0, q.numResults }

// Dialect reports the query dialect version.
func (q *FilterQuery) Dialect() int { return q.dialect }

// CountQuery reports how many records match a filter expression without
// returning any of them.
type CountQuery struct {
	filter  filter.Expression
	dialect int
}

// NewCountQuery builds a count over the attached filter expression.
// Projection, paging and sorting options do not apply and are rejected.
func NewCountQuery(opts ...Option) (*CountQuery, error) {
	s := applyOptions(opts)
	if s.dialect < 1 {
		return nil, errors.New("dialect must be positive")
	}
	if s.thresholdSet {
		return nil, errors.New("distance threshold only applies to range queries")
	}
	if s.returnSet {
		return nil, errors.New("return fields do not apply to count queries")
	}
	if s.numSet {
		return nil, errors.New("num results does not apply to count queries")
	}
	if s.sortSet {
		return nil, errors.New("sorting does not apply to count queries")
	}

	return &CountQuery{filter: s.filter, dialect: s.dialect}, nil
}

// SetFilter replaces the filter expression. The next render observes it.
func (q *CountQuery) SetFilter(e filter.Expression) { q.filter = e }

// String renders the filter expression.
func (q *CountQuery) String() string { return filter.Render(q.filter) }

// Params reports no bound parameters.
func (q *CountQuery) Params() []Param { return nil }

// ReturnFields reports no projection.
func (q *CountQuery) ReturnFields() []string { return nil }

// SortBy reports that counts are unsorted.
func (q *CountQuery) SortBy() (string, bool, bool) { return "", false, false }

// Paging requests a zero-row window so the engine returns only the total.
func (q *CountQuery) Paging() (int, int) { return 0, 0 }

// Dialect reports the query dialect version.
func (q *CountQuery) Dialect() int { return q.dialect }
