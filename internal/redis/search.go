package redis

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/rueidis"
)

// Param is one PARAMS name/value pair for FT.SEARCH.
type Param struct {
	Name  string
	Value string
}

// SearchRequest describes a single FT.SEARCH invocation. Query is the
// already-rendered query expression; parameter values arrive through
// Params untouched.
type SearchRequest struct {
	Index        string
	Query        string
	ReturnFields []string
	SortBy       string
	SortAsc      bool
	Sorted       bool
	Offset       int
	Limit        int
	Params       []Param
	Dialect      int
}

// Doc is one search hit: the record key and its projected fields.
type Doc struct {
	Key    string
	Fields map[string]string
}

// SearchResult carries the engine-reported total and the returned page.
type SearchResult struct {
	Total int64
	Docs  []Doc
}

// Search runs FT.SEARCH and parses the RESP2 reply.
func (s *Store) Search(ctx context.Context, req *SearchRequest) (*SearchResult, error) {
	args, err := buildSearchArgs(req)
	if err != nil {
		return nil, err
	}

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return nil, ErrIndexNotFound
		}
		return nil, &Error{Op: OpSearch, Err: err}
	}

	return parseSearchResult(raw)
}

// SearchCount runs FT.SEARCH with a zero-row window and returns only the
// matching total.
func (s *Store) SearchCount(ctx context.Context, index, query string, dialect int) (int64, error) {
	if dialect < 1 {
		dialect = 2
	}
	cmd := s.b().Arbitrary("FT.SEARCH").
		Args(index, query, "LIMIT", "0", "0", "DIALECT", strconv.Itoa(dialect)).
		Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return 0, ErrIndexNotFound
		}
		return 0, &Error{Op: OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return total, nil
}

func buildSearchArgs(req *SearchRequest) ([]string, error) {
	if req.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if req.Query == "" {
		return nil, fmt.Errorf("query is required")
	}

	args := []string{req.Index, req.Query}

	if len(req.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(req.ReturnFields)))
		args = append(args, req.ReturnFields...)
	}

	if req.Sorted {
		dir := "DESC"
		if req.SortAsc {
			dir = "ASC"
		}
		args = append(args, "SORTBY", req.SortBy, dir)
	}

	args = append(args, "LIMIT", strconv.Itoa(req.Offset), strconv.Itoa(req.Limit))

	if len(req.Params) > 0 {
		args = append(args, "PARAMS", strconv.Itoa(2*len(req.Params)))
		for _, p := range req.Params {
			args = append(args, p.Name, p.Value)
		}
	}

	dialect := req.Dialect
	if dialect < 1 {
		dialect = 2
	}
	args = append(args, "DIALECT", strconv.Itoa(dialect))

	return args, nil
}

// --- Result parsing ---

func parseSearchResult(raw []rueidis.RedisMessage) (*SearchResult, error) {
	if len(raw) == 0 {
		return &SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &SearchResult{}, nil
	}

	docs := make([]Doc, 0, total)
	// 2-stride: [total, key1, fields1, key2, fields2, ...]
	for i := 1; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		fields, err := raw[i+1].ToArray()
		if err != nil {
			continue
		}

		docs = append(docs, Doc{
			Key:    key,
			Fields: parseFieldPairs(fields),
		})
	}

	return &SearchResult{Total: total, Docs: docs}, nil
}

func parseFieldPairs(fields []rueidis.RedisMessage) map[string]string {
	m := make(map[string]string, len(fields)/2)
	for j := 0; j+1 < len(fields); j += 2 {
		name, err := fields[j].ToString()
		if err != nil {
			continue
		}
		value, ok := scalarToString(fields[j+1])
		if !ok {
			continue
		}
		m[name] = value
	}
	return m
}

// scalarToString renders string and integer replies; anything nested
// reports false.
func scalarToString(m rueidis.RedisMessage) (string, bool) {
	if s, err := m.ToString(); err == nil {
		return s, true
	}
	if n, err := m.AsInt64(); err == nil {
		return strconv.FormatInt(n, 10), true
	}
	return "", false
}
