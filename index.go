package redisvl

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tuhinmallick/redisvl/internal/redis"
	"github.com/tuhinmallick/redisvl/query"
)

// Document is one indexed record. On Load, ID is the bare identifier
// and the storage key becomes prefix:ID. Documents returned by Query
// carry the full storage key as ID, ready to feed back into Expire.
type Document struct {
	ID     string
	Fields map[string]string
}

// SearchIndex manages one FT index and the hash documents under its
// prefix. Safe for concurrent use; all state lives in Redis.
type SearchIndex struct {
	client *Client
	schema *Schema
	def    *redis.IndexDefinition
}

// NewSearchIndex binds a validated schema to a client connection.
func NewSearchIndex(client *Client, schema *Schema) (*SearchIndex, error) {
	if client == nil {
		return nil, errors.New("redisvl: client is required")
	}
	if schema == nil {
		return nil, errors.New("redisvl: schema is required")
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &SearchIndex{client: client, schema: schema, def: schema.definition()}, nil
}

// Name returns the index name.
func (s *SearchIndex) Name() string { return s.schema.Index.Name }

// Key returns the storage key for a document identifier.
func (s *SearchIndex) Key(id string) string {
	return s.schema.Index.Prefix + ":" + id
}

// Create provisions the index. When it already exists: without
// overwrite ErrIndexExists is returned; with overwrite the definition
// is dropped (documents kept) and recreated.
func (s *SearchIndex) Create(ctx context.Context, overwrite bool) error {
	err := s.client.store.CreateIndex(ctx, s.def)
	if err == nil {
		return nil
	}
	if !errors.Is(err, redis.ErrIndexExists) || !overwrite {
		return err
	}

	if err := s.client.store.DropIndex(ctx, s.def.Name, false); err != nil {
		return fmt.Errorf("recreate index %s: %w", s.def.Name, err)
	}
	return s.client.store.CreateIndex(ctx, s.def)
}

// Delete removes the index definition. With dropDocuments the indexed
// hashes are deleted as well.
func (s *SearchIndex) Delete(ctx context.Context, dropDocuments bool) error {
	return s.client.store.DropIndex(ctx, s.def.Name, dropDocuments)
}

// Exists reports whether the index is defined.
func (s *SearchIndex) Exists(ctx context.Context) (bool, error) {
	return s.client.store.IndexExists(ctx, s.def.Name)
}

// Info returns the scalar attributes of FT.INFO.
func (s *SearchIndex) Info(ctx context.Context) (map[string]string, error) {
	return s.client.store.Info(ctx, s.def.Name)
}

// Load writes documents as hashes under the index prefix in one
// pipelined round-trip, applying ttl to each when positive.
func (s *SearchIndex) Load(ctx context.Context, docs []Document, ttl time.Duration) error {
	if len(docs) == 0 {
		return nil
	}

	items := make([]redis.HashItem, len(docs))
	for i, doc := range docs {
		if doc.ID == "" {
			return fmt.Errorf("load: document %d has no id", i)
		}
		items[i] = redis.HashItem{Key: s.Key(doc.ID), Fields: doc.Fields}
	}
	if err := s.client.store.HSetMulti(ctx, items); err != nil {
		return err
	}

	if ttl > 0 {
		for _, item := range items {
			if err := s.client.store.Expire(ctx, item.Key, ttl); err != nil {
				return err
			}
		}
	}
	return nil
}

// Query executes a built query against the index.
func (s *SearchIndex) Query(ctx context.Context, q query.Query) ([]Document, error) {
	offset, limit := q.Paging()
	sortField, sortAsc, sorted := q.SortBy()

	req := &redis.SearchRequest{
		Index:        s.def.Name,
		Query:        q.String(),
		ReturnFields: q.ReturnFields(),
		SortBy:       sortField,
		SortAsc:      sortAsc,
		Sorted:       sorted,
		Offset:       offset,
		Limit:        limit,
		Dialect:      q.Dialect(),
	}
	for _, p := range q.Params() {
		req.Params = append(req.Params, redis.Param{Name: p.Name, Value: p.Value})
	}

	result, err := s.client.store.Search(ctx, req)
	if err != nil {
		return nil, err
	}

	docs := make([]Document, len(result.Docs))
	for i, d := range result.Docs {
		docs[i] = Document{ID: d.Key, Fields: d.Fields}
	}
	return docs, nil
}

// Count executes a count query and returns the number of matches.
func (s *SearchIndex) Count(ctx context.Context, q *query.CountQuery) (int64, error) {
	return s.client.store.SearchCount(ctx, s.def.Name, q.String(), q.Dialect())
}

// Expire resets the TTL on a document by its full storage key.
func (s *SearchIndex) Expire(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.store.Expire(ctx, key, ttl)
}

// Clear deletes every document under the index prefix, leaving the
// index definition in place. Returns the number of deleted documents.
func (s *SearchIndex) Clear(ctx context.Context) (int64, error) {
	return s.client.store.DeleteByPrefix(ctx, s.schema.Index.Prefix+":")
}
