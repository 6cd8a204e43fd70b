package redisvl

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/rueidis"
	"github.com/redis/rueidis/mock"
	"go.uber.org/mock/gomock"

	"github.com/tuhinmallick/redisvl/filter"
	"github.com/tuhinmallick/redisvl/query"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := ParseSchema([]byte(userSchemaYAML))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	return s
}

func newTestIndex(t *testing.T) (*SearchIndex, *mock.Client) {
	t.Helper()
	c, mc := newTestClient(t)
	idx, err := NewSearchIndex(c, testSchema(t))
	if err != nil {
		t.Fatalf("new search index: %v", err)
	}
	return idx, mc
}

func TestNewSearchIndex_Validation(t *testing.T) {
	c := &Client{}

	if _, err := NewSearchIndex(nil, testSchema(t)); err == nil {
		t.Error("expected error for nil client")
	}
	if _, err := NewSearchIndex(c, nil); err == nil {
		t.Error("expected error for nil schema")
	}
	if _, err := NewSearchIndex(c, &Schema{}); err == nil {
		t.Error("expected error for invalid schema")
	}
}

func TestSearchIndexKey(t *testing.T) {
	idx, _ := newTestIndex(t)
	if got := idx.Key("abc"); got != "users:abc" {
		t.Errorf("Key() = %q, want %q", got, "users:abc")
	}
	if got := idx.Name(); got != "user_index" {
		t.Errorf("Name() = %q, want %q", got, "user_index")
	}
}

func TestSearchIndexCreate(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE" && cmd[1] == "user_index"
		})).
		Return(mock.Result(mock.RedisString("OK")))

	if err := idx.Create(context.Background(), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchIndexCreate_ExistsWithoutOverwrite(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		Return(mock.Result(mock.RedisError("Index already exists")))

	err := idx.Create(context.Background(), false)
	if !errors.Is(err, ErrIndexExists) {
		t.Errorf("expected ErrIndexExists, got %v", err)
	}
}

func TestSearchIndexCreate_OverwriteRecreates(t *testing.T) {
	idx, mc := newTestIndex(t)

	first := true
	mc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.CREATE"
		})).
		DoAndReturn(func(_ context.Context, _ rueidis.Completed) rueidis.RedisResult {
			if first {
				first = false
				return mock.Result(mock.RedisError("Index already exists"))
			}
			return mock.Result(mock.RedisString("OK"))
		}).Times(2)
	mc.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "user_index")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := idx.Create(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchIndexExists(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.Match("FT.INFO", "user_index")).
		Return(mock.Result(mock.RedisError("Unknown Index name")))

	exists, err := idx.Exists(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if exists {
		t.Error("expected false")
	}
}

func TestSearchIndexLoad(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(3)),
			mock.Result(mock.RedisInt64(3)),
		})

	docs := []Document{
		{ID: "john", Fields: map[string]string{"age": "18"}},
		{ID: "mary", Fields: map[string]string{"age": "14"}},
	}
	if err := idx.Load(context.Background(), docs, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchIndexLoad_WithTTL(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{mock.Result(mock.RedisInt64(1))})
	mc.EXPECT().
		Do(gomock.Any(), mock.Match("EXPIRE", "users:john", "60")).
		Return(mock.Result(mock.RedisInt64(1)))

	docs := []Document{{ID: "john", Fields: map[string]string{"age": "18"}}}
	if err := idx.Load(context.Background(), docs, 60*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSearchIndexLoad_RequiresID(t *testing.T) {
	idx, _ := newTestIndex(t)

	err := idx.Load(context.Background(), []Document{{Fields: map[string]string{"a": "b"}}}, 0)
	if err == nil {
		t.Fatal("expected error for document without id")
	}
}

func TestSearchIndexQuery(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "FT.SEARCH" &&
				cmd[1] == "user_index" &&
				cmd[2] == "*=>[KNN 2 @user_embedding $vector AS vector_distance]"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(2),
			mock.RedisString("users:john"),
			mock.RedisArray(
				mock.RedisString("user"), mock.RedisString("john"),
				mock.RedisString("vector_distance"), mock.RedisString("0"),
			),
			mock.RedisString("users:mary"),
			mock.RedisArray(
				mock.RedisString("user"), mock.RedisString("mary"),
				mock.RedisString("vector_distance"), mock.RedisString("0.1"),
			),
		)))

	q, err := query.NewVectorQuery([]float32{0.1, 0.1, 0.5}, "user_embedding",
		query.WithReturnFields("user"),
		query.WithNumResults(2),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	docs, err := idx.Query(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if docs[0].ID != "users:john" {
		t.Errorf("doc id = %q, want %q", docs[0].ID, "users:john")
	}
	if docs[1].Fields["vector_distance"] != "0.1" {
		t.Errorf("unexpected fields: %v", docs[1].Fields)
	}
}

func TestSearchIndexCount(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.Match(
			"FT.SEARCH", "user_index", "@credit_score:{high}",
			"LIMIT", "0", "0", "DIALECT", "2",
		)).
		Return(mock.Result(mock.RedisArray(mock.RedisInt64(4))))

	q, err := query.NewCountQuery(query.WithFilter(filter.Tag("credit_score").Eq("high")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	count, err := idx.Count(context.Background(), q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if count != 4 {
		t.Errorf("Count() = %d, want 4", count)
	}
}

func TestSearchIndexClear(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.MatchFn(func(cmd []string) bool {
			return cmd[0] == "SCAN" && cmd[3] == "users:*"
		})).
		Return(mock.Result(mock.RedisArray(
			mock.RedisInt64(0),
			mock.RedisArray(mock.RedisString("users:john"), mock.RedisString("users:mary")),
		)))
	mc.EXPECT().
		DoMulti(gomock.Any(), gomock.Any()).
		Return([]rueidis.RedisResult{
			mock.Result(mock.RedisInt64(1)),
			mock.Result(mock.RedisInt64(1)),
		})

	deleted, err := idx.Clear(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Clear() = %d, want 2", deleted)
	}
}

func TestSearchIndexDelete(t *testing.T) {
	idx, mc := newTestIndex(t)

	mc.EXPECT().
		Do(gomock.Any(), mock.Match("FT.DROPINDEX", "user_index", "DD")).
		Return(mock.Result(mock.RedisString("OK")))

	if err := idx.Delete(context.Background(), true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
