package redis

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

// newLiveStore connects a real store to an in-process redis. The FT
// command family is not covered here; miniredis does not implement it.
func newLiveStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	srv := miniredis.RunT(t)
	store, err := NewStore(Config{Addrs: []string{srv.Addr()}})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(store.Close)

	return store, srv
}

func TestLive_KV(t *testing.T) {
	store, _ := newLiveStore(t)
	ctx := context.Background()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound, got %v", err)
	}

	if err := store.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(got, []byte("v")) {
		t.Errorf("get = %q, want %q", got, "v")
	}

	if err := store.Del(ctx, "k"); err != nil {
		t.Fatalf("del: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected ErrKeyNotFound after delete, got %v", err)
	}
}

func TestLive_TTL(t *testing.T) {
	store, srv := newLiveStore(t)
	ctx := context.Background()

	if err := store.SetWithTTL(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set with ttl: %v", err)
	}
	if ttl := srv.TTL("k"); ttl != time.Minute {
		t.Errorf("ttl = %v, want 1m", ttl)
	}

	if err := store.Expire(ctx, "k", time.Hour); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if ttl := srv.TTL("k"); ttl != time.Hour {
		t.Errorf("ttl after expire = %v, want 1h", ttl)
	}

	srv.FastForward(2 * time.Hour)
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("expected key to expire, got %v", err)
	}
}

func TestLive_Hashes(t *testing.T) {
	store, _ := newLiveStore(t)
	ctx := context.Background()

	items := []HashItem{
		{Key: "users:john", Fields: map[string]string{"age": "18", "job": "engineer"}},
		{Key: "users:mary", Fields: map[string]string{"age": "14", "job": "doctor"}},
	}
	if err := store.HSetMulti(ctx, items); err != nil {
		t.Fatalf("hsetmulti: %v", err)
	}

	got, err := store.HGetAll(ctx, "users:john")
	if err != nil {
		t.Fatalf("hgetall: %v", err)
	}
	if got["age"] != "18" || got["job"] != "engineer" {
		t.Errorf("unexpected fields: %v", got)
	}

	exists, err := store.Exists(ctx, "users:mary")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("expected users:mary to exist")
	}
}

func TestLive_ScanAndDeleteByPrefix(t *testing.T) {
	store, _ := newLiveStore(t)
	ctx := context.Background()

	for _, key := range []string{"users:a", "users:b", "users:c", "other:x"} {
		if err := store.HSet(ctx, key, map[string]string{"f": "v"}); err != nil {
			t.Fatalf("hset %s: %v", key, err)
		}
	}

	keys, err := store.Scan(ctx, "users:*")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 3 || keys[0] != "users:a" || keys[2] != "users:c" {
		t.Errorf("unexpected keys: %v", keys)
	}

	deleted, err := store.DeleteByPrefix(ctx, "users:")
	if err != nil {
		t.Fatalf("delete by prefix: %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	exists, err := store.Exists(ctx, "other:x")
	if err != nil {
		t.Fatalf("exists: %v", err)
	}
	if !exists {
		t.Error("keys outside the prefix must survive")
	}
}

func TestLive_WaitForReady(t *testing.T) {
	store, _ := newLiveStore(t)

	if err := store.WaitForReady(context.Background(), 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
