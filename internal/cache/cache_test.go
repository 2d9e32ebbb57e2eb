package cache

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

func newTestStore(t *testing.T) *BoltStore {
	t.Helper()

	store, err := NewBoltStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPutGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "history:abc", []byte(`{"n":1}`), time.Hour); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	got, err := store.Get(ctx, "history:abc")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != `{"n":1}` {
		t.Errorf("unexpected value: %s", got)
	}
}

func TestGetAbsentKey(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	if !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestExpiredEntryIsMiss(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte(`"v"`), -time.Second); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	// Negative ttl means no expiry per the Store contract, so this must hit.
	if _, err := store.Get(ctx, "k"); err != nil {
		t.Fatalf("expected hit for ttl<=0, got %v", err)
	}

	// A 1ns ttl expires effectively immediately (expiry has second
	// granularity, so back-date via the envelope by sleeping past it).
	if err := store.Put(ctx, "k2", []byte(`"v"`), time.Nanosecond); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := store.Get(ctx, "k2"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss for expired entry, got %v", err)
	}
}

func TestInvalidate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.Put(ctx, "k", []byte(`1`), 0); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := store.Invalidate(ctx, "k"); err != nil {
		t.Fatalf("invalidate failed: %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after invalidate, got %v", err)
	}

	// Invalidating an absent key is not an error.
	if err := store.Invalidate(ctx, "absent"); err != nil {
		t.Errorf("invalidate of absent key failed: %v", err)
	}
}

func TestCorruptEntryDegradesToMiss(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	// Write garbage directly, bypassing the envelope encoding.
	err = store.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte("bad"), []byte("not json"))
	})
	if err != nil {
		t.Fatalf("raw put failed: %v", err)
	}

	if _, err := store.Get(context.Background(), "bad"); !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss for corrupt entry, got %v", err)
	}
}

func TestSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")
	ctx := context.Background()

	store, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	if err := store.Put(ctx, "durable", []byte(`42`), time.Hour); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	store.Close()

	reopened, err := NewBoltStore(path)
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "durable")
	if err != nil {
		t.Fatalf("get after reopen failed: %v", err)
	}
	if string(got) != `42` {
		t.Errorf("unexpected value after reopen: %s", got)
	}
}

func TestGetJSONRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	type page struct {
		Items   []int `json:"items"`
		HasMore bool  `json:"has_more"`
	}

	in := page{Items: []int{1, 2, 3}, HasMore: true}
	if err := PutJSON(ctx, store, Key("remote", "issues", "page", "1"), in, time.Hour); err != nil {
		t.Fatalf("PutJSON failed: %v", err)
	}

	var out page
	if err := GetJSON(ctx, store, "remote:issues:page:1", &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(out.Items) != 3 || !out.HasMore {
		t.Errorf("unexpected round-trip result: %+v", out)
	}
}

func TestKey(t *testing.T) {
	if got := Key("history", "abc123"); got != "history:abc123" {
		t.Errorf("unexpected key: %s", got)
	}
}

func TestPutGetNonJSONValue(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	value := []byte{0x00, 0xff, '{', 'n', 'o', 't', ' ', 'j', 's', 'o', 'n'}
	if err := store.Put(ctx, "blob", value, 0); err != nil {
		t.Fatalf("Put failed for non-JSON bytes: %v", err)
	}

	got, err := store.Get(ctx, "blob")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(got, value) {
		t.Errorf("value did not round-trip: got %v, want %v", got, value)
	}
}
