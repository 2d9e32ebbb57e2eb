package gitlog

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"git-repo-analytics/internal/cache"
)

func newTestCache(t *testing.T) cache.Store {
	t.Helper()
	store, err := cache.NewBoltStore(filepath.Join(t.TempDir(), "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCachedExtractorWarmRun(t *testing.T) {
	f := newFixtureRepo(t)
	f.writeAndCommit(t, "a.py", "a = 1\n", "first")
	f.writeAndCommit(t, "b.py", "b = 2\n", "second")

	store := newTestCache(t)
	ctx := context.Background()

	ex, err := Open(f.dir)
	if err != nil {
		t.Fatal(err)
	}

	cold, err := NewCachedExtractor(ex, store, time.Hour).Extract(ctx)
	if err != nil {
		t.Fatal(err)
	}

	warm, err := NewCachedExtractor(ex, store, time.Hour).Extract(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(cold, warm) {
		t.Errorf("warm run differs from cold run:\ncold: %+v\nwarm: %+v", cold, warm)
	}
}

func TestCachedExtractorIncrementalExtend(t *testing.T) {
	f := newFixtureRepo(t)
	f.writeAndCommit(t, "a.py", "a = 1\n", "first")

	store := newTestCache(t)
	ctx := context.Background()

	ex, err := Open(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewCachedExtractor(ex, store, time.Hour).Extract(ctx); err != nil {
		t.Fatal(err)
	}

	// Advance history; a fresh extractor sees the new HEAD.
	second := f.writeAndCommit(t, "b.py", "b = 2\n", "second")

	ex2, err := Open(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	merged, err := NewCachedExtractor(ex2, store, time.Hour).Extract(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if len(merged.Commits) != 2 {
		t.Fatalf("expected 2 commits after extend, got %d", len(merged.Commits))
	}
	if merged.Commits[0].Hash != second {
		t.Errorf("expected new commit first, got %s", merged.Commits[0].Hash)
	}

	// The merged result must match a full cold walk exactly.
	full, err := ex2.Extract(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(merged.Commits, full.Commits) {
		t.Errorf("incremental merge differs from full walk")
	}

	// No duplicates by hash.
	seen := map[string]bool{}
	for _, c := range merged.Commits {
		if seen[c.Hash] {
			t.Errorf("duplicate commit %s in merged result", c.Hash)
		}
		seen[c.Hash] = true
	}
}

func TestCachedExtractorColdStartWithoutCacheEntries(t *testing.T) {
	f := newFixtureRepo(t)
	f.writeAndCommit(t, "a.py", "a = 1\n", "only")

	store := newTestCache(t)

	ex, err := Open(f.dir)
	if err != nil {
		t.Fatal(err)
	}
	result, err := NewCachedExtractor(ex, store, time.Hour).Extract(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Commits) != 1 {
		t.Errorf("expected 1 commit, got %d", len(result.Commits))
	}
}
