package gitlog

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/cache"
)

const headPointerKey = "history:head"

// CachedExtractor layers the cache store over an Extractor so repeat runs
// skip unchanged history. Cache keys embed the head hash, so a moved HEAD
// naturally invalidates the previous full extraction while still serving as
// the prefix for an incremental walk.
type CachedExtractor struct {
	ex    *Extractor
	store cache.Store
	ttl   time.Duration
}

func NewCachedExtractor(ex *Extractor, store cache.Store, ttl time.Duration) *CachedExtractor {
	return &CachedExtractor{ex: ex, store: store, ttl: ttl}
}

// Extract returns the full history for the current HEAD. Resolution order:
// exact cached extraction for this head, then incremental extend of the last
// cached extraction, then a cold full walk. Cache failures always degrade to
// recomputation.
func (c *CachedExtractor) Extract(ctx context.Context) (*ExtractResult, error) {
	head := c.ex.HeadHash()
	key := cache.Key("history", head)

	var cached ExtractResult
	if err := cache.GetJSON(ctx, c.store, key, &cached); err == nil {
		logrus.WithField("head", head).Debug("history served from cache")
		return &cached, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		return nil, err
	}

	if result := c.extendCached(ctx, head); result != nil {
		c.persist(ctx, key, result)
		return result, nil
	}

	result, err := c.ex.Extract(ctx, "")
	if err != nil {
		return nil, err
	}
	c.persist(ctx, key, result)
	return result, nil
}

// extendCached walks only the commits after the last cached head and splices
// them onto the cached prefix. Returns nil when no usable prefix exists or
// the incremental walk fails; the caller falls back to a full extraction.
func (c *CachedExtractor) extendCached(ctx context.Context, head string) *ExtractResult {
	var lastHead string
	if err := cache.GetJSON(ctx, c.store, headPointerKey, &lastHead); err != nil || lastHead == "" || lastHead == head {
		return nil
	}

	var prefix ExtractResult
	if err := cache.GetJSON(ctx, c.store, cache.Key("history", lastHead), &prefix); err != nil {
		return nil
	}

	delta, err := c.ex.Extract(ctx, lastHead)
	if err != nil {
		logrus.WithError(err).Warn("incremental history extraction failed, falling back to full walk")
		return nil
	}

	// The delta stops strictly before lastHead, so concatenation is gap-free.
	// The seen-set guards against a rewritten prefix (force push).
	seen := make(map[string]struct{}, len(delta.Commits))
	merged := &ExtractResult{
		HeadHash:       head,
		Commits:        delta.Commits,
		SkippedCommits: delta.SkippedCommits + prefix.SkippedCommits,
	}
	for _, commit := range merged.Commits {
		seen[commit.Hash] = struct{}{}
	}
	for _, commit := range prefix.Commits {
		if _, dup := seen[commit.Hash]; dup {
			continue
		}
		merged.Commits = append(merged.Commits, commit)
	}

	logrus.WithFields(logrus.Fields{
		"head":        head,
		"new_commits": len(delta.Commits),
		"cached":      len(prefix.Commits),
	}).Debug("history extended from cached prefix")

	return merged
}

func (c *CachedExtractor) persist(ctx context.Context, key string, result *ExtractResult) {
	if err := cache.PutJSON(ctx, c.store, key, result, c.ttl); err != nil {
		logrus.WithError(err).Warn("failed to cache history extraction")
		return
	}
	if err := cache.PutJSON(ctx, c.store, headPointerKey, result.HeadHash, c.ttl); err != nil {
		logrus.WithError(err).Warn("failed to cache history head pointer")
	}
}
