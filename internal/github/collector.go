package github

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"git-repo-analytics/internal/cache"
)

// Collector drives pagination over a Fetcher with cache-before/write-through
// per page and bounded rate-limit retries.
type Collector struct {
	fetcher      Fetcher
	store        cache.Store
	ttl          time.Duration
	maxRetries   int
	maxRetryWait time.Duration
}

func NewCollector(fetcher Fetcher, store cache.Store, ttl time.Duration, maxRetries int, maxRetryWait time.Duration) *Collector {
	if maxRetries < 0 {
		maxRetries = 0
	}
	if maxRetryWait <= 0 {
		maxRetryWait = 2 * time.Minute
	}
	return &Collector{
		fetcher:      fetcher,
		store:        store,
		ttl:          ttl,
		maxRetries:   maxRetries,
		maxRetryWait: maxRetryWait,
	}
}

// FetchPage returns one page, consulting the cache before the remote call
// and writing through after a successful fetch.
func (c *Collector) FetchPage(ctx context.Context, resource Resource, page int) (Page, error) {
	key := cache.Key("remote", string(resource), "page", strconv.Itoa(page))

	var cached Page
	if err := cache.GetJSON(ctx, c.store, key, &cached); err == nil {
		return cached, nil
	}

	fetched, err := c.fetchWithRetry(ctx, resource, page)
	if err != nil {
		return Page{}, err
	}

	if err := cache.PutJSON(ctx, c.store, key, fetched, c.ttl); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("failed to cache remote page")
	}
	return fetched, nil
}

// fetchWithRetry suspends on rate-limit hints and retries up to the bounded
// budget. The wait is capped and cancellable through ctx.
func (c *Collector) fetchWithRetry(ctx context.Context, resource Resource, page int) (Page, error) {
	var lastHint *RateLimitedError

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		fetched, err := c.fetcher.FetchPage(ctx, resource, page)
		if err == nil {
			return fetched, nil
		}

		var rateErr *RateLimitedError
		if !errors.As(err, &rateErr) {
			return Page{}, fmt.Errorf("fetch %s page %d: %w", resource, page, err)
		}
		lastHint = rateErr

		if attempt == c.maxRetries {
			break
		}

		wait := rateErr.RetryAfter
		if wait <= 0 {
			wait = time.Second
		}
		if wait > c.maxRetryWait {
			wait = c.maxRetryWait
		}

		logrus.WithFields(logrus.Fields{
			"resource": resource,
			"page":     page,
			"wait":     wait,
			"attempt":  attempt + 1,
		}).Warn("rate limited, suspending fetch")

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Page{}, ctx.Err()
		case <-timer.C:
		}
	}

	return Page{}, fmt.Errorf("%w: %s page %d (last hint: %s)", ErrRateLimitExceeded, resource, page, lastHint.RetryAfter)
}

// CollectAll paginates a resource to completion or to failure. Items are
// deduplicated by id; when the same id appears on more than one page the
// last-fetched copy wins (a state change between page fetches). A failed
// page marks the collection truncated, retaining earlier pages.
func (c *Collector) CollectAll(ctx context.Context, resource Resource) Collection {
	col := Collection{Resource: resource}
	byID := make(map[int64]RemoteItem)

	for page := 1; ; page++ {
		fetched, err := c.FetchPage(ctx, resource, page)
		if err != nil {
			col.Truncated = true
			col.TruncatedAt = page
			col.Error = err.Error()
			logrus.WithFields(logrus.Fields{
				"resource": resource,
				"page":     page,
				"error":    err,
			}).Warn("resource collection truncated")
			break
		}

		col.PagesFetched++
		for _, item := range fetched.Items {
			byID[item.ID] = item
		}

		if !fetched.HasMore {
			break
		}
	}

	col.Items = make([]RemoteItem, 0, len(byID))
	for _, item := range byID {
		col.Items = append(col.Items, item)
	}
	// Stable output regardless of map iteration order.
	sort.Slice(col.Items, func(i, j int) bool { return col.Items[i].ID < col.Items[j].ID })

	return col
}
