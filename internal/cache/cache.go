// Package cache provides a durable key/value store with per-entry expiry.
//
// Every collector and analyzer in the pipeline treats the cache as optional:
// a missing, expired or corrupt entry surfaces as ErrMiss and the caller
// recomputes. Corruption is never fatal.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned by Get when a key is absent, expired, or its stored
// envelope cannot be decoded.
var ErrMiss = errors.New("cache miss")

// Store is the persistence capability used by the collectors. Implementations
// must support concurrent reads/writes of distinct keys without cross-key
// interference; per-key atomicity suffices.
type Store interface {
	// Get returns the value stored under key, or ErrMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put stores value under key. A ttl <= 0 means the entry never expires.
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Invalidate removes an entry unconditionally. Removing an absent key is
	// not an error.
	Invalidate(ctx context.Context, key string) error

	Close() error
}

// envelope wraps a cached value with its expiry so backends without native
// TTL support (bolt) can enforce it on read.
type envelope struct {
	ExpiresAt int64  `json:"expires_at"` // unix seconds, 0 = no expiry
	Value     []byte `json:"value"` // base64 under encoding/json, so any bytes round-trip
}

func (e *envelope) expired(now time.Time) bool {
	return e.ExpiresAt != 0 && now.Unix() > e.ExpiresAt
}

// GetJSON reads key and unmarshals the value into out. Decoding failures are
// reported as ErrMiss so callers degrade to recomputation.
func GetJSON(ctx context.Context, s Store, key string, out interface{}) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		// A readable entry that does not decode is as good as absent.
		_ = s.Invalidate(ctx, key)
		return ErrMiss
	}
	return nil
}

// PutJSON marshals value and stores it under key.
func PutJSON(ctx context.Context, s Store, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}
	return s.Put(ctx, key, raw, ttl)
}

// Key builds a cache key from a resource type and its discriminators, e.g.
// Key("remote", "issues", "page", "3") -> "remote:issues:page:3". Keys embed
// their own versioning discriminators so no schema migration is needed.
func Key(parts ...string) string {
	key := ""
	for i, p := range parts {
		if i > 0 {
			key += ":"
		}
		key += p
	}
	return key
}
