package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

const boltBucket = "cache"

// BoltStore is the default Store backend: a single-file embedded database so
// cache entries survive process restarts without external infrastructure.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the cache database at path.
func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(boltBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

// Get returns the value stored under key, enforcing expiry on read.
func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(boltBucket)).Get([]byte(key))
		if raw == nil {
			return ErrMiss
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			// Corrupt entry: degrade to a miss, cleanup happens lazily.
			return ErrMiss
		}
		if env.expired(time.Now()) {
			return ErrMiss
		}

		value = make([]byte, len(env.Value))
		copy(value, env.Value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return value, nil
}

// Put stores value under key with the given ttl.
func (s *BoltStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	env := envelope{Value: value}
	if ttl > 0 {
		env.ExpiresAt = time.Now().Add(ttl).Unix()
	}

	raw, err := json.Marshal(&env)
	if err != nil {
		return fmt.Errorf("failed to encode cache envelope: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Put([]byte(key), raw)
	})
}

// Invalidate removes an entry unconditionally.
func (s *BoltStore) Invalidate(ctx context.Context, key string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(boltBucket)).Delete([]byte(key))
	})
}

// Close closes the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
