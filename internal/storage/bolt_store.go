package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

var verdictBucket = []byte("verdicts")

// boltStore keeps one JSON VerdictRecord per fingerprint.
type boltStore struct {
	db          *bolt.DB
	ttl         time.Duration
	now         func() time.Time
	mu          sync.Mutex
	every       time.Duration
	lastCleanup time.Time
}

func openBolt(path string, opts Options) (*boltStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(verdictBucket)
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init verdict bucket: %w", err)
	}

	return &boltStore{
		db:          db,
		ttl:         opts.VerdictTTL,
		now:         opts.Now,
		every:       opts.CleanupInterval,
		lastCleanup: opts.Now(),
	}, nil
}

func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// Lookup drops an expired or unreadable record instead of returning it.
func (b *boltStore) Lookup(fingerprint string) (*VerdictRecord, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}
	if fingerprint == "" {
		return nil, errors.New("verdict fingerprint is empty")
	}
	now := b.now()
	if err := b.sweep(now); err != nil {
		return nil, err
	}

	var rec *VerdictRecord
	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(verdictBucket)
		key := []byte(fingerprint)
		raw := bucket.Get(key)
		if raw == nil {
			return nil
		}
		r, ok := decodeRecord(raw)
		if !ok || !r.ExpiresAt.After(now) {
			return bucket.Delete(key)
		}
		rec = &r
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("lookup verdict: %w", err)
	}
	return rec, nil
}

func (b *boltStore) Remember(fingerprint string, rec VerdictRecord) error {
	if b == nil || b.db == nil {
		return nil
	}
	if fingerprint == "" {
		return errors.New("verdict fingerprint is empty")
	}
	now := b.now()
	if err := b.sweep(now); err != nil {
		return err
	}

	rec.PublishedAt = now.UTC()
	rec.ExpiresAt = now.Add(b.ttl).UTC()
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode verdict record: %w", err)
	}
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(verdictBucket).Put([]byte(fingerprint), raw)
	})
}

// sweep deletes expired records, at most once per cleanup interval.
func (b *boltStore) sweep(now time.Time) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if now.Sub(b.lastCleanup) < b.every {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(verdictBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			r, ok := decodeRecord(v)
			if ok && r.ExpiresAt.After(now) {
				continue
			}
			if err := c.Delete(); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("sweep expired verdicts: %w", err)
	}
	b.lastCleanup = now
	return nil
}

func decodeRecord(raw []byte) (VerdictRecord, bool) {
	var r VerdictRecord
	if err := json.Unmarshal(raw, &r); err != nil || r.ExpiresAt.IsZero() {
		return VerdictRecord{}, false
	}
	return r, true
}
