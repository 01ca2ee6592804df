// Package storage remembers which verdicts were already published, so the same claim analyzed
// twice within the retention window is sent to the sinks once.
package storage

import (
	"fmt"
	"strings"
	"time"
)

// Backends accepted by NewStore.
const (
	TypeNone  = "none"
	TypeBBolt = "bbolt"
)

// VerdictRecord is what is kept per verdict fingerprint.
type VerdictRecord struct {
	RequestID   string    `json:"request_id"`
	Source      string    `json:"source"`
	Confidence  float64   `json:"confidence"`
	Delivered   int       `json:"delivered"`
	PublishedAt time.Time `json:"published_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Store tracks published verdicts by fingerprint.
type Store interface {
	// Lookup returns the live record for a fingerprint, or nil when there is none.
	Lookup(fingerprint string) (*VerdictRecord, error)
	// Remember stores rec under fingerprint. PublishedAt and ExpiresAt are filled by the store.
	Remember(fingerprint string, rec VerdictRecord) error
	Close() error
}

// Options controls retention.
type Options struct {
	VerdictTTL      time.Duration
	CleanupInterval time.Duration
	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

const (
	defaultVerdictTTL      = 24 * time.Hour
	defaultCleanupInterval = 6 * time.Hour
)

// NewStore opens the backend named by typ.
func NewStore(typ, path string, opts Options) (Store, error) {
	opts = normalizeOptions(opts)

	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", TypeNone, "disabled":
		return noopStore{}, nil
	case TypeBBolt:
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		store, err := openBolt(path, opts)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.VerdictTTL <= 0 {
		opts.VerdictTTL = defaultVerdictTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopStore struct{}

func (noopStore) Lookup(string) (*VerdictRecord, error) { return nil, nil }
func (noopStore) Remember(string, VerdictRecord) error  { return nil }
func (noopStore) Close() error                          { return nil }
