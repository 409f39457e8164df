package ports

import (
	"context"
	"time"
)

// LookupStatus is the outcome of a cache read.
type LookupStatus int

const (
	LookupMiss LookupStatus = iota
	LookupHit
	// LookupUnavailable means the cache could not be asked. Callers treat
	// it like a miss but it is reported separately.
	LookupUnavailable
)

func (s LookupStatus) String() string {
	switch s {
	case LookupHit:
		return "hit"
	case LookupUnavailable:
		return "unavailable"
	default:
		return "miss"
	}
}

// Lookup carries the cached bytes when Status is LookupHit.
type Lookup struct {
	Status LookupStatus
	Value  []byte
}

// Cache is a key/value store with per-entry TTL. Implementations degrade
// instead of failing: when the backend is unreachable reads report
// LookupUnavailable and writes return an error the caller may ignore.
type Cache interface {
	Get(ctx context.Context, key string) Lookup

	// Set stores value under key for ttl, overwriting any existing entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key, or every key matching it when it contains '*',
	// and returns how many entries were removed.
	Delete(ctx context.Context, keyOrPattern string) (int64, error)

	Exists(ctx context.Context, key string) bool

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
}
