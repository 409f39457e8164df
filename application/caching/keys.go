package caching

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"time"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
)

// KeyFor is the cache key of one entity, e.g. "user:42".
func KeyFor(kind entities.Kind, id int64) string {
	return kind.Singular + ":" + strconv.FormatInt(id, 10)
}

// CollectionKey is the cache key of a kind's full listing, e.g. "users:all".
func CollectionKey(kind entities.Kind) string {
	return kind.Plural + ":all"
}

// EntityPattern matches every per-entity key of kind.
func EntityPattern(kind entities.Kind) string {
	return kind.Singular + ":*"
}

// TTLSource resolves entry lifetimes per kind, keyed by plural name.
type TTLSource interface {
	SingleTTL(plural string) time.Duration
	CollectionTTL(plural string) time.Duration
}

// FixedTTL uses the same lifetimes for every kind.
type FixedTTL struct {
	Single     time.Duration
	Collection time.Duration
}

func (f FixedTTL) SingleTTL(string) time.Duration     { return f.Single }
func (f FixedTTL) CollectionTTL(string) time.Duration { return f.Collection }

var jsonNull = []byte("null")

// GetJSON reads key and decodes it into a V. An entry that fails to decode
// is reported as a miss so the caller reloads and overwrites it.
func GetJSON[V any](ctx context.Context, c ports.Cache, key string) (V, ports.LookupStatus) {
	var v V
	lookup := c.Get(ctx, key)
	if lookup.Status != ports.LookupHit {
		return v, lookup.Status
	}
	if bytes.Equal(bytes.TrimSpace(lookup.Value), jsonNull) {
		return v, ports.LookupMiss
	}
	if err := json.Unmarshal(lookup.Value, &v); err != nil {
		var zero V
		return zero, ports.LookupMiss
	}
	return v, ports.LookupHit
}

// SetJSON encodes v and stores it under key for ttl.
func SetJSON(ctx context.Context, c ports.Cache, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
