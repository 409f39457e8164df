package caching

import (
	"context"

	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
	"hr-backend/pkg/observability"
)

// Invalidator removes cache entries made stale by a committed write. It
// never fails the write: delete errors are logged and counted, and the
// stale entry is left to expire by TTL.
type Invalidator struct {
	cache   ports.Cache
	logger  *zap.Logger
	metrics *observability.Collector
}

func NewInvalidator(cache ports.Cache, logger *zap.Logger, metrics *observability.Collector) *Invalidator {
	return &Invalidator{cache: cache, logger: logger, metrics: metrics}
}

// AfterCreate drops the collection entry. No per-entity entry can exist
// for an id that was just allocated.
func (i *Invalidator) AfterCreate(ctx context.Context, kind entities.Kind) {
	i.drop(ctx, kind, CollectionKey(kind))
}

// AfterUpdate drops the entity entry, then the collection entry.
func (i *Invalidator) AfterUpdate(ctx context.Context, kind entities.Kind, id int64) {
	i.drop(ctx, kind, KeyFor(kind, id), CollectionKey(kind))
}

// AfterDelete drops the entity entry, then the collection entry.
func (i *Invalidator) AfterDelete(ctx context.Context, kind entities.Kind, id int64) {
	i.drop(ctx, kind, KeyFor(kind, id), CollectionKey(kind))
}

// Flush drops every cached entry of kind and returns how many were removed.
// It counts as flushed only when every delete succeeded.
func (i *Invalidator) Flush(ctx context.Context, kind entities.Kind) int64 {
	var total int64
	failed := false
	for _, key := range []string{EntityPattern(kind), CollectionKey(kind)} {
		n, err := i.cache.Delete(ctx, key)
		if err != nil {
			i.logger.Warn("Cache flush failed", zap.String("kind", kind.Plural), zap.String("key", key), zap.Error(err))
			i.metrics.RecordInvalidation(kind.Plural, "error")
			failed = true
			continue
		}
		total += n
	}
	if !failed {
		i.metrics.RecordInvalidation(kind.Plural, "flushed")
	}
	return total
}

func (i *Invalidator) drop(ctx context.Context, kind entities.Kind, keys ...string) {
	for _, key := range keys {
		if _, err := i.cache.Delete(ctx, key); err != nil {
			i.logger.Warn("Cache invalidation failed, entry will expire by TTL",
				zap.String("key", key),
				zap.Error(err),
			)
			i.metrics.RecordInvalidation(kind.Plural, "error")
			continue
		}
		i.metrics.RecordInvalidation(kind.Plural, "ok")
	}
}
