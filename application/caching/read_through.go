package caching

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
	"hr-backend/pkg/observability"
)

const (
	scopeSingle     = "single"
	scopeCollection = "collection"
)

// ReadThrough serves reads of one entity kind from the cache, loading from
// the repository and populating the cache on a miss. An unavailable cache
// is not written back to. Repository errors, including not found, are
// returned as is and never cached.
type ReadThrough[T entities.Entity] struct {
	kind    entities.Kind
	cache   ports.Cache
	repo    ports.Repository[T]
	ttl     TTLSource
	logger  *zap.Logger
	metrics *observability.Collector
}

func NewReadThrough[T entities.Entity](
	kind entities.Kind,
	cache ports.Cache,
	repo ports.Repository[T],
	ttl TTLSource,
	logger *zap.Logger,
	metrics *observability.Collector,
) *ReadThrough[T] {
	return &ReadThrough[T]{
		kind:    kind,
		cache:   cache,
		repo:    repo,
		ttl:     ttl,
		logger:  logger.With(zap.String("kind", kind.Plural)),
		metrics: metrics,
	}
}

// Get returns the entity with id.
func (r *ReadThrough[T]) Get(ctx context.Context, id int64) (entity T, err error) {
	key := KeyFor(r.kind, id)
	ctx, span := observability.StartSpan(ctx, "cache.get",
		attribute.String("cache.key", key),
		attribute.String("entity.kind", r.kind.Plural),
	)
	defer func() { observability.EndSpan(span, err) }()

	cached, status := GetJSON[T](ctx, r.cache, key)
	r.record(scopeSingle, status)
	span.SetAttributes(attribute.String("cache.result", status.String()))
	if status == ports.LookupHit {
		return cached, nil
	}

	entity, err = r.repo.Load(ctx, id)
	if err != nil {
		return entity, err
	}
	if status == ports.LookupMiss {
		r.populate(ctx, key, entity, r.ttl.SingleTTL(r.kind.Plural))
	}
	return entity, nil
}

// List returns every entity of the kind.
func (r *ReadThrough[T]) List(ctx context.Context) (list []T, err error) {
	key := CollectionKey(r.kind)
	ctx, span := observability.StartSpan(ctx, "cache.list",
		attribute.String("cache.key", key),
		attribute.String("entity.kind", r.kind.Plural),
	)
	defer func() { observability.EndSpan(span, err) }()

	cached, status := GetJSON[[]T](ctx, r.cache, key)
	r.record(scopeCollection, status)
	span.SetAttributes(attribute.String("cache.result", status.String()))
	if status == ports.LookupHit {
		return cached, nil
	}

	list, err = r.repo.LoadAll(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []T{}
	}
	if status == ports.LookupMiss {
		r.populate(ctx, key, list, r.ttl.CollectionTTL(r.kind.Plural))
	}
	return list, nil
}

func (r *ReadThrough[T]) populate(ctx context.Context, key string, v interface{}, ttl time.Duration) {
	if err := SetJSON(ctx, r.cache, key, v, ttl); err != nil {
		r.logger.Debug("Cache populate skipped", zap.String("key", key), zap.Error(err))
	}
}

func (r *ReadThrough[T]) record(scope string, status ports.LookupStatus) {
	r.metrics.RecordCacheLookup(r.kind.Plural, scope, status.String())
	if status == ports.LookupUnavailable {
		r.logger.Debug("Cache unavailable, reading from repository", zap.String("scope", scope))
	}
}
