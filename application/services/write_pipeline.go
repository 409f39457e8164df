package services

import (
	"context"

	"go.uber.org/zap"

	"hr-backend/application/caching"
	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
)

// CreateHook runs after a create has been committed and its cache entries
// invalidated. Hooks cannot fail the write.
type CreateHook[T entities.Entity] func(ctx context.Context, entity T)

// WritePipeline runs every mutation of one kind through the same fixed
// order: commit to the repository, invalidate the cache, then notify. A
// failed commit stops the pipeline before anything else happens.
type WritePipeline[T entities.Entity] struct {
	kind        entities.Kind
	repo        ports.Repository[T]
	invalidator *caching.Invalidator
	onCreate    []CreateHook[T]
	logger      *zap.Logger
}

func NewWritePipeline[T entities.Entity](
	kind entities.Kind,
	repo ports.Repository[T],
	invalidator *caching.Invalidator,
	logger *zap.Logger,
) *WritePipeline[T] {
	return &WritePipeline[T]{
		kind:        kind,
		repo:        repo,
		invalidator: invalidator,
		logger:      logger.With(zap.String("kind", kind.Plural)),
	}
}

// OnCreate appends a hook run after each committed create.
func (p *WritePipeline[T]) OnCreate(hook CreateHook[T]) {
	p.onCreate = append(p.onCreate, hook)
}

func (p *WritePipeline[T]) Create(ctx context.Context, entity T) error {
	if err := p.repo.Save(ctx, entity); err != nil {
		return err
	}
	p.invalidator.AfterCreate(ctx, p.kind)
	for _, hook := range p.onCreate {
		hook(ctx, entity)
	}
	p.logger.Debug("Created", zap.Int64("id", entity.EntityID()))
	return nil
}

func (p *WritePipeline[T]) Update(ctx context.Context, entity T) error {
	if err := p.repo.Save(ctx, entity); err != nil {
		return err
	}
	p.invalidator.AfterUpdate(ctx, p.kind, entity.EntityID())
	p.logger.Debug("Updated", zap.Int64("id", entity.EntityID()))
	return nil
}

func (p *WritePipeline[T]) Delete(ctx context.Context, id int64) error {
	if err := p.repo.Delete(ctx, id); err != nil {
		return err
	}
	p.invalidator.AfterDelete(ctx, p.kind, id)
	p.logger.Debug("Deleted", zap.Int64("id", id))
	return nil
}
