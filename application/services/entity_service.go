package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"hr-backend/application/caching"
	"hr-backend/application/ports"
	"hr-backend/domain/core/entities"
	apperrors "hr-backend/pkg/errors"
)

// EntityService is the CRUD use case for one record kind. Reads go through
// the cache; writes go through the WritePipeline. Errors are returned as
// *apperrors.AppError.
type EntityService[T entities.Entity] struct {
	kind     entities.Kind
	repo     ports.Repository[T]
	reads    *caching.ReadThrough[T]
	writes   *WritePipeline[T]
	newEmpty func() T
	now      func() time.Time
	logger   *zap.Logger
}

func NewEntityService[T entities.Entity](
	kind entities.Kind,
	repo ports.Repository[T],
	reads *caching.ReadThrough[T],
	writes *WritePipeline[T],
	newEmpty func() T,
	logger *zap.Logger,
) *EntityService[T] {
	return &EntityService[T]{
		kind:     kind,
		repo:     repo,
		reads:    reads,
		writes:   writes,
		newEmpty: newEmpty,
		now:      time.Now,
		logger:   logger.With(zap.String("kind", kind.Plural)),
	}
}

func (s *EntityService[T]) Kind() entities.Kind { return s.kind }

func (s *EntityService[T]) Get(ctx context.Context, id int64) (T, error) {
	entity, err := s.reads.Get(ctx, id)
	if err != nil {
		var zero T
		return zero, s.translate("get", err)
	}
	return entity, nil
}

func (s *EntityService[T]) List(ctx context.Context) ([]T, error) {
	list, err := s.reads.List(ctx)
	if err != nil {
		return nil, s.translate("list", err)
	}
	return list, nil
}

// Decode parses a request body into a new entity. Server-owned fields in
// the body are ignored.
func (s *EntityService[T]) Decode(body []byte) (T, error) {
	entity := s.newEmpty()
	if err := mergeJSON(entity, body); err != nil {
		var zero T
		return zero, err
	}
	return entity, nil
}

func (s *EntityService[T]) Create(ctx context.Context, entity T) (T, error) {
	var zero T
	entity.SetEntityID(0)
	entity.ApplyDefaults()
	if err := entity.Validate(); err != nil {
		return zero, s.invalid(err)
	}
	entity.Stamp(s.now())

	if err := s.writes.Create(ctx, entity); err != nil {
		return zero, s.translate("create", err)
	}
	return entity, nil
}

// Update applies patch to the stored record. Fields absent from patch keep
// their stored values.
func (s *EntityService[T]) Update(ctx context.Context, id int64, patch []byte) (T, error) {
	var zero T
	entity, err := s.repo.Load(ctx, id)
	if err != nil {
		return zero, s.translate("update", err)
	}
	if err := mergeJSON(entity, patch); err != nil {
		return zero, err
	}
	entity.ApplyDefaults()
	if err := entity.Validate(); err != nil {
		return zero, s.invalid(err)
	}

	if err := s.writes.Update(ctx, entity); err != nil {
		return zero, s.translate("update", err)
	}
	return entity, nil
}

func (s *EntityService[T]) Delete(ctx context.Context, id int64) error {
	if err := s.writes.Delete(ctx, id); err != nil {
		return s.translate("delete", err)
	}
	return nil
}

func (s *EntityService[T]) translate(op string, err error) error {
	switch {
	case errors.Is(err, ports.ErrNotFound):
		return apperrors.NewNotFoundError(s.kind.Singular)
	case errors.Is(err, ports.ErrConflict):
		return apperrors.NewConflictError(fmt.Sprintf("%s already exists", s.kind.Singular)).WithCause(err)
	case errors.Is(err, ports.ErrUnavailable):
		s.logger.Warn("Repository unavailable", zap.String("op", op), zap.Error(err))
		return apperrors.NewUnavailableError("database").WithCause(err)
	}
	s.logger.Error("Repository operation failed", zap.String("op", op), zap.Error(err))
	return apperrors.NewDatabaseError(fmt.Sprintf("%s %s", op, s.kind.Singular), err)
}

func (s *EntityService[T]) invalid(err error) error {
	return apperrors.NewValidationError(err.Error()).
		WithDetails(map[string]interface{}{"resource": s.kind.Singular})
}

// mergeJSON decodes body onto dst, skipping the fields the server owns.
func mergeJSON(dst interface{}, body []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return apperrors.NewValidationError("request body must be a JSON object")
	}
	delete(fields, "id")
	delete(fields, "created_at")

	clean, err := json.Marshal(fields)
	if err != nil {
		return apperrors.NewInternalError("re-encode request body").WithCause(err)
	}
	if err := json.Unmarshal(clean, dst); err != nil {
		return apperrors.NewValidationError(fmt.Sprintf("invalid field: %v", err))
	}
	return nil
}
