package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"hr-backend/domain/core/entities"
	"hr-backend/pkg/common"
	apperrors "hr-backend/pkg/errors"
)

const maxBodyBytes = 1 << 20

// EntityService is the use case an EntityHandler serves.
type EntityService[T any] interface {
	Kind() entities.Kind
	Get(ctx context.Context, id int64) (T, error)
	List(ctx context.Context) ([]T, error)
	Decode(body []byte) (T, error)
	Create(ctx context.Context, entity T) (T, error)
	Update(ctx context.Context, id int64, patch []byte) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Resource is a set of routes mounted under /api.
type Resource interface {
	Pattern() string
	Routes(r chi.Router)
}

// EntityHandler exposes CRUD routes for one record kind.
type EntityHandler[T any] struct {
	service EntityService[T]
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

func NewEntityHandler[T any](service EntityService[T], errs *apperrors.ErrorHandler, logger *zap.Logger) *EntityHandler[T] {
	return &EntityHandler[T]{service: service, errors: errs, logger: logger}
}

func (h *EntityHandler[T]) Pattern() string { return "/" + h.service.Kind().Plural }

func (h *EntityHandler[T]) Routes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

func (h *EntityHandler[T]) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.List(r.Context())
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondList(w, list, len(list))
}

func (h *EntityHandler[T]) Get(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	entity, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, entity)
}

func (h *EntityHandler[T]) Create(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(w, r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	entity, err := h.service.Decode(body)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	created, err := h.service.Create(r.Context(), entity)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, created)
}

func (h *EntityHandler[T]) Update(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	body, err := readBody(w, r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	updated, err := h.service.Update(r.Context(), id, body)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, updated)
}

func (h *EntityHandler[T]) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := h.pathID(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.errors.Handle(w, r, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%s deleted successfully", h.service.Kind().Singular),
	})
}

// pathID parses {id}. Anything other than a positive integer cannot name a
// record, so it is reported as not found.
func (h *EntityHandler[T]) pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewNotFoundError(h.service.Kind().Singular)
	}
	return id, nil
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return nil, apperrors.NewValidationError("request body too large or unreadable")
	}
	return body, nil
}
