package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hr-backend/domain/core/entities"
	"hr-backend/pkg/common"
	apperrors "hr-backend/pkg/errors"
)

// CacheFlusher drops every cached entry of a kind.
type CacheFlusher interface {
	Flush(ctx context.Context, kind entities.Kind) int64
}

type AdminHandler struct {
	flusher CacheFlusher
	errors  *apperrors.ErrorHandler
	logger  *zap.Logger
}

func NewAdminHandler(flusher CacheFlusher, errs *apperrors.ErrorHandler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{flusher: flusher, errors: errs, logger: logger}
}

// FlushCache handles POST /api/admin/cache/flush[?kind=users]. Without a
// kind every kind is flushed.
func (h *AdminHandler) FlushCache(w http.ResponseWriter, r *http.Request) {
	kinds := entities.Kinds()
	if name := r.URL.Query().Get("kind"); name != "" {
		kind, ok := lookupKind(name)
		if !ok {
			h.errors.Handle(w, r, apperrors.NewValidationError("unknown kind: "+name))
			return
		}
		kinds = []entities.Kind{kind}
	}

	removed := make(map[string]int64, len(kinds))
	for _, kind := range kinds {
		removed[kind.Plural] = h.flusher.Flush(r.Context(), kind)
	}

	h.logger.Info("Cache flushed", zap.Any("removed", removed))
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"removed": removed})
}

func lookupKind(name string) (entities.Kind, bool) {
	for _, k := range entities.Kinds() {
		if k.Plural == name || k.Singular == name {
			return k, true
		}
	}
	return entities.Kind{}, false
}
