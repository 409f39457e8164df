package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"hr-backend/application/ports"
	"hr-backend/infrastructure/cache"
	"hr-backend/pkg/common"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	cache ports.Cache
}

func NewHealthHandler(c ports.Cache) *HealthHandler {
	return &HealthHandler{cache: c}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready always answers 200: the API keeps serving from the repository
// when the cache is down, so an unreachable cache only marks it degraded.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	status, cacheStatus := "ready", "ok"
	if err := h.cache.Ping(ctx); err != nil {
		if errors.Is(err, cache.ErrDisabled) {
			cacheStatus = "disabled"
		} else {
			status, cacheStatus = "degraded", "unavailable"
		}
	}

	common.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": status,
		"checks": map[string]string{"cache": cacheStatus},
	})
}
