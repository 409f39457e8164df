package handlers

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"hr-backend/domain/core/entities"
	"hr-backend/pkg/auth"
	"hr-backend/pkg/common"
	apperrors "hr-backend/pkg/errors"
)

// UserReader loads the authenticated user.
type UserReader interface {
	Get(ctx context.Context, id int64) (*entities.User, error)
}

// AuthHandler serves the token endpoints. Both run behind Authenticate, so
// the claims are already on the request context.
type AuthHandler struct {
	jwt    *auth.JWTService
	users  UserReader
	errors *apperrors.ErrorHandler
	logger *zap.Logger
}

func NewAuthHandler(jwt *auth.JWTService, users UserReader, errs *apperrors.ErrorHandler, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{jwt: jwt, users: users, errors: errs, logger: logger}
}

// Refresh handles POST /api/auth/refresh with a refresh token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	claims, userID, err := h.identity(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	token, err := h.jwt.GenerateToken(userID, claims.Email, auth.TokenAccess)
	if err != nil {
		h.errors.Handle(w, r, apperrors.NewInternalError("failed to issue access token").WithCause(err))
		return
	}

	h.logger.Info("Token refreshed", zap.Int64("user_id", userID))
	common.RespondJSON(w, http.StatusOK, map[string]string{"access_token": token})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	_, userID, err := h.identity(r)
	if err != nil {
		h.errors.Handle(w, r, err)
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		h.errors.Handle(w, r, apperrors.Wrap(err, "current user"))
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (h *AuthHandler) identity(r *http.Request) (*auth.Claims, int64, error) {
	claims, ok := auth.GetUserFromContext(r.Context())
	if !ok {
		return nil, 0, apperrors.NewUnauthorizedError("")
	}
	id, err := claims.NumericUserID()
	if err != nil {
		return nil, 0, apperrors.NewUnauthorizedError(err.Error())
	}
	return claims, id, nil
}
