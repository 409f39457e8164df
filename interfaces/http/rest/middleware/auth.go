package middleware

import (
	"errors"
	"net/http"
	"strings"

	"hr-backend/pkg/auth"
	apperrors "hr-backend/pkg/errors"
)

// Authenticate requires a bearer token of type want and stores its claims
// on the request context.
func Authenticate(jwt *auth.JWTService, want auth.TokenType, errs *apperrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				errs.Handle(w, r, apperrors.NewUnauthorizedError(err.Error()))
				return
			}

			claims, err := jwt.ValidateToken(token, want)
			if err != nil {
				errs.Handle(w, r, apperrors.NewUnauthorizedError(err.Error()).WithCode(tokenErrorCode(err)))
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.SetUserInContext(r.Context(), claims)))
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", auth.ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

func tokenErrorCode(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "TOKEN_EXPIRED"
	case errors.Is(err, auth.ErrWrongTokenType):
		return "WRONG_TOKEN_TYPE"
	default:
		return "INVALID_TOKEN"
	}
}
