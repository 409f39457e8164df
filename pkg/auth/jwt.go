package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrMissingToken     = errors.New("missing authentication token")
	ErrInvalidClaims    = errors.New("invalid token claims")
	ErrWrongTokenType   = errors.New("wrong token type")
)

// TokenType distinguishes short-lived access tokens from refresh tokens.
type TokenType string

const (
	TokenAccess  TokenType = "access"
	TokenRefresh TokenType = "refresh"
)

// Claims are the JWT claims issued for an HR user.
type Claims struct {
	UserID    string    `json:"sub"`
	Email     string    `json:"email,omitempty"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// NumericUserID returns the subject as a user id.
func (c *Claims) NumericUserID() (int64, error) {
	id, err := strconv.ParseInt(c.UserID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: subject is not a user id", ErrInvalidClaims)
	}
	return id, nil
}

// JWTConfig configures both validation and issuing. Only HS256 is supported.
type JWTConfig struct {
	SecretKey     string
	Issuer        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// JWTService validates and issues HS256 tokens.
type JWTService struct {
	secretKey     []byte
	issuer        string
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	now           func() time.Time
}

func NewJWTService(cfg JWTConfig) (*JWTService, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("secret key required for HS256")
	}
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = time.Hour
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = 30 * 24 * time.Hour
	}
	return &JWTService{
		secretKey:     []byte(cfg.SecretKey),
		issuer:        cfg.Issuer,
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
		now:           time.Now,
	}, nil
}

// ValidateToken parses tokenString (with or without a "Bearer " prefix)
// and checks signature, expiry, issuer and token type.
func (s *JWTService) ValidateToken(tokenString string, want TokenType) (*Claims, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(tokenString, "Bearer "))
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return s.secretKey, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		if errors.Is(err, jwt.ErrSignatureInvalid) {
			return nil, ErrInvalidSignature
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
	}
	if claims.UserID == "" {
		return nil, fmt.Errorf("%w: missing user ID", ErrInvalidClaims)
	}
	if claims.TokenType != want {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}

// GenerateToken signs a token of the given type for userID.
func (s *JWTService) GenerateToken(userID int64, email string, typ TokenType) (string, error) {
	expiry := s.accessExpiry
	if typ == TokenRefresh {
		expiry = s.refreshExpiry
	}
	now := s.now()
	sub := strconv.FormatInt(userID, 10)
	claims := &Claims{
		UserID:    sub,
		Email:     email,
		TokenType: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secretKey)
}

type contextKey string

const userContextKey contextKey = "user"

// SetUserInContext stores validated claims on ctx.
func SetUserInContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}

// GetUserFromContext returns the claims stored by SetUserInContext.
func GetUserFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(userContextKey).(*Claims)
	return claims, ok
}
