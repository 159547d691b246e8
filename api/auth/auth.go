// Package auth authenticates API callers with HS256 bearer tokens.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gomantics/gitdesk/config"
	"github.com/labstack/echo/v4"
)

const (
	contextKey = "auth.claims"
	devSecret  = "gitdesk-dev-secret"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims identify the caller. Field names match the tokens issued by the
// existing frontend.
type Claims struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Secret returns the signing secret. Dev falls back to a fixed secret so
// the server runs without configuration.
func Secret() []byte {
	if s := config.Auth.JwtSecret(); s != "" {
		return []byte(s)
	}
	if config.IsDev() {
		return []byte(devSecret)
	}
	return nil
}

// Issue signs a token for the user valid for ttl.
func Issue(secret []byte, userID int64, username string, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(userID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// Parse validates token and returns its claims.
func Parse(secret []byte, token string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrInvalidToken
	}

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.UserID <= 0 {
		return nil, fmt.Errorf("%w: missing userId", ErrInvalidToken)
	}
	return claims, nil
}

// Middleware rejects requests without a bearer token with 401 and
// requests with a bad token with 403.
func Middleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, map[string]string{"error": "access token required"})
			}

			claims, err := Parse(secret, strings.TrimSpace(token))
			if err != nil {
				return c.JSON(http.StatusForbidden, map[string]string{"error": ErrInvalidToken.Error()})
			}

			c.Set(contextKey, claims)
			return next(c)
		}
	}
}

// FromContext returns the claims stored by Middleware.
func FromContext(c echo.Context) (*Claims, bool) {
	claims, ok := c.Get(contextKey).(*Claims)
	return claims, ok && claims != nil
}
