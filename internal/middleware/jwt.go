// Package middleware contains the Echo middleware shared across
// routes: JWT authentication, role gating, the Redis response cache
// and the rate limiter.
package middleware

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/domain"
)

// Context keys set by JWTAuth and read by handlers and RequireRole.
const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

// JWTAuth validates the Bearer access token and stores the caller's
// user id and role in the request context. Failures surface as
// authentication errors so the central error handler maps them to 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return domain.Authentication("missing bearer token")
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			tok, err := jwt.Parse(raw, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, domain.Authentication("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || !tok.Valid {
				return domain.Authentication("invalid token")
			}
			claims, ok := tok.Claims.(jwt.MapClaims)
			if !ok {
				return domain.Authentication("invalid claims")
			}

			// Numeric claims decode as float64.
			sub, ok := claims["sub"].(float64)
			if !ok || sub <= 0 {
				return domain.Authentication("invalid subject claim")
			}
			role, _ := claims["role"].(string)

			c.Set(CtxUserID, uint64(sub))
			c.Set(CtxRole, role)
			return next(c)
		}
	}
}

// CallerID returns the authenticated user id from the context, or 0
// when the request is unauthenticated.
func CallerID(c echo.Context) uint64 {
	if v, ok := c.Get(CtxUserID).(uint64); ok {
		return v
	}
	return 0
}

// CallerRole returns the authenticated role from the context, or ""
// when the request is unauthenticated.
func CallerRole(c echo.Context) string {
	if v, ok := c.Get(CtxRole).(string); ok {
		return v
	}
	return ""
}
