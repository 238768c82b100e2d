package middleware

import (
	"github.com/labstack/echo/v4"

	"vehicle-reserve-backend/internal/domain"
)

// RequireRole allows the request through only when the authenticated
// role is one of roles. Assumes JWTAuth ran earlier in the chain. A
// verified caller with the wrong role gets 403, not 401.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !allowed[CallerRole(c)] {
				return domain.Authorization("forbidden")
			}
			return next(c)
		}
	}
}
