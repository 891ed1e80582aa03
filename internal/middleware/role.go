package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/model"
)

// RequireRole lets the request through only when the caller's role is
// one of roles. Denials follow the same page/API split as Guard.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := Principal(c)
			if !ok {
				return unauthenticated(c)
			}
			if _, ok := allowed[claims.Role]; !ok {
				return forbidden(c, claims.Role, "role")
			}
			return next(c)
		}
	}
}
