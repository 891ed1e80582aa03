package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/security"
)

// Session resolves the caller's identity. The token is read from the
// session cookie, falling back to an Authorization: Bearer header. A
// missing, expired or tampered token leaves the request anonymous;
// rejecting it is the job of Guard and RequireRole.
func Session(tokens *security.TokenService, cookieName string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if raw := rawToken(c, cookieName); raw != "" {
				if claims, err := tokens.Verify(raw); err == nil {
					c.Set(principalKey, claims)
				}
			}
			return next(c)
		}
	}
}

func rawToken(c echo.Context, cookieName string) string {
	if ck, err := c.Cookie(cookieName); err == nil && ck.Value != "" {
		return ck.Value
	}
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}
