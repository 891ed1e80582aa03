package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/security"
)

// principalKey is the echo context key holding the verified session
// claims of the caller.
const principalKey = "principal"

// Principal returns the verified claims stored by Session. The boolean
// is false for anonymous callers.
func Principal(c echo.Context) (*security.Claims, bool) {
	claims, ok := c.Get(principalKey).(*security.Claims)
	return claims, ok && claims != nil
}

// userID returns the caller's user id as a string, or "guest".
func userID(c echo.Context) string {
	claims, ok := Principal(c)
	if !ok || claims.UserID() == 0 {
		return "guest"
	}
	return strconv.FormatUint(claims.UserID(), 10)
}
