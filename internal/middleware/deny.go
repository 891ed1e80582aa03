package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/metrics"
	"github.com/iliyamo/ticketflow/internal/model"
)

// errorBody mirrors the API error envelope rendered by the handlers.
type errorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func isAPI(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

// unauthenticated answers an anonymous caller on a protected route:
// 401 for the API, a redirect to the login page otherwise.
func unauthenticated(c echo.Context) error {
	metrics.AuthzDenialsTotal.WithLabelValues("unauthenticated").Inc()
	r := c.Request()
	if isAPI(r.URL.Path) {
		return c.JSON(http.StatusUnauthorized, errorBody{Error: "authentication required"})
	}
	return c.Redirect(http.StatusFound, "/login?redirect="+url.QueryEscape(r.URL.RequestURI()))
}

// forbidden answers an authenticated caller lacking permission: 403 for
// the API, a redirect to the caller's own dashboard otherwise.
func forbidden(c echo.Context, role model.Role, reason string) error {
	metrics.AuthzDenialsTotal.WithLabelValues(reason).Inc()
	if isAPI(c.Request().URL.Path) {
		return c.JSON(http.StatusForbidden, errorBody{Error: "forbidden"})
	}
	return c.Redirect(http.StatusFound, role.Home())
}
