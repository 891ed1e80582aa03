package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/model"
)

// Rules describes which paths are open and which role owns a prefix.
//
// Entries in Public and PublicGET match a path exactly, or as a prefix
// when they end in "/*". Role prefixes match the prefix itself and
// anything below it ("/admin" covers "/admin/events" but not
// "/administrator").
type Rules struct {
	Public    []string
	PublicGET []string
	Roles     map[string]model.Role
	// pages an authenticated caller is bounced from to their dashboard
	GuestOnly []string
}

// DefaultRules is the routing table of the ticketing site.
func DefaultRules() Rules {
	return Rules{
		Public: []string{
			"/", "/login", "/register", "/events", "/events/*",
			"/healthz", "/healthz/ready", "/metrics",
			"/api/auth/login", "/api/auth/register", "/api/auth/logout",
		},
		PublicGET: []string{"/api/events", "/api/events/*"},
		Roles: map[string]model.Role{
			"/admin":        model.RoleAdmin,
			"/artist":       model.RoleArtist,
			"/customer":     model.RoleCustomer,
			"/api/admin":    model.RoleAdmin,
			"/api/artist":   model.RoleArtist,
			"/api/customer": model.RoleCustomer,
		},
		GuestOnly: []string{"/login", "/register"},
	}
}

// Guard is the route-level authorization state machine. It runs after
// Session and decides, per path, whether the caller may proceed:
//
//   - authenticated callers on a guest-only page go to their dashboard
//   - public paths always proceed
//   - anonymous callers get 401 (API) or a login redirect (page)
//   - a caller whose role does not own the path prefix gets 403 (API)
//     or a redirect to their own dashboard (page)
//
// Paths that are neither public nor role-prefixed only require a
// session; finer checks (ownership, self-modification) happen later.
func Guard(rules Rules) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			r := c.Request()
			path := r.URL.Path
			claims, authed := Principal(c)

			if authed && matchAny(rules.GuestOnly, path) {
				return c.Redirect(http.StatusFound, claims.Role.Home())
			}
			if matchAny(rules.Public, path) {
				return next(c)
			}
			if (r.Method == http.MethodGet || r.Method == http.MethodHead) && matchAny(rules.PublicGET, path) {
				return next(c)
			}
			if !authed {
				return unauthenticated(c)
			}
			if want, ok := rules.roleFor(path); ok && claims.Role != want {
				return forbidden(c, claims.Role, "role")
			}
			return next(c)
		}
	}
}

// roleFor returns the role owning the longest matching prefix.
func (r Rules) roleFor(path string) (model.Role, bool) {
	var (
		best  string
		role  model.Role
		found bool
	)
	for prefix, want := range r.Roles {
		if underPrefix(path, prefix) && len(prefix) > len(best) {
			best, role, found = prefix, want, true
		}
	}
	return role, found
}

func matchAny(patterns []string, path string) bool {
	for _, p := range patterns {
		if base, ok := strings.CutSuffix(p, "/*"); ok {
			if strings.HasPrefix(path, base+"/") && len(path) > len(base)+1 {
				return true
			}
			continue
		}
		if path == p {
			return true
		}
	}
	return false
}

func underPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
