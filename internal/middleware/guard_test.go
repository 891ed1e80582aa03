package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/security"
)

const (
	testSecret = "guard-test-secret"
	testCookie = "auth-token"
)

type stubOwners map[uint64][]uint64

func (s stubOwners) ArtistIDs(_ context.Context, id uint64) ([]uint64, error) {
	ids, ok := s[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return ids, nil
}

func ok(c echo.Context) error { return c.String(http.StatusOK, "ok") }

// newTestServer wires Session and Guard in front of a representative
// route table.
func newTestServer(owners stubOwners) *echo.Echo {
	e := echo.New()
	e.Use(Session(security.NewTokenService(testSecret), testCookie))
	e.Use(Guard(DefaultRules()))

	e.GET("/", ok)
	e.GET("/login", ok)
	e.GET("/admin", ok)
	e.GET("/admin/events", ok)
	e.GET("/customer", ok)
	e.GET("/artist", ok)
	e.GET("/api/events", ok)
	e.POST("/api/events", ok)
	e.GET("/api/auth/me", ok)
	e.GET("/api/admin/users", ok)
	e.GET("/api/customer/tickets", ok)
	e.PATCH("/api/events/:id", ok, RequireEventOwner(owners, "id", zerolog.Nop()))
	return e
}

func tokenFor(t *testing.T, sub security.Subject) string {
	t.Helper()
	tok, err := security.NewTokenService(testSecret).Issue(sub)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	return tok.Value
}

func do(e *echo.Echo, method, path, cookie string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: testCookie, Value: cookie})
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestGuard_AnonymousPageRedirectsToLogin(t *testing.T) {
	e := newTestServer(nil)
	rec := do(e, http.MethodGet, "/customer", "")
	if rec.Code != http.StatusFound {
		t.Fatalf("expected 302, got %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderLocation); got != "/login?redirect=%2Fcustomer" {
		t.Fatalf("unexpected location %q", got)
	}
}

func TestGuard_AnonymousAPIGets401Envelope(t *testing.T) {
	e := newTestServer(nil)
	rec := do(e, http.MethodGet, "/api/customer/tickets", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	var body errorBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || body.Error == "" {
		t.Fatalf("unexpected envelope %+v", body)
	}
}

func TestGuard_WrongRolePageRedirectsHome(t *testing.T) {
	e := newTestServer(nil)
	customer := tokenFor(t, security.Subject{UserID: 5, Email: "c@x.mx", Role: model.RoleCustomer})

	rec := do(e, http.MethodGet, "/admin/events", customer)
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/customer" {
		t.Fatalf("expected redirect to /customer, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}

	staff := tokenFor(t, security.Subject{UserID: 6, Email: "s@x.mx", Role: model.RoleStaff})
	rec = do(e, http.MethodGet, "/artist", staff)
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/" {
		t.Fatalf("expected staff redirect to /, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
}

func TestGuard_WrongRoleAPIGets403(t *testing.T) {
	e := newTestServer(nil)
	customer := tokenFor(t, security.Subject{UserID: 5, Email: "c@x.mx", Role: model.RoleCustomer})
	if rec := do(e, http.MethodGet, "/api/admin/users", customer); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/customer/tickets", customer); rec.Code != http.StatusOK {
		t.Fatalf("own prefix: expected 200, got %d", rec.Code)
	}
}

func TestGuard_AuthenticatedLoginPageRedirectsHome(t *testing.T) {
	e := newTestServer(nil)
	admin := tokenFor(t, security.Subject{UserID: 1, Email: "a@x.mx", Role: model.RoleAdmin})
	rec := do(e, http.MethodGet, "/login", admin)
	if rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/admin" {
		t.Fatalf("expected redirect to /admin, got %d %q", rec.Code, rec.Header().Get(echo.HeaderLocation))
	}
	if rec := do(e, http.MethodGet, "/login", ""); rec.Code != http.StatusOK {
		t.Fatalf("anonymous login page: expected 200, got %d", rec.Code)
	}
}

func TestGuard_PublicCatalogIsReadOnly(t *testing.T) {
	e := newTestServer(nil)
	if rec := do(e, http.MethodGet, "/api/events", ""); rec.Code != http.StatusOK {
		t.Fatalf("GET catalog: expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodPost, "/api/events", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST catalog: expected 401, got %d", rec.Code)
	}
}

func TestGuard_TamperedTokenIsAnonymous(t *testing.T) {
	e := newTestServer(nil)
	tok := tokenFor(t, security.Subject{UserID: 1, Email: "a@x.mx", Role: model.RoleAdmin})
	if rec := do(e, http.MethodGet, "/api/auth/me", tok+"x"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestSession_BearerFallback(t *testing.T) {
	e := newTestServer(nil)
	tok := tokenFor(t, security.Subject{UserID: 9, Email: "c@x.mx", Role: model.RoleCustomer})
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireEventOwner(t *testing.T) {
	owners := stubOwners{1: {12}, 2: {13}}
	e := newTestServer(owners)
	artistID := uint64(12)
	artist := tokenFor(t, security.Subject{UserID: 3, Email: "b@x.mx", Role: model.RoleArtist, ArtistID: &artistID})
	admin := tokenFor(t, security.Subject{UserID: 1, Email: "a@x.mx", Role: model.RoleAdmin})

	cases := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"linked artist", "/api/events/1", artist, http.StatusOK},
		{"foreign artist", "/api/events/2", artist, http.StatusForbidden},
		{"admin", "/api/events/2", admin, http.StatusOK},
		{"missing event", "/api/events/404", admin, http.StatusNotFound},
		{"bad id", "/api/events/abc", artist, http.StatusNotFound},
		{"anonymous", "/api/events/1", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := do(e, http.MethodPatch, tc.path, tc.token); rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	e := echo.New()
	e.Use(Session(security.NewTokenService(testSecret), testCookie))
	e.GET("/api/ticket-types", ok, RequireRole(model.RoleAdmin, model.RoleArtist))
	e.GET("/board", ok, RequireRole(model.RoleAdmin))

	customer := tokenFor(t, security.Subject{UserID: 5, Email: "c@x.mx", Role: model.RoleCustomer})
	artist := tokenFor(t, security.Subject{UserID: 3, Email: "b@x.mx", Role: model.RoleArtist})

	if rec := do(e, http.MethodGet, "/api/ticket-types", customer); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/api/ticket-types", artist); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/board", customer); rec.Code != http.StatusFound || rec.Header().Get(echo.HeaderLocation) != "/customer" {
		t.Fatalf("page denial should redirect home, got %d", rec.Code)
	}
	if rec := do(e, http.MethodGet, "/board", ""); rec.Code != http.StatusFound {
		t.Fatalf("anonymous page should redirect to login, got %d", rec.Code)
	}
}

func TestMatchAny(t *testing.T) {
	patterns := []string{"/events", "/events/*"}
	for path, want := range map[string]bool{
		"/events":     true,
		"/events/7":   true,
		"/events/":    false,
		"/eventsx":    false,
		"/api/events": false,
	} {
		if got := matchAny(patterns, path); got != want {
			t.Errorf("matchAny(%q) = %v, want %v", path, got, want)
		}
	}
	if role, ok := DefaultRules().roleFor("/administrator"); ok {
		t.Fatalf("/administrator must not match /admin, got %s", role)
	}
	if role, _ := DefaultRules().roleFor("/api/admin/users/3"); role != model.RoleAdmin {
		t.Fatalf("expected admin prefix, got %q", role)
	}
}
