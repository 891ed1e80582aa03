package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/config"
	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/security"
)

// The metrics middleware registers collectors globally, so the router is
// built once and every case runs against it.
func TestRouterAuthorizationChain(t *testing.T) {
	tokens := security.NewTokenService("router-test-secret")
	cfg := config.Config{Auth: config.AuthConfig{CookieName: "auth-token"}}
	e := New(Deps{
		Config:    cfg,
		Log:       zerolog.Nop(),
		Tokens:    tokens,
		Auth:      handler.NewAuthHandler(nil, handler.CookieSettings{Name: "auth-token"}),
		Events:    handler.NewEventHandler(nil),
		Customers: handler.NewCustomerHandler(nil),
		Users:     handler.NewAdminUserHandler(nil, 5),
	})

	issue := func(role model.Role) string {
		tok, err := tokens.Issue(security.Subject{UserID: 2, Email: "x@x.mx", Role: role})
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return tok.Value
	}
	customer := issue(model.RoleCustomer)
	artist := issue(model.RoleArtist)

	cases := []struct {
		name     string
		method   string
		path     string
		session  string
		code     int
		location string
	}{
		{"health", http.MethodGet, "/healthz", "", http.StatusOK, ""},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK, ""},
		{"home page", http.MethodGet, "/", "", http.StatusOK, ""},
		{"anonymous dashboard", http.MethodGet, "/admin", "", http.StatusFound, "/login?redirect=%2Fadmin"},
		{"customer on admin page", http.MethodGet, "/admin/events", customer, http.StatusFound, "/customer"},
		{"artist on customer page", http.MethodGet, "/customer/tickets", artist, http.StatusFound, "/artist"},
		{"own dashboard", http.MethodGet, "/customer", customer, http.StatusOK, ""},
		{"anonymous admin api", http.MethodGet, "/api/admin/users", "", http.StatusUnauthorized, ""},
		{"customer admin api", http.MethodGet, "/api/admin/users", customer, http.StatusForbidden, ""},
		{"customer creates event", http.MethodPost, "/api/events", customer, http.StatusForbidden, ""},
		{"customer edits ticket type", http.MethodPatch, "/api/ticket-types/1", customer, http.StatusForbidden, ""},
		{"anonymous reservation", http.MethodPost, "/api/customer/reservations", "", http.StatusUnauthorized, ""},
		{"artist reservation", http.MethodPost, "/api/customer/reservations", artist, http.StatusForbidden, ""},
		{"logged in visits login", http.MethodGet, "/login", artist, http.StatusFound, "/artist"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, strings.NewReader("{}"))
			req.Header.Set("Content-Type", "application/json")
			if tc.session != "" {
				req.AddCookie(&http.Cookie{Name: "auth-token", Value: tc.session})
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.code {
				t.Fatalf("expected %d, got %d: %s", tc.code, rec.Code, rec.Body.String())
			}
			if tc.location != "" && rec.Header().Get("Location") != tc.location {
				t.Fatalf("expected Location %q, got %q", tc.location, rec.Header().Get("Location"))
			}
		})
	}
}
