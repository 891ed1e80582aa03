package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/security"
	"github.com/iliyamo/ticketflow/internal/service"
)

// Authenticator is implemented by service.AuthService.
type Authenticator interface {
	Register(ctx context.Context, in service.RegisterInput) (service.Session, error)
	Login(ctx context.Context, email, password string) (service.Session, error)
	Me(ctx context.Context, userID uint64) (model.User, error)
}

// CookieSettings controls the session cookie. Secure is set in
// production only so local development works over plain HTTP.
type CookieSettings struct {
	Name   string
	Secure bool
}

// AuthHandler serves the session endpoints under /api/auth.
type AuthHandler struct {
	auth   Authenticator
	cookie CookieSettings
}

func NewAuthHandler(auth Authenticator, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookie: cookie}
}

type registerRequest struct {
	Name     string `json:"name" validate:"max=120"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role" validate:"omitempty,oneof=customer artist"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type sessionResponse struct {
	User userView `json:"user"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.auth.Register(ctx, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}
	h.setSession(c, sess.Token)
	return respondMsg(c, http.StatusCreated, sessionResponse{User: toUserView(sess.User)}, "registration successful")
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	sess, err := h.auth.Login(ctx, req.Email, req.Password)
	if err != nil {
		return err
	}
	h.setSession(c, sess.Token)
	return respondMsg(c, http.StatusOK, sessionResponse{User: toUserView(sess.User)}, "login successful")
}

// Logout handles POST /api/auth/logout. Tokens are stateless; clearing
// the cookie ends the browser session.
func (h *AuthHandler) Logout(c echo.Context) error {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1, // Max-Age=0
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return respondMsg(c, http.StatusOK, nil, "logged out")
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(c echo.Context) error {
	claims, ok := middleware.Principal(c)
	if !ok {
		return model.ErrTokenInvalid
	}
	ctx, cancel := requestCtx(c)
	defer cancel()

	u, err := h.auth.Me(ctx, claims.UserID())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, sessionResponse{User: toUserView(u)})
}

func (h *AuthHandler) setSession(c echo.Context, tok security.Token) {
	c.SetCookie(&http.Cookie{
		Name:     h.cookie.Name,
		Value:    tok.Value,
		Path:     "/",
		MaxAge:   int(security.SessionLifetime.Seconds()),
		Expires:  tok.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}
