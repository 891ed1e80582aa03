package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
	"github.com/iliyamo/ticketflow/internal/service"
)

// requestTimeout bounds the store work of one request.
const requestTimeout = 5 * time.Second

// envelope is the body of every API response.
type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

func respond(c echo.Context, code int, data any) error {
	return c.JSON(code, envelope{Success: true, Data: data})
}

func respondMsg(c echo.Context, code int, data any, msg string) error {
	return c.JSON(code, envelope{Success: true, Data: data, Message: msg})
}

func fail(c echo.Context, code int, msg string) error {
	return c.JSON(code, envelope{Error: msg})
}

func requestCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// actor returns the authenticated caller. Routes reaching a handler that
// calls it are guarded, so a missing principal is a wiring error and is
// answered with 401 rather than a panic.
func actor(c echo.Context) (service.Actor, error) {
	claims, ok := middleware.Principal(c)
	if !ok {
		return service.Actor{}, model.ErrTokenInvalid
	}
	return service.ActorFromClaims(claims), nil
}

// bindValid binds the request body into req and runs the validator.
func bindValid(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return model.ErrInvalidInput
	}
	if err := c.Validate(req); err != nil {
		return invalid(err)
	}
	return nil
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	return id, nil
}

// userView is the public shape of an account. The password digest never
// leaves the server.
type userView struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	Email          string     `json:"email"`
	Role           model.Role `json:"role"`
	Status         string     `json:"status"`
	ArtistID       *uint64    `json:"artist_id,omitempty"`
	FailedAttempts uint32     `json:"failed_attempts"`
	LastLoginAt    *time.Time `json:"last_login_at"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toUserView(u model.User) userView {
	return userView{
		ID:             u.ID,
		Name:           u.Name,
		Email:          u.Email,
		Role:           u.EffectiveRole(),
		Status:         string(u.Status),
		ArtistID:       u.ArtistID,
		FailedAttempts: u.FailedAttempts,
		LastLoginAt:    u.LastLoginAt,
		CreatedAt:      u.CreatedAt,
	}
}
