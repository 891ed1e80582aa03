package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/middleware"
)

type pageUser struct {
	ID       uint64  `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	ArtistID *uint64 `json:"artist_id,omitempty"`
}

type pageDescriptor struct {
	Page string    `json:"page"`
	Path string    `json:"path"`
	User *pageUser `json:"user"`
}

// Page returns a handler describing the named page and the signed-in
// user, if any. Pages are rendered by the front end; the server only
// decides who may reach them.
func Page(name string) echo.HandlerFunc {
	return func(c echo.Context) error {
		d := pageDescriptor{Page: name, Path: c.Request().URL.Path}
		if claims, ok := middleware.Principal(c); ok {
			d.User = &pageUser{
				ID:       claims.UserID(),
				Email:    claims.Email,
				Role:     string(claims.Role),
				ArtistID: claims.ArtistID,
			}
		}
		return respond(c, http.StatusOK, d)
	}
}
