package router

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
)

// RegisterArtist registers the artist's own views under /api/artist.
func RegisterArtist(e *echo.Echo, h *handler.EventHandler, owners middleware.EventOwners, log zerolog.Logger) {
	g := e.Group("/api/artist", middleware.RequireRole(model.RoleArtist))
	g.GET("/events", h.ListOwn)
	g.GET("/events/:id", h.Manage, middleware.RequireEventOwner(owners, "id", log))
}
