package router

import (
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
)

// RegisterCatalogManagement registers event and ticket type writes shared
// by artists and admins. Event routes check ownership up front; ticket
// type routes are checked by the service, which resolves the owning
// event first.
func RegisterCatalogManagement(e *echo.Echo, h *handler.EventHandler, owners middleware.EventOwners, log zerolog.Logger) {
	managers := middleware.RequireRole(model.RoleAdmin, model.RoleArtist)
	owner := middleware.RequireEventOwner(owners, "id", log)

	e.POST("/api/events", h.Create, managers)
	e.PATCH("/api/events/:id", h.Update, managers, owner)
	e.DELETE("/api/events/:id", h.Delete, managers, owner)

	e.PATCH("/api/ticket-types/:id", h.UpdateTicketType, managers)
	e.DELETE("/api/ticket-types/:id", h.DeleteTicketType, managers)
}
