package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
)

// RegisterCustomer registers purchases under /api/customer.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler) {
	g := e.Group("/api/customer", middleware.RequireRole(model.RoleCustomer))
	g.POST("/reservations", h.Reserve)
	g.GET("/tickets", h.Tickets)
}
