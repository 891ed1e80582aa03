package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/model"
)

// RegisterAdmin registers user management and event moderation under
// /api/admin. The self-modification rule is enforced by the service.
func RegisterAdmin(e *echo.Echo, users *handler.AdminUserHandler, events *handler.EventHandler) {
	g := e.Group("/api/admin", middleware.RequireRole(model.RoleAdmin))

	g.GET("/users", users.List)
	g.POST("/users", users.Create)
	g.PATCH("/users/:id", users.Update)
	g.DELETE("/users/:id", users.Delete)
	g.POST("/users/:id/unlock", users.Unlock)

	g.GET("/events", events.ListAll)
	g.PATCH("/events/:id", events.SetStatus)
	g.DELETE("/events/:id", events.Delete)
}
