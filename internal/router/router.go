// Package router assembles the Echo instance: global middleware, the
// authorization chain and every route group.
package router

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/ticketflow/internal/config"
	"github.com/iliyamo/ticketflow/internal/handler"
	"github.com/iliyamo/ticketflow/internal/middleware"
	"github.com/iliyamo/ticketflow/internal/security"
)

// Deps are the collaborators the routes are built from.
type Deps struct {
	Config    config.Config
	Log       zerolog.Logger
	Redis     *redis.Client // nil disables rate limiting and caching
	Tokens    *security.TokenService
	Owners    middleware.EventOwners
	Readiness *handler.ReadinessHandler

	Auth      *handler.AuthHandler
	Events    *handler.EventHandler
	Customers *handler.CustomerHandler
	Users     *handler.AdminUserHandler
}

// New returns a fully wired Echo instance.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(d.Log)
	e.Validator = handler.NewValidator()

	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddleware("ticketflow"))
	// identity first, then the route-level state machine
	e.Use(middleware.Session(d.Tokens, d.Config.Auth.CookieName))
	e.Use(middleware.Guard(middleware.DefaultRules()))

	RegisterRoutes(e, d.Readiness)
	RegisterAuth(e, d.Auth, middleware.NewTokenBucket(d.Config.RateLimit, d.Redis, d.Log))
	RegisterPublic(e, d.Events, middleware.NewRedisCache(d.Config.Cache, d.Redis, d.Log))
	RegisterPages(e)
	RegisterCatalogManagement(e, d.Events, d.Owners, d.Log)
	RegisterArtist(e, d.Events, d.Owners, d.Log)
	RegisterCustomer(e, d.Customers)
	RegisterAdmin(e, d.Users, d.Events)
	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogRemoteIP:  true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil || v.Status >= 500 {
				ev = log.Error().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Str("remote_ip", v.RemoteIP).
				Msg("request")
			return nil
		},
	})
}

// RegisterRoutes registers probes and the metrics endpoint.
func RegisterRoutes(e *echo.Echo, ready *handler.ReadinessHandler) {
	e.GET("/healthz", handler.Health)
	if ready != nil {
		e.GET("/healthz/ready", ready.Readiness)
	}
	e.GET("/metrics", echoprometheus.NewHandler())
}

// RegisterAuth registers the session endpoints behind the rate limiter.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/auth")
	g.POST("/register", a.Register, limiter)
	g.POST("/login", a.Login, limiter)
	g.POST("/logout", a.Logout)
	g.GET("/me", a.Me)
}

// RegisterPublic registers the anonymous catalog reads behind the
// response cache.
func RegisterPublic(e *echo.Echo, h *handler.EventHandler, cache echo.MiddlewareFunc) {
	e.GET("/api/events", h.ListPublic, cache)
	e.GET("/api/events/:id", h.GetPublic, cache)
}

// RegisterPages registers the page routes. Guard decides who reaches
// them; each answers with a dashboard descriptor.
func RegisterPages(e *echo.Echo) {
	e.GET("/", handler.Page("home"))
	e.GET("/login", handler.Page("login"))
	e.GET("/register", handler.Page("register"))
	e.GET("/events", handler.Page("events"))
	e.GET("/events/:id", handler.Page("event"))

	for prefix, name := range map[string]string{
		"/admin":    "admin-dashboard",
		"/artist":   "artist-dashboard",
		"/customer": "customer-dashboard",
	} {
		e.GET(prefix, handler.Page(name))
		e.GET(prefix+"/*", handler.Page(name))
	}
}
