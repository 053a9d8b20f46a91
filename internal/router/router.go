package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/carparking/internal/handler"
	"github.com/iliyamo/carparking/internal/middleware"
	"github.com/iliyamo/carparking/internal/model"
)

// Handlers are the endpoint implementations the router wires up.
type Handlers struct {
	Auth     *handler.AuthHandler
	Slots    *handler.SlotHandler
	Bookings *handler.BookingHandler
	Users    *handler.UserHandler
	Contacts *handler.ContactHandler
}

// Guards are the cross-cutting middlewares applied per route.  Nil
// RateLimit or Cache means the concern is off.
type Guards struct {
	JWTSecret string
	RateLimit echo.MiddlewareFunc // guest write endpoints
	Cache     echo.MiddlewareFunc // statistics endpoints
}

func (g Guards) limited() []echo.MiddlewareFunc {
	if g.RateLimit == nil {
		return nil
	}
	return []echo.MiddlewareFunc{g.RateLimit}
}

func (g Guards) cached() []echo.MiddlewareFunc {
	if g.Cache == nil {
		return nil
	}
	return []echo.MiddlewareFunc{g.Cache}
}

func (g Guards) admin() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{middleware.JWTAuth(g.JWTSecret), middleware.RequireRole(model.RoleAdmin)}
}

// New builds the Echo instance: error handler, trailing-slash stripping,
// panic recovery, request ids, the extra middlewares (e.g. tracing) in the
// given order, HTTP metrics, then every route.
func New(h Handlers, g Guards, extra ...echo.MiddlewareFunc) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = middleware.ErrorHandler

	// the browser client calls /api/bookings/ style URLs
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(extra...)
	e.Use(middleware.Metrics())

	RegisterRoutes(e)
	RegisterAuth(e, h.Auth, g)
	RegisterParking(e, h.Slots, h.Bookings, g)
	RegisterSupport(e, h.Contacts, h.Users, g)
	return e
}

// RegisterRoutes registers routes that do not touch the API, currently the
// health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the account endpoints.  Register, login, refresh
// and logout are open (and rate limited); /api/me needs a token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	api := e.Group("/api")
	api.POST("/register", a.Register, g.limited()...)
	api.POST("/login", a.Login, g.limited()...)
	api.POST("/auth/refresh", a.Refresh, g.limited()...)
	api.POST("/logout", a.Logout)

	api.GET("/me", a.Me, middleware.JWTAuth(g.JWTSecret))
}
