package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carparking/internal/handler"
)

// RegisterSupport registers the contact form and the user administration.
func RegisterSupport(e *echo.Echo, c *handler.ContactHandler, u *handler.UserHandler, g Guards) {
	admin := g.admin()

	contacts := e.Group("/api/contacts")
	contacts.POST("", c.Create, g.limited()...)
	contacts.GET("/count", c.Count, g.cached()...)
	contacts.GET("", c.List, admin...)
	contacts.GET("/:id", c.Get, admin...)
	contacts.PUT("/:id", c.Update, admin...)
	contacts.DELETE("/:id", c.Delete, admin...)
	e.GET("/api/support/count", c.Count, g.cached()...)

	users := e.Group("/api/users")
	users.GET("/count", u.Count, g.cached()...)
	users.GET("", u.List, admin...)
	users.GET("/:id", u.Get, admin...)
	users.DELETE("/:id", u.Delete, admin...)
}
