package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/carparking/internal/handler"
)

// RegisterParking registers slots and bookings.  Browsing slots, booking one
// and reading the statistics is open to guests; everything else needs an
// ADMIN token.
func RegisterParking(e *echo.Echo, s *handler.SlotHandler, b *handler.BookingHandler, g Guards) {
	slots := e.Group("/api/parking-slots")
	slots.GET("", s.List)
	slots.GET("/available_slots", s.ListAvailable)
	slots.GET("/count", s.Count, g.cached()...)
	slots.GET("/:id", s.Get)

	admin := g.admin()
	slots.POST("", s.Create, admin...)
	slots.PUT("/:id", s.Update, admin...)
	slots.PATCH("/:id", s.Update, admin...)
	slots.DELETE("/:id", s.Delete, admin...)
	slots.POST("/:id/release", s.Release, admin...)

	bookings := e.Group("/api/bookings")
	bookings.POST("", b.Create, g.limited()...)
	bookings.GET("/count", b.Count, g.cached()...)
	bookings.GET("/total_amount", b.TotalAmount, g.cached()...)

	bookings.GET("", b.List, admin...)
	bookings.GET("/:id", b.Get, admin...)
	bookings.PUT("/:id", b.Update, admin...)
	bookings.PATCH("/:id", b.Update, admin...)
	bookings.DELETE("/:id", b.Delete, admin...)
}
