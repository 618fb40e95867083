package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/kiptoo95/skill_exchange/handlers"
	"github.com/kiptoo95/skill_exchange/middleware"
)

func BookingRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	booking := api.Group("/bookings", middleware.Protected())
	booking.Get("/me", handlers.GetMyBookings)
	booking.Post("", handlers.CreateBooking)
	booking.Get("/:bookingId", handlers.GetBooking)
	booking.Get("/:bookingId/history", handlers.GetBookingHistory)
	booking.Post("/:bookingId/accept", handlers.AcceptBooking)
	booking.Post("/:bookingId/reject", handlers.RejectBooking)
	booking.Post("/:bookingId/complete", handlers.CompleteBooking)
	booking.Post("/:bookingId/cancel", handlers.CancelBooking)

	provider := api.Group("/provider/bookings", middleware.Protected())
	provider.Get("", handlers.GetProviderBookings)

	admin := api.Group("/admin/bookings", middleware.Protected(), middleware.AdminRequired())
	admin.Get("", handlers.GetAllBookings)
	admin.Get("/stats", handlers.GetBookingStats)
}
