package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/kiptoo95/skill_exchange/handlers"
	"github.com/kiptoo95/skill_exchange/middleware"
)

func NotificationRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	notification := api.Group("/notifications", middleware.Protected())
	notification.Get("/me", handlers.GetMyNotifications)
	notification.Get("/me/counts", handlers.GetNotificationCounts)
	notification.Get("/reference/:refId", handlers.GetNotificationsByReference)

	devices := api.Group("/devices", middleware.Protected())
	devices.Post("/register", handlers.RegisterDevice)
	devices.Post("/unregister", handlers.UnregisterDevice)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws", websocket.New(handlers.ServeWs))
}
