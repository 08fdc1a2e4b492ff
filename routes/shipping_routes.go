package routes

import "github.com/gofiber/fiber/v2"

func SetupShippingRoutes(app *fiber.App, h Handlers) {
	api := group(app, h, "/shipments")
	api.Put("/:doc/status", h.Shipping.UpdateShipmentStatus)
}
