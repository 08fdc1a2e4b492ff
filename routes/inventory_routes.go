package routes

import "github.com/gofiber/fiber/v2"

func SetupInventoryRoutes(app *fiber.App, h Handlers) {
	api := group(app, h, "/stock")
	api.Post("/intake", h.Inventory.StockIntake)
	api.Post("/intake/suggest", h.Inventory.SuggestIntakeBins)
	api.Get("/bins/:bin", h.Inventory.GetBinStock)
}
