package routes

import (
	"fulfillment-wms/config"
	"fulfillment-wms/controllers"
	"fulfillment-wms/types"

	"github.com/gofiber/fiber/v2"
)

// Handlers bundles the controllers mounted by Setup.
type Handlers struct {
	Auth       fiber.Handler
	Orders     *controllers.OrderController
	Movements  *controllers.MovementController
	Receivings *controllers.ReceivingController
	Shipping   *controllers.ShippingController
	Inventory  *controllers.InventoryController
	Metrics    fiber.Handler
}

func Setup(app *fiber.App, h Handlers) {
	for _, family := range types.Families() {
		SetupOrderRoutes(app, h, family)
	}
	SetupInboundRoutes(app, h)
	SetupShippingRoutes(app, h)
	SetupInventoryRoutes(app, h)
	if h.Metrics != nil {
		app.Get("/metrics", h.Metrics)
	}
}

func group(app *fiber.App, h Handlers, path string, handlers ...fiber.Handler) fiber.Router {
	if h.Auth != nil {
		handlers = append([]fiber.Handler{h.Auth}, handlers...)
	}
	return app.Group(config.MAIN_ROUTES+path, handlers...)
}
