package routes

import (
	"fulfillment-wms/middleware"
	"fulfillment-wms/types"

	"github.com/gofiber/fiber/v2"
)

// SetupOrderRoutes mounts the order, line and movement endpoints of one family.
func SetupOrderRoutes(app *fiber.App, h Handlers, family types.OrderFamily) {
	api := group(app, h, "/"+family.Path(), middleware.InjectFamily(family))

	api.Post("/", h.Orders.CreateOrder)
	api.Get("/", h.Orders.ListOrders)
	api.Get("/:key", h.Orders.GetOrder)
	api.Put("/:key", h.Orders.UpdateOrder)
	api.Put("/:key/status", h.Orders.SetStatus)
	api.Delete("/:key", h.Orders.DeleteOrder)

	api.Get("/:key/lines", h.Orders.GetLines)
	api.Get("/:key/lines/pending", h.Orders.GetPendingLines)
	api.Get("/:key/lines/pending/export", h.Orders.ExportPendingLines)
	api.Post("/:key/lines/import", h.Orders.ImportLines)
	api.Post("/:key/lines", h.Orders.AddLine)
	api.Put("/:key/lines/:line", h.Orders.UpdateLine)
	api.Delete("/:key/lines/:line", h.Orders.DeleteLine)

	api.Post("/:key/suggest-bin", h.Movements.SuggestBin)
	api.Post("/:key/available-bins", h.Movements.ListAvailableBins)
	api.Post("/:key/validate-bin", h.Movements.ValidateBin)
	api.Post("/:key/movements", h.Movements.ExecuteMovement)
	api.Get("/:key/movements", h.Movements.ListMovements)
	api.Post("/:key/recompute-status", h.Movements.RecomputeStatus)

	if family.Direction() == types.DirectionPut {
		api.Post("/:key/receivings", h.Receivings.CreateReceiving)
	} else {
		api.Post("/:key/shipments", h.Shipping.CreateShipment)
	}
}
