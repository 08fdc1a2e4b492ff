package routes

import "github.com/gofiber/fiber/v2"

func SetupInboundRoutes(app *fiber.App, h Handlers) {
	api := group(app, h, "/receivings")
	api.Get("/:doc", h.Receivings.GetReceiving)
	api.Put("/:doc/status", h.Receivings.UpdateReceivingStatus)
	api.Post("/:doc/putaways", h.Receivings.CreatePutAway)

	putaways := group(app, h, "/putaways")
	putaways.Put("/:id/status", h.Receivings.UpdatePutAwayStatus)
}
