package controllers

import (
	"fulfillment-wms/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ReceivingController serves receivings and their put-away tasks.
type ReceivingController struct {
	Satellites *services.SatelliteService
	Log        *zap.Logger
}

func NewReceivingController(satellites *services.SatelliteService, logger *zap.Logger) *ReceivingController {
	return &ReceivingController{Satellites: satellites, Log: logger}
}

func (c *ReceivingController) CreateReceiving(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "create receiving", err)
	}
	var input services.ReceivingInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "create receiving", err)
	}
	view, err := c.Satellites.CreateReceiving(ctx.UserContext(), familyFrom(ctx), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "create receiving", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Receiving "+view.ReceivingNo+" created", view)
}

func (c *ReceivingController) GetReceiving(ctx *fiber.Ctx) error {
	key, err := documentKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "get receiving", err)
	}
	view, err := c.Satellites.GetReceiving(ctx.UserContext(), key)
	if err != nil {
		return respondError(ctx, c.Log, "get receiving", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Receiving found", view)
}

func (c *ReceivingController) UpdateReceivingStatus(ctx *fiber.Ctx) error {
	key, err := documentKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "update receiving status", err)
	}
	var input services.ReceivingStatusInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "update receiving status", err)
	}
	view, err := c.Satellites.UpdateReceivingStatus(ctx.UserContext(), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "update receiving status", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Receiving "+view.ReceivingNo+" is "+view.StatusDisplay, view)
}

func (c *ReceivingController) CreatePutAway(ctx *fiber.Ctx) error {
	key, err := documentKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "create put-away", err)
	}
	var input services.PutAwayInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "create put-away", err)
	}
	task, err := c.Satellites.CreatePutAway(ctx.UserContext(), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "create put-away", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Put-away planned", task)
}

func (c *ReceivingController) UpdatePutAwayStatus(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return respondError(ctx, c.Log, "update put-away status", err)
	}
	var input statusRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "update put-away status", err)
	}
	task, err := c.Satellites.UpdatePutAwayStatus(ctx.UserContext(), id, input.Status, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "update put-away status", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Put-away is "+string(task.Status), task)
}
