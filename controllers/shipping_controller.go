package controllers

import (
	"fulfillment-wms/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ShippingController struct {
	Satellites *services.SatelliteService
	Log        *zap.Logger
}

func NewShippingController(satellites *services.SatelliteService, logger *zap.Logger) *ShippingController {
	return &ShippingController{Satellites: satellites, Log: logger}
}

func (c *ShippingController) CreateShipment(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "create shipment", err)
	}
	var input services.ShipmentInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "create shipment", err)
	}
	shipment, err := c.Satellites.CreateShipment(ctx.UserContext(), familyFrom(ctx), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "create shipment", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Shipment "+shipment.ShipmentNo+" created", shipment)
}

func (c *ShippingController) UpdateShipmentStatus(ctx *fiber.Ctx) error {
	key, err := documentKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "update shipment status", err)
	}
	var input services.ShipmentStatusInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "update shipment status", err)
	}
	shipment, err := c.Satellites.UpdateShipmentStatus(ctx.UserContext(), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "update shipment status", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Shipment "+shipment.ShipmentNo+" is "+string(shipment.Status), shipment)
}
