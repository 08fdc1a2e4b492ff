package controllers

import (
	"fmt"
	"fulfillment-wms/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// InventoryController serves order-less stock intake and bin lookups.
type InventoryController struct {
	Movements *services.MovementService
	Log       *zap.Logger
}

func NewInventoryController(movements *services.MovementService, logger *zap.Logger) *InventoryController {
	return &InventoryController{Movements: movements, Log: logger}
}

func (c *InventoryController) StockIntake(ctx *fiber.Ctx) error {
	var input services.StockIntakeInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "stock intake", err)
	}
	result, err := c.Movements.StockIntake(ctx.UserContext(), input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "stock intake", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Stock received", result)
}

func (c *InventoryController) SuggestIntakeBins(ctx *fiber.Ctx) error {
	var input services.StockIntakeInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "suggest intake bins", err)
	}
	candidates, err := c.Movements.SuggestIntakeBins(ctx.UserContext(), input)
	if err != nil {
		return respondError(ctx, c.Log, "suggest intake bins", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d bins available", len(candidates)), candidates)
}

func (c *InventoryController) GetBinStock(ctx *fiber.Ctx) error {
	view, err := c.Movements.BinStock(ctx.UserContext(), ctx.Params("bin"))
	if err != nil {
		return respondError(ctx, c.Log, "bin stock", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Bin "+view.Bin.Code, view)
}
