package controllers

import (
	"fmt"
	"fulfillment-wms/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type MovementController struct {
	Movements *services.MovementService
	Log       *zap.Logger
}

func NewMovementController(movements *services.MovementService, logger *zap.Logger) *MovementController {
	return &MovementController{Movements: movements, Log: logger}
}

func (c *MovementController) SuggestBin(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "suggest bin", err)
	}
	var input services.PlanInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "suggest bin", err)
	}
	candidate, err := c.Movements.SuggestBin(ctx.UserContext(), familyFrom(ctx), key, input)
	if err != nil {
		return respondError(ctx, c.Log, "suggest bin", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Suggested bin "+candidate.BinCode, candidate)
}

func (c *MovementController) ListAvailableBins(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "list available bins", err)
	}
	var input services.PlanInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "list available bins", err)
	}
	candidates, err := c.Movements.ListAvailableBins(ctx.UserContext(), familyFrom(ctx), key, input)
	if err != nil {
		return respondError(ctx, c.Log, "list available bins", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d bins available", len(candidates)), candidates)
}

func (c *MovementController) ValidateBin(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "validate bin", err)
	}
	var input services.PlanInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "validate bin", err)
	}
	candidate, err := c.Movements.ValidateBin(ctx.UserContext(), familyFrom(ctx), key, input)
	if err != nil {
		return respondError(ctx, c.Log, "validate bin", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Bin "+candidate.BinCode+" accepted", candidate)
}

func (c *MovementController) ExecuteMovement(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "execute movement", err)
	}
	var input services.MovementInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "execute movement", err)
	}
	result, err := c.Movements.ExecuteMovement(ctx.UserContext(), familyFrom(ctx), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "execute movement", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Movement recorded", result)
}

func (c *MovementController) ListMovements(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "list movements", err)
	}
	logs, err := c.Movements.ListMovements(ctx.UserContext(), familyFrom(ctx), key)
	if err != nil {
		return respondError(ctx, c.Log, "list movements", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d movements", len(logs)), logs)
}

func (c *MovementController) RecomputeStatus(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "recompute status", err)
	}
	status, err := c.Movements.RecomputeStatus(ctx.UserContext(), familyFrom(ctx), key, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "recompute status", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Order "+status.OrderNo+" is "+status.OrderStatusDisplay, status)
}
