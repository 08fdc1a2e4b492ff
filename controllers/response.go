package controllers

import (
	"fulfillment-wms/types"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func respondOK(ctx *fiber.Ctx, status int, message string, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    data,
	})
}

// respondError maps a service error to the failure envelope. Only unexpected
// errors are logged; domain errors are the caller's to fix.
func respondError(ctx *fiber.Ctx, log *zap.Logger, operation string, err error) error {
	class := types.Classify(err)
	status := fiber.StatusBadRequest
	if class == types.ClassUnexpected {
		status = fiber.StatusInternalServerError
		log.Error(operation+" failed",
			zap.String("method", ctx.Method()),
			zap.String("path", ctx.Path()),
			zap.Error(err))
	}
	return ctx.Status(status).JSON(fiber.Map{
		"success":        false,
		"message":        err.Error(),
		"classification": class,
	})
}

func parseBody(ctx *fiber.Ctx, out interface{}) error {
	if err := ctx.BodyParser(out); err != nil {
		return &types.ValidationError{Field: "body", Reason: "malformed request body: " + err.Error()}
	}
	return nil
}

// actorFrom reads the user id placed in Locals by the auth middleware.
func actorFrom(ctx *fiber.Ctx) int64 {
	switch v := ctx.Locals("userID").(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

func familyFrom(ctx *fiber.Ctx) types.OrderFamily {
	family, _ := ctx.Locals("family").(types.OrderFamily)
	return family
}

func orderKeyParam(ctx *fiber.Ctx) (types.LookupKey, error) {
	return types.ParseLookupKey(ctx.Params("key"))
}

// documentKeyParam reads a receiving or shipment by id or document number.
func documentKeyParam(ctx *fiber.Ctx) (types.LookupKey, error) {
	return types.ParseLookupKey(ctx.Params("doc"))
}

func idParam(ctx *fiber.Ctx, name string) (types.SnowflakeID, error) {
	id, err := types.ParseSnowflakeID(ctx.Params(name))
	if err != nil {
		return 0, &types.ValidationError{Field: name, Reason: "is not a valid id"}
	}
	return id, nil
}
