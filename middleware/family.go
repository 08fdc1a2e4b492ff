package middleware

import (
	"fulfillment-wms/types"

	"github.com/gofiber/fiber/v2"
)

// InjectFamily tags every request of a route group with its order family so
// one set of controllers serves all of them.
func InjectFamily(family types.OrderFamily) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !family.Valid() {
			return fiber.NewError(fiber.StatusInternalServerError, "route group has no order family")
		}
		c.Locals("family", family)
		return c.Next()
	}
}
