package controllers

import (
	"bytes"
	"fmt"
	"fulfillment-wms/services"
	"fulfillment-wms/types"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// OrderController serves the order and line endpoints of every family. The
// family comes from the route group.
type OrderController struct {
	Orders *services.OrderService
	Lines  *services.LineLedger
	Log    *zap.Logger
}

func NewOrderController(orders *services.OrderService, lines *services.LineLedger, logger *zap.Logger) *OrderController {
	return &OrderController{Orders: orders, Lines: lines, Log: logger}
}

type statusRequest struct {
	Status string `json:"status"`
}

func (c *OrderController) CreateOrder(ctx *fiber.Ctx) error {
	var input services.OrderInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "create order", err)
	}
	view, err := c.Orders.CreateDraft(ctx.UserContext(), familyFrom(ctx), input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "create order", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Order "+view.OrderNo+" created", view)
}

func (c *OrderController) GetOrder(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "get order", err)
	}
	view, err := c.Orders.Get(ctx.UserContext(), familyFrom(ctx), key)
	if err != nil {
		return respondError(ctx, c.Log, "get order", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Order found", view)
}

// ListOrders filters by status and owner. mine=true restricts to the caller.
func (c *OrderController) ListOrders(ctx *fiber.Ctx) error {
	filter := services.OrderListFilter{
		CreatedBy: int64(ctx.QueryInt("created_by", 0)),
		Status:    ctx.Query("status"),
	}
	if ctx.QueryBool("mine", false) {
		filter.CreatedBy = actorFrom(ctx)
	}
	views, err := c.Orders.List(ctx.UserContext(), familyFrom(ctx), filter)
	if err != nil {
		return respondError(ctx, c.Log, "list orders", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d orders", len(views)), views)
}

func (c *OrderController) UpdateOrder(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "update order", err)
	}
	var input services.OrderHeaderInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "update order", err)
	}
	view, err := c.Orders.UpdateHeader(ctx.UserContext(), familyFrom(ctx), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "update order", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Order "+view.OrderNo+" updated", view)
}

func (c *OrderController) SetStatus(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "set order status", err)
	}
	var input statusRequest
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "set order status", err)
	}
	view, err := c.Orders.SetStatus(ctx.UserContext(), familyFrom(ctx), key, input.Status, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "set order status", err)
	}
	if view == nil {
		return respondOK(ctx, fiber.StatusOK, "Order "+key.String()+" deleted", nil)
	}
	return respondOK(ctx, fiber.StatusOK, "Order "+view.OrderNo+" is now "+view.StatusDisplay, view)
}

func (c *OrderController) DeleteOrder(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "delete order", err)
	}
	if err := c.Orders.SoftDelete(ctx.UserContext(), familyFrom(ctx), key, actorFrom(ctx)); err != nil {
		return respondError(ctx, c.Log, "delete order", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Order "+key.String()+" deleted", nil)
}

func (c *OrderController) AddLine(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "add line", err)
	}
	var input services.LineInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "add line", err)
	}
	line, err := c.Lines.AddLine(ctx.UserContext(), familyFrom(ctx), key, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "add line", err)
	}
	return respondOK(ctx, fiber.StatusCreated, "Line saved", line)
}

func (c *OrderController) UpdateLine(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "update line", err)
	}
	lineID, err := idParam(ctx, "line")
	if err != nil {
		return respondError(ctx, c.Log, "update line", err)
	}
	var input services.LineInput
	if err := parseBody(ctx, &input); err != nil {
		return respondError(ctx, c.Log, "update line", err)
	}
	line, err := c.Lines.UpdateLine(ctx.UserContext(), familyFrom(ctx), key, lineID, input, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "update line", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Line updated", line)
}

func (c *OrderController) DeleteLine(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "delete line", err)
	}
	lineID, err := idParam(ctx, "line")
	if err != nil {
		return respondError(ctx, c.Log, "delete line", err)
	}
	if err := c.Lines.DeleteLine(ctx.UserContext(), familyFrom(ctx), key, lineID, actorFrom(ctx)); err != nil {
		return respondError(ctx, c.Log, "delete line", err)
	}
	return respondOK(ctx, fiber.StatusOK, "Line deleted", nil)
}

func (c *OrderController) GetLines(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "list lines", err)
	}
	lines, err := c.Lines.ListLines(ctx.UserContext(), familyFrom(ctx), key)
	if err != nil {
		return respondError(ctx, c.Log, "list lines", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d lines", len(lines)), lines)
}

func (c *OrderController) GetPendingLines(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "list pending lines", err)
	}
	lines, err := c.Lines.ListPendingLines(ctx.UserContext(), familyFrom(ctx), key)
	if err != nil {
		return respondError(ctx, c.Log, "list pending lines", err)
	}
	return respondOK(ctx, fiber.StatusOK, fmt.Sprintf("%d pending lines", len(lines)), lines)
}

func (c *OrderController) ExportPendingLines(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "export pending lines", err)
	}
	var buf bytes.Buffer
	if err := c.Lines.ExportPendingLines(ctx.UserContext(), familyFrom(ctx), key, &buf); err != nil {
		return respondError(ctx, c.Log, "export pending lines", err)
	}
	ctx.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	ctx.Set("Content-Disposition", fmt.Sprintf(`attachment; filename="pending-lines-%s.xlsx"`, key.String()))
	return ctx.Send(buf.Bytes())
}

func (c *OrderController) ImportLines(ctx *fiber.Ctx) error {
	key, err := orderKeyParam(ctx)
	if err != nil {
		return respondError(ctx, c.Log, "import lines", err)
	}
	file, err := ctx.FormFile("file")
	if err != nil {
		return respondError(ctx, c.Log, "import lines", &types.ValidationError{Field: "file", Reason: "is required"})
	}
	if !strings.HasSuffix(strings.ToLower(file.Filename), ".xlsx") {
		return respondError(ctx, c.Log, "import lines", &types.ValidationError{Field: "file", Reason: "only .xlsx files are accepted"})
	}
	content, err := file.Open()
	if err != nil {
		return respondError(ctx, c.Log, "import lines", types.WrapUnexpected("open upload", err))
	}
	defer content.Close()

	result, err := c.Lines.ImportLines(ctx.UserContext(), familyFrom(ctx), key, content, actorFrom(ctx))
	if err != nil {
		return respondError(ctx, c.Log, "import lines", err)
	}
	return respondOK(ctx, fiber.StatusOK,
		fmt.Sprintf("%d of %d rows imported", result.SuccessCount, result.TotalRows), result)
}
