package services

import (
	"context"
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LineInput is the payload of add-line and update-line. Exactly one of
// ProductID and MaterialID must be set.
type LineInput struct {
	ProductID     string              `json:"product_id"`
	MaterialID    string              `json:"material_id"`
	WarehouseID   string              `json:"warehouse_id" validate:"required"`
	Uom           string              `json:"uom" validate:"required,max=16"`
	StockLocation string              `json:"stock_location" validate:"required,max=64"`
	BatchNumber   string              `json:"batch_number" validate:"required,max=64"`
	Quantity      decimal.Decimal     `json:"quantity"`
	Mrp           decimal.NullDecimal `json:"mrp"`
	Discount      decimal.NullDecimal `json:"discount"`
}

type lineFields struct {
	item          types.ItemRef
	warehouseID   types.SnowflakeID
	uom           string
	stockLocation string
	batchNumber   string
	quantity      decimal.Decimal
	mrp           decimal.Decimal
	discount      decimal.Decimal
}

func (in LineInput) normalize() (lineFields, error) {
	in.Uom = strings.ToUpper(strings.TrimSpace(in.Uom))
	in.StockLocation = strings.ToUpper(strings.TrimSpace(in.StockLocation))
	in.BatchNumber = strings.TrimSpace(in.BatchNumber)
	in.WarehouseID = strings.TrimSpace(in.WarehouseID)

	item, err := types.NewItemRef(in.ProductID, in.MaterialID)
	if err != nil {
		return lineFields{}, err
	}
	if err := validateStruct(in); err != nil {
		return lineFields{}, err
	}
	warehouseID, err := types.ParseSnowflakeID(in.WarehouseID)
	if err != nil {
		return lineFields{}, &types.ValidationError{Field: "warehouse_id", Reason: "is not a valid id"}
	}
	if err := checkQuantity("quantity", in.Quantity); err != nil {
		return lineFields{}, err
	}
	if !in.Mrp.Valid {
		return lineFields{}, &types.ValidationError{Field: "mrp", Reason: "is required"}
	}
	if in.Mrp.Decimal.IsNegative() {
		return lineFields{}, &types.ValidationError{Field: "mrp", Reason: "must not be negative"}
	}
	if !in.Discount.Valid {
		return lineFields{}, &types.ValidationError{Field: "discount", Reason: "is required"}
	}
	if in.Discount.Decimal.IsNegative() {
		return lineFields{}, &types.ValidationError{Field: "discount", Reason: "must not be negative"}
	}

	return lineFields{
		item:          item,
		warehouseID:   warehouseID,
		uom:           in.Uom,
		stockLocation: in.StockLocation,
		batchNumber:   in.BatchNumber,
		quantity:      in.Quantity,
		mrp:           in.Mrp.Decimal,
		discount:      in.Discount.Decimal,
	}, nil
}

// LineView is an order line with the display fields of its item.
type LineView struct {
	models.OrderLine
	ItemCode string `json:"item_code"`
	ItemName string `json:"item_name"`
}

// LineLedger keeps the quantity bookkeeping of order lines.
type LineLedger struct {
	db      *gorm.DB
	catalog CatalogFactory
	log     *zap.Logger
}

func NewLineLedger(db *gorm.DB, catalog CatalogFactory, logger *zap.Logger) *LineLedger {
	return &LineLedger{db: db, catalog: catalog, log: logger}
}

// AddLine appends a line to a Draft order. A live line with the same item and
// batch absorbs the new quantity instead of a second row being created.
func (s *LineLedger) AddLine(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, in LineInput, actor int64) (*LineView, error) {
	fields, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var view *LineView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "add a line to", types.OrderNew); err != nil {
			return err
		}

		catalog := s.catalog(tx)
		item, err := s.checkCatalog(catalog, fields)
		if err != nil {
			return err
		}

		lines := repositories.NewOrderLineRepository(tx)
		if err := checkMinimumQuantity(lines, order.ID, item, fields.quantity, 0); err != nil {
			return err
		}

		target, err := lines.FindMergeTarget(order.ID, fields.item, fields.batchNumber)
		if err != nil {
			return err
		}

		if target != nil {
			target.Quantity = target.Quantity.Add(fields.quantity)
			target.MrpTotal = target.MrpTotal.Add(fields.mrp.Mul(fields.quantity))
			target.DiscountTotal = target.DiscountTotal.Add(fields.discount.Mul(fields.quantity))
			target.NetAmount = target.MrpTotal.Sub(target.DiscountTotal)
			resetCounters(target)
			if err := lines.Save(target, actor); err != nil {
				return err
			}
			view = &LineView{OrderLine: *target, ItemCode: item.Code, ItemName: item.Name}
			return nil
		}

		line := &models.OrderLine{
			OrderID:       order.ID,
			Family:        order.Family,
			WarehouseID:   fields.warehouseID,
			Uom:           fields.uom,
			StockLocation: fields.stockLocation,
			BatchNumber:   fields.batchNumber,
			Quantity:      fields.quantity,
			Mrp:           fields.mrp,
			Discount:      fields.discount,
			Audit:         models.Audit{CreatedBy: actor, UpdatedBy: actor},
		}
		line.SetItem(fields.item)
		line.Reprice()
		resetCounters(line)
		if err := lines.Create(line); err != nil {
			return err
		}
		view = &LineView{OrderLine: *line, ItemCode: item.Code, ItemName: item.Name}
		return nil
	})
	if err != nil {
		return nil, types.WrapUnexpected("add line", err)
	}

	s.log.Info("order line saved",
		zap.String("family", string(family)),
		zap.String("order", orderKey.String()),
		zap.String("line_id", view.ID.String()),
		zap.String("quantity", view.Quantity.String()))
	return view, nil
}

// UpdateLine replaces a line of a Draft order. Outstanding work restarts from
// the new quantity.
func (s *LineLedger) UpdateLine(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, lineID types.SnowflakeID, in LineInput, actor int64) (*LineView, error) {
	fields, err := in.normalize()
	if err != nil {
		return nil, err
	}

	var view *LineView
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "update a line of", types.OrderNew); err != nil {
			return err
		}

		lines := repositories.NewOrderLineRepository(tx)
		line, err := lines.FindForUpdate(order.ID, lineID)
		if err != nil {
			return err
		}

		item, err := s.checkCatalog(s.catalog(tx), fields)
		if err != nil {
			return err
		}
		if err := checkMinimumQuantity(lines, order.ID, item, fields.quantity, line.ID); err != nil {
			return err
		}
		dup, err := lines.CountDuplicates(order.ID, fields.item, fields.batchNumber, line.ID)
		if err != nil {
			return err
		}
		if dup > 0 {
			return &types.ValidationError{Field: "batch_number", Reason: "another line of this order already holds " + item.Code + " batch " + fields.batchNumber}
		}

		line.SetItem(fields.item)
		line.WarehouseID = fields.warehouseID
		line.Uom = fields.uom
		line.StockLocation = fields.stockLocation
		line.BatchNumber = fields.batchNumber
		line.Quantity = fields.quantity
		line.Mrp = fields.mrp
		line.Discount = fields.discount
		line.Reprice()
		resetCounters(line)
		if err := lines.Save(line, actor); err != nil {
			return err
		}
		view = &LineView{OrderLine: *line, ItemCode: item.Code, ItemName: item.Name}
		return nil
	})
	if err != nil {
		return nil, types.WrapUnexpected("update line", err)
	}
	return view, nil
}

func (s *LineLedger) DeleteLine(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, lineID types.SnowflakeID, actor int64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, family, orderKey)
		if err != nil {
			return err
		}
		if err := requireOrderStatus(order, "delete a line of", types.OrderNew); err != nil {
			return err
		}
		lines := repositories.NewOrderLineRepository(tx)
		line, err := lines.FindForUpdate(order.ID, lineID)
		if err != nil {
			return err
		}
		return lines.SoftDelete(line, actor)
	})
	return types.WrapUnexpected("delete line", err)
}

func (s *LineLedger) ListLines(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey) ([]LineView, error) {
	return s.list(ctx, family, orderKey, false)
}

// ListPendingLines returns the picklist or put-away list: live lines with
// quantity still outstanding.
func (s *LineLedger) ListPendingLines(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey) ([]LineView, error) {
	return s.list(ctx, family, orderKey, true)
}

func (s *LineLedger) list(ctx context.Context, family types.OrderFamily, orderKey types.LookupKey, pendingOnly bool) ([]LineView, error) {
	db := s.db.WithContext(ctx)
	order, err := repositories.NewOrderRepository(db).FindByKey(family, orderKey)
	if err != nil {
		return nil, types.WrapUnexpected("list lines", err)
	}
	views, err := listLineViews(db, s.catalog(db), order.ID, pendingOnly)
	if err != nil {
		return nil, types.WrapUnexpected("list lines", err)
	}
	return views, nil
}

func (s *LineLedger) checkCatalog(catalog CatalogGateway, fields lineFields) (*repositories.CatalogItem, error) {
	item, err := activeItem(catalog, fields.item)
	if err != nil {
		return nil, err
	}
	if _, err := activeWarehouse(catalog, fields.warehouseID); err != nil {
		return nil, err
	}
	return item, nil
}

// checkMinimumQuantity enforces the item's minimum order quantity across all
// live lines of the same item on the order.
func checkMinimumQuantity(lines *repositories.OrderLineRepository, orderID types.SnowflakeID, item *repositories.CatalogItem, requested decimal.Decimal, excludeID types.SnowflakeID) error {
	if !item.MinQty.IsPositive() || !requested.LessThan(item.MinQty) {
		return nil
	}
	existing, err := lines.SumOtherQuantities(orderID, item.Ref, excludeID)
	if err != nil {
		return err
	}
	if requested.Add(existing).LessThan(item.MinQty) {
		return &types.BelowMinimumQuantityError{
			Item:      item.Name,
			Requested: requested,
			Existing:  existing,
			Minimum:   item.MinQty,
		}
	}
	return nil
}

func resetCounters(line *models.OrderLine) {
	line.PendingQuantity = line.Quantity
	line.PickedQuantity = decimal.Zero
	line.ReceivedQuantity = decimal.Zero
}

func listLineViews(db *gorm.DB, catalog CatalogGateway, orderID types.SnowflakeID, pendingOnly bool) ([]LineView, error) {
	repo := repositories.NewOrderLineRepository(db)
	var (
		lines []models.OrderLine
		err   error
	)
	if pendingOnly {
		lines, err = repo.ListPending(orderID)
	} else {
		lines, err = repo.ListByOrder(orderID)
	}
	if err != nil {
		return nil, err
	}

	refs := make([]types.ItemRef, 0, len(lines))
	for i := range lines {
		refs = append(refs, lines[i].Item())
	}
	labels, err := catalog.ItemLabels(refs)
	if err != nil {
		return nil, err
	}

	views := make([]LineView, 0, len(lines))
	for _, line := range lines {
		if pendingOnly && !utils.QtyIsPositive(line.PendingQuantity) {
			continue
		}
		label := labels[line.Item()]
		views = append(views, LineView{OrderLine: line, ItemCode: label.Code, ItemName: label.Name})
	}
	return views, nil
}
