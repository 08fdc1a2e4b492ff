package repositories

import (
	"errors"
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderLineRepository struct {
	db *gorm.DB
}

func NewOrderLineRepository(db *gorm.DB) *OrderLineRepository {
	return &OrderLineRepository{db: db}
}

func (r *OrderLineRepository) Create(line *models.OrderLine) error {
	return r.db.Create(line).Error
}

func (r *OrderLineRepository) FindByID(orderID, id types.SnowflakeID) (*models.OrderLine, error) {
	return r.find(r.db, orderID, id)
}

func (r *OrderLineRepository) FindForUpdate(orderID, id types.SnowflakeID) (*models.OrderLine, error) {
	return r.find(forUpdate(r.db), orderID, id)
}

func (r *OrderLineRepository) find(db *gorm.DB, orderID, id types.SnowflakeID) (*models.OrderLine, error) {
	var line models.OrderLine
	err := db.Where("id = ? AND order_id = ? AND is_deleted = ?", id, orderID, false).Take(&line).Error
	if err != nil {
		return nil, notFound(err, "order line", id)
	}
	return &line, nil
}

// FindMergeTarget returns the live line with the same item and batch, or nil.
func (r *OrderLineRepository) FindMergeTarget(orderID types.SnowflakeID, item types.ItemRef, batch string) (*models.OrderLine, error) {
	var line models.OrderLine
	err := forUpdate(r.db).
		Where("order_id = ? AND item_kind = ? AND item_id = ? AND batch_number = ? AND is_deleted = ?",
			orderID, item.Kind, item.ID, batch, false).
		Order("created_at").
		Take(&line).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// CountDuplicates counts the other live lines of the order holding the same
// item and batch.
func (r *OrderLineRepository) CountDuplicates(orderID types.SnowflakeID, item types.ItemRef, batch string, excludeID types.SnowflakeID) (int64, error) {
	var n int64
	err := r.db.Model(&models.OrderLine{}).
		Where("order_id = ? AND item_kind = ? AND item_id = ? AND batch_number = ? AND is_deleted = ? AND id <> ?",
			orderID, item.Kind, item.ID, batch, false, excludeID).
		Count(&n).Error
	return n, err
}

func (r *OrderLineRepository) ListByOrder(orderID types.SnowflakeID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.Where("order_id = ? AND is_deleted = ?", orderID, false).
		Order("created_at").Order("id").
		Find(&lines).Error
	return lines, err
}

func (r *OrderLineRepository) ListPending(orderID types.SnowflakeID) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := r.db.Where("order_id = ? AND is_deleted = ? AND pending_quantity > ?", orderID, false, 0).
		Order("created_at").Order("id").
		Find(&lines).Error
	return lines, err
}

// SumOtherQuantities totals the live lines of the same item on the order,
// leaving out excludeID (zero to include every line).
func (r *OrderLineRepository) SumOtherQuantities(orderID types.SnowflakeID, item types.ItemRef, excludeID types.SnowflakeID) (decimal.Decimal, error) {
	q := r.db.Model(&models.OrderLine{}).
		Where("order_id = ? AND item_kind = ? AND item_id = ? AND is_deleted = ?", orderID, item.Kind, item.ID, false)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}

	var quantities []decimal.Decimal
	if err := q.Pluck("quantity", &quantities).Error; err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, qty := range quantities {
		total = total.Add(qty)
	}
	return total, nil
}

// Save writes the editable columns of the line guarded by its version.
func (r *OrderLineRepository) Save(line *models.OrderLine, actor int64) error {
	expected := line.Version
	res := r.db.Model(&models.OrderLine{}).
		Where("id = ? AND version = ?", line.ID, expected).
		Updates(map[string]interface{}{
			"item_kind":         line.ItemKind,
			"item_id":           line.ItemID,
			"warehouse_id":      line.WarehouseID,
			"uom":               line.Uom,
			"stock_location":    line.StockLocation,
			"batch_number":      line.BatchNumber,
			"quantity":          line.Quantity,
			"pending_quantity":  line.PendingQuantity,
			"picked_quantity":   line.PickedQuantity,
			"received_quantity": line.ReceivedQuantity,
			"mrp":               line.Mrp,
			"discount":          line.Discount,
			"mrp_total":         line.MrpTotal,
			"discount_total":    line.DiscountTotal,
			"net_amount":        line.NetAmount,
			"version":           expected + 1,
			"updated_by":        actor,
			"updated_at":        time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleVersion("order line", line.ID)
	}
	line.Version = expected + 1
	line.UpdatedBy = actor
	return nil
}

// UpdateCounters writes pending and the family's processed counter with a
// compare-and-swap on version.
func (r *OrderLineRepository) UpdateCounters(line *models.OrderLine, actor int64) error {
	expected := line.Version
	res := r.db.Model(&models.OrderLine{}).
		Where("id = ? AND version = ?", line.ID, expected).
		Updates(map[string]interface{}{
			"pending_quantity":     line.PendingQuantity,
			line.ProcessedColumn(): line.Processed(),
			"version":              expected + 1,
			"updated_by":           actor,
			"updated_at":           time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleVersion("order line", line.ID)
	}
	line.Version = expected + 1
	return nil
}

func (r *OrderLineRepository) SoftDelete(line *models.OrderLine, actor int64) error {
	res := r.db.Model(&models.OrderLine{}).
		Where("id = ? AND version = ?", line.ID, line.Version).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"version":    line.Version + 1,
			"updated_by": actor,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleVersion("order line", line.ID)
	}
	return nil
}
