package repositories

import (
	"errors"
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"time"

	"gorm.io/gorm"
)

// BinProductRepository reads and writes bin occupancy rows.
type BinProductRepository struct {
	db *gorm.DB
}

func NewBinProductRepository(db *gorm.DB) *BinProductRepository {
	return &BinProductRepository{db}
}

// OccupancyFilter narrows the active rows considered for a pick.
type OccupancyFilter struct {
	WarehouseID   types.SnowflakeID
	Item          types.ItemRef
	BatchNumber   string
	Uom           string
	StockLocation string
}

// ClaimBin bumps the bin's occupancy version. The row lock this write takes is
// held until the transaction ends, so a second writer of the same bin waits
// here, including when the bin has no occupancy row yet.
func (r *BinProductRepository) ClaimBin(binID types.SnowflakeID) error {
	res := r.db.Model(&models.Bin{}).
		Where("id = ?", binID).
		UpdateColumn("occupancy_version", gorm.Expr("occupancy_version + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &types.NotFoundError{Entity: "bin", Key: binID.String()}
	}
	return nil
}

// FindActiveByBin returns the active occupancy of the bin or nil.
func (r *BinProductRepository) FindActiveByBin(binID types.SnowflakeID, lock bool) (*models.BinProduct, error) {
	db := r.db
	if lock {
		db = forUpdate(db)
	}
	var row models.BinProduct
	err := db.Where("bin_id = ? AND is_active = ?", binID, true).Order("updated_at DESC").Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *BinProductRepository) ListActive(filter OccupancyFilter) ([]models.BinProduct, error) {
	q := r.db.Where("is_active = ? AND filled_quantity > ?", true, 0).
		Where("item_kind = ? AND item_id = ?", filter.Item.Kind, filter.Item.ID)
	if filter.WarehouseID != 0 {
		q = q.Where("warehouse_id = ?", filter.WarehouseID)
	}
	if filter.BatchNumber != "" {
		q = q.Where("batch_number = ?", filter.BatchNumber)
	}
	if filter.Uom != "" {
		q = q.Where("uom = ?", filter.Uom)
	}
	if filter.StockLocation != "" {
		q = q.Where("stock_location = ?", filter.StockLocation)
	}

	var rows []models.BinProduct
	err := q.Find(&rows).Error
	return rows, err
}

// ActiveBinIDs lists the bins of a warehouse that currently hold stock.
func (r *BinProductRepository) ActiveBinIDs(warehouseID types.SnowflakeID) (map[types.SnowflakeID]bool, error) {
	var ids []types.SnowflakeID
	err := r.db.Model(&models.BinProduct{}).
		Where("warehouse_id = ? AND is_active = ?", warehouseID, true).
		Pluck("bin_id", &ids).Error
	if err != nil {
		return nil, err
	}
	out := make(map[types.SnowflakeID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *BinProductRepository) ListByBin(binID types.SnowflakeID) ([]models.BinProduct, error) {
	var rows []models.BinProduct
	err := r.db.Where("bin_id = ?", binID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

func (r *BinProductRepository) Create(row *models.BinProduct) error {
	return r.db.Create(row).Error
}

// UpdateCounters persists filled, available and active with a
// compare-and-swap on version.
func (r *BinProductRepository) UpdateCounters(row *models.BinProduct, actor int64) error {
	expected := row.Version
	res := r.db.Model(&models.BinProduct{}).
		Where("id = ? AND version = ?", row.ID, expected).
		Updates(map[string]interface{}{
			"filled_quantity":    row.FilledQuantity,
			"available_quantity": row.AvailableQuantity,
			"is_active":          row.IsActive,
			"version":            expected + 1,
			"updated_by":         actor,
			"updated_at":         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return staleVersion("bin product", row.ID)
	}
	row.Version = expected + 1
	return nil
}

type BinProductLogRepository struct {
	db *gorm.DB
}

func NewBinProductLogRepository(db *gorm.DB) *BinProductLogRepository {
	return &BinProductLogRepository{db}
}

func (r *BinProductLogRepository) Create(log *models.BinProductLog) error {
	return r.db.Create(log).Error
}

func (r *BinProductLogRepository) ListByOrder(orderID types.SnowflakeID) ([]models.BinProductLog, error) {
	var logs []models.BinProductLog
	err := r.db.Where("order_id = ?", orderID).Order("created_at").Order("id").Find(&logs).Error
	return logs, err
}

func (r *BinProductLogRepository) ListByBin(binID types.SnowflakeID) ([]models.BinProductLog, error) {
	var logs []models.BinProductLog
	err := r.db.Where("bin_id = ?", binID).Order("created_at").Order("id").Find(&logs).Error
	return logs, err
}
