package repositories

import (
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"time"

	"gorm.io/gorm"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

type OrderFilter struct {
	CreatedBy int64
	Status    types.OrderStatus
}

func (r *OrderRepository) GenerateOrderNo(family types.OrderFamily, now time.Time) (string, error) {
	return nextDocumentNo(r.db, "orders", "order_no", family.Prefix(), now)
}

func (r *OrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// FindByKey resolves an order of the given family by id or order number.
// Soft-deleted orders are reported as not found.
func (r *OrderRepository) FindByKey(family types.OrderFamily, key types.LookupKey) (*models.Order, error) {
	return r.find(r.db, family, key)
}

// FindForUpdate is FindByKey with a row lock held until the transaction ends.
func (r *OrderRepository) FindForUpdate(family types.OrderFamily, key types.LookupKey) (*models.Order, error) {
	return r.find(forUpdate(r.db), family, key)
}

func (r *OrderRepository) find(db *gorm.DB, family types.OrderFamily, key types.LookupKey) (*models.Order, error) {
	q := db.Where("family = ? AND is_deleted = ?", family, false)
	if key.IsID() {
		q = q.Where("id = ?", key.ID)
	} else {
		q = q.Where("order_no = ?", key.Code)
	}

	var order models.Order
	if err := q.Take(&order).Error; err != nil {
		return nil, notFound(err, family.Label(), key)
	}
	return &order, nil
}

func (r *OrderRepository) List(family types.OrderFamily, filter OrderFilter) ([]models.Order, error) {
	q := r.db.Where("family = ? AND is_deleted = ?", family, false)
	if filter.CreatedBy != 0 {
		q = q.Where("created_by = ?", filter.CreatedBy)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}

	var orders []models.Order
	if err := q.Order("created_at DESC").Order("id DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) UpdateFields(id types.SnowflakeID, actor int64, fields map[string]interface{}) error {
	fields["updated_by"] = actor
	fields["updated_at"] = time.Now()
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(fields).Error
}

func (r *OrderRepository) UpdateStatus(id types.SnowflakeID, status types.OrderStatus, actor int64) error {
	return r.UpdateFields(id, actor, map[string]interface{}{"status": status})
}

// SoftDelete marks the order deleted together with its lines.
func (r *OrderRepository) SoftDelete(id types.SnowflakeID, actor int64) error {
	now := time.Now()
	if err := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(map[string]interface{}{
		"is_deleted": true,
		"status":     types.OrderDeleted,
		"updated_by": actor,
		"updated_at": now,
	}).Error; err != nil {
		return err
	}
	return r.db.Model(&models.OrderLine{}).Where("order_id = ?", id).Updates(map[string]interface{}{
		"is_deleted": true,
		"updated_by": actor,
		"updated_at": now,
	}).Error
}
