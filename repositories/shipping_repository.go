package repositories

import (
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"time"

	"gorm.io/gorm"
)

type ShipmentRepository struct {
	db *gorm.DB
}

func NewShipmentRepository(db *gorm.DB) *ShipmentRepository {
	return &ShipmentRepository{db: db}
}

func (r *ShipmentRepository) GenerateShipmentNo(now time.Time) (string, error) {
	return nextDocumentNo(r.db, "shipments", "shipment_no", "SHP", now)
}

func (r *ShipmentRepository) Create(s *models.Shipment) error {
	return r.db.Create(s).Error
}

// FindByKey resolves a shipment by id or by its shipment number.
func (r *ShipmentRepository) FindByKey(key types.LookupKey, lock bool) (*models.Shipment, error) {
	db := r.db
	if lock {
		db = forUpdate(db)
	}
	q := db.Where("is_deleted = ?", false)
	if key.IsID() {
		q = q.Where("id = ?", key.ID)
	} else {
		q = q.Where("shipment_no = ?", key.Code)
	}
	var s models.Shipment
	if err := q.Take(&s).Error; err != nil {
		return nil, notFound(err, "shipment", key)
	}
	return &s, nil
}

func (r *ShipmentRepository) ListByOrder(orderID types.SnowflakeID) ([]models.Shipment, error) {
	var list []models.Shipment
	err := r.db.Where("order_id = ? AND is_deleted = ?", orderID, false).Order("created_at").Find(&list).Error
	return list, err
}

func (r *ShipmentRepository) UpdateFields(id types.SnowflakeID, actor int64, fields map[string]interface{}) error {
	fields["updated_by"] = actor
	fields["updated_at"] = time.Now()
	return r.db.Model(&models.Shipment{}).Where("id = ?", id).Updates(fields).Error
}
