package repositories

import (
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"time"

	"gorm.io/gorm"
)

// ReceivingRepository stores receivings and their put-away tasks.
type ReceivingRepository struct {
	db *gorm.DB
}

func NewReceivingRepository(db *gorm.DB) *ReceivingRepository {
	return &ReceivingRepository{db: db}
}

func (r *ReceivingRepository) GenerateReceivingNo(now time.Time) (string, error) {
	return nextDocumentNo(r.db, "receivings", "receiving_no", "RCV", now)
}

func (r *ReceivingRepository) Create(rcv *models.Receiving) error {
	return r.db.Create(rcv).Error
}

// FindByKey resolves a receiving by id or by its receiving number.
func (r *ReceivingRepository) FindByKey(key types.LookupKey, lock bool) (*models.Receiving, error) {
	db := r.db
	if lock {
		db = forUpdate(db)
	}
	q := db.Where("is_deleted = ?", false)
	if key.IsID() {
		q = q.Where("id = ?", key.ID)
	} else {
		q = q.Where("receiving_no = ?", key.Code)
	}
	var rcv models.Receiving
	if err := q.Take(&rcv).Error; err != nil {
		return nil, notFound(err, "receiving", key)
	}
	return &rcv, nil
}

// FindLiveByOrder returns the receiving of an order that is not cancelled, or
// a NotFoundError.
func (r *ReceivingRepository) FindLiveByOrder(orderID types.SnowflakeID, lock bool) (*models.Receiving, error) {
	db := r.db
	if lock {
		db = forUpdate(db)
	}
	var rcv models.Receiving
	err := db.Where("order_id = ? AND is_deleted = ? AND status <> ?", orderID, false, types.ReceivingCancelled).
		Take(&rcv).Error
	if err != nil {
		return nil, notFound(err, "receiving for order", orderID)
	}
	return &rcv, nil
}

func (r *ReceivingRepository) ListByOrder(orderID types.SnowflakeID) ([]models.Receiving, error) {
	var list []models.Receiving
	err := r.db.Preload("PutAways").
		Where("order_id = ? AND is_deleted = ?", orderID, false).
		Order("created_at").
		Find(&list).Error
	return list, err
}

func (r *ReceivingRepository) UpdateFields(id types.SnowflakeID, actor int64, fields map[string]interface{}) error {
	fields["updated_by"] = actor
	fields["updated_at"] = time.Now()
	return r.db.Model(&models.Receiving{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ReceivingRepository) CreatePutAway(task *models.PutAway) error {
	return r.db.Create(task).Error
}

func (r *ReceivingRepository) FindPutAway(id types.SnowflakeID, lock bool) (*models.PutAway, error) {
	db := r.db
	if lock {
		db = forUpdate(db)
	}
	var task models.PutAway
	if err := db.Where("id = ?", id).Take(&task).Error; err != nil {
		return nil, notFound(err, "put-away", id)
	}
	return &task, nil
}

func (r *ReceivingRepository) ListPutAways(receivingID types.SnowflakeID) ([]models.PutAway, error) {
	var tasks []models.PutAway
	err := r.db.Where("receiving_id = ?", receivingID).Order("created_at").Find(&tasks).Error
	return tasks, err
}

func (r *ReceivingRepository) UpdatePutAway(id types.SnowflakeID, actor int64, fields map[string]interface{}) error {
	fields["updated_by"] = actor
	fields["updated_at"] = time.Now()
	return r.db.Model(&models.PutAway{}).Where("id = ?", id).Updates(fields).Error
}
