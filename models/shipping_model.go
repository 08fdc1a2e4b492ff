package models

import (
	"fulfillment-wms/types"
	"time"

	"gorm.io/gorm"
)

type Shipment struct {
	ID           types.SnowflakeID    `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ShipmentNo   string               `json:"shipment_no" gorm:"size:32;uniqueIndex"`
	OrderID      types.SnowflakeID    `json:"order_id" gorm:"index"`
	Family       types.OrderFamily    `json:"family" gorm:"size:32"`
	Carrier      string               `json:"carrier" gorm:"size:64"`
	TrackingNo   string               `json:"tracking_no" gorm:"size:64"`
	Status       types.ShipmentStatus `json:"status" gorm:"size:16"`
	DispatchedAt *time.Time           `json:"dispatched_at"`
	DeliveredAt  *time.Time           `json:"delivered_at"`
	Remarks      string               `json:"remarks"`
	IsDeleted    bool                 `json:"is_deleted"`
	Audit
}

func (s *Shipment) BeforeCreate(tx *gorm.DB) error {
	assignID(&s.ID)
	return nil
}
