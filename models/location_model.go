package models

import (
	"fulfillment-wms/types"

	"gorm.io/gorm"
)

type Warehouse struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:32;uniqueIndex"`
	Name     string            `json:"name"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (w *Warehouse) BeforeCreate(tx *gorm.DB) error {
	assignID(&w.ID)
	return nil
}

// Bin is a physical slot of a warehouse. PalletTypeID is zero when the bin
// takes any pallet. OccupancyVersion is bumped by every occupancy change and
// serializes writers of the same bin.
type Bin struct {
	ID               types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code             string            `json:"code" gorm:"size:32;uniqueIndex"`
	WarehouseID      types.SnowflakeID `json:"warehouse_id" gorm:"index"`
	PalletTypeID     types.SnowflakeID `json:"pallet_type_id"`
	Row              string            `json:"row" gorm:"size:8"`
	Bay              string            `json:"bay" gorm:"size:8"`
	Level            string            `json:"level" gorm:"size:8"`
	IsActive         bool              `json:"is_active"`
	OccupancyVersion int64             `json:"-" gorm:"not null;default:0"`
	Audit
}

func (b *Bin) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	return nil
}
