package models

import (
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PalletType struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:32;uniqueIndex"`
	Name     string            `json:"name"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (p *PalletType) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// PalletCapacity is how much of one item fits on one pallet type.
type PalletCapacity struct {
	ID           types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ItemKind     types.ItemKind    `json:"item_kind" gorm:"size:16;index:idx_pallet_capacities_item"`
	ItemID       types.SnowflakeID `json:"item_id" gorm:"index:idx_pallet_capacities_item"`
	PalletTypeID types.SnowflakeID `json:"pallet_type_id"`
	Capacity     decimal.Decimal   `json:"capacity" gorm:"type:decimal(20,4)"`
}

func (p *PalletCapacity) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

func (p *PalletCapacity) Item() types.ItemRef {
	return types.ItemRef{Kind: p.ItemKind, ID: p.ItemID}
}
