package models

import (
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BinProduct is the occupancy of one bin by one lot. A bin has at most one
// active row; drained rows stay with IsActive=false.
type BinProduct struct {
	ID                types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	BinID             types.SnowflakeID `json:"bin_id" gorm:"index"`
	WarehouseID       types.SnowflakeID `json:"warehouse_id" gorm:"index"`
	ItemKind          types.ItemKind    `json:"item_kind" gorm:"size:16;index:idx_bin_products_item"`
	ItemID            types.SnowflakeID `json:"item_id" gorm:"index:idx_bin_products_item"`
	BatchNumber       string            `json:"batch_number" gorm:"size:64"`
	Uom               string            `json:"uom" gorm:"size:16"`
	StockLocation     string            `json:"stock_location" gorm:"size:64"`
	ManufactureDate   string            `json:"manufacture_date" gorm:"size:10"`
	Mrp               decimal.Decimal   `json:"mrp" gorm:"type:decimal(20,4)"`
	PalletTypeID      types.SnowflakeID `json:"pallet_type_id"`
	MaxQuantity       decimal.Decimal   `json:"max_quantity" gorm:"type:decimal(20,4)"`
	FilledQuantity    decimal.Decimal   `json:"filled_quantity" gorm:"type:decimal(20,4)"`
	AvailableQuantity decimal.Decimal   `json:"available_quantity" gorm:"type:decimal(20,4)"`
	IsActive          bool              `json:"is_active" gorm:"index"`
	Version           int64             `json:"version"`
	Audit
}

func (b *BinProduct) BeforeCreate(tx *gorm.DB) error {
	assignID(&b.ID)
	if b.Version == 0 {
		b.Version = 1
	}
	return nil
}

func (b *BinProduct) Item() types.ItemRef {
	return types.ItemRef{Kind: b.ItemKind, ID: b.ItemID}
}

func (b *BinProduct) SetItem(ref types.ItemRef) {
	b.ItemKind = ref.Kind
	b.ItemID = ref.ID
}
