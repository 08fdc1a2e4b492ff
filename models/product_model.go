package models

import (
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:64;uniqueIndex"`
	Name     string            `json:"name"`
	BaseUom  string            `json:"base_uom" gorm:"size:16"`
	MinQty   decimal.Decimal   `json:"min_qty" gorm:"type:decimal(20,4)"`
	Mrp      decimal.Decimal   `json:"mrp" gorm:"type:decimal(20,4)"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}

// Material is a raw or packing material, ordered the same way as a product.
type Material struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:64;uniqueIndex"`
	Name     string            `json:"name"`
	BaseUom  string            `json:"base_uom" gorm:"size:16"`
	MinQty   decimal.Decimal   `json:"min_qty" gorm:"type:decimal(20,4)"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (m *Material) BeforeCreate(tx *gorm.DB) error {
	assignID(&m.ID)
	return nil
}
