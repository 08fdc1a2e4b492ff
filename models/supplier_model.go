package models

import (
	"fulfillment-wms/types"

	"gorm.io/gorm"
)

type Vendor struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:64;uniqueIndex"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (v *Vendor) BeforeCreate(tx *gorm.DB) error {
	assignID(&v.ID)
	return nil
}
