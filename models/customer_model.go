package models

import (
	"fulfillment-wms/types"

	"gorm.io/gorm"
)

type Customer struct {
	ID       types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Code     string            `json:"code" gorm:"size:64;uniqueIndex"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Phone    string            `json:"phone"`
	City     string            `json:"city"`
	IsActive bool              `json:"is_active"`
	Audit
}

func (c *Customer) BeforeCreate(tx *gorm.DB) error {
	assignID(&c.ID)
	return nil
}
