package models

import (
	"fulfillment-wms/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Receiving struct {
	ID                types.SnowflakeID     `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ReceivingNo       string                `json:"receiving_no" gorm:"size:32;uniqueIndex"`
	OrderID           types.SnowflakeID     `json:"order_id" gorm:"index"`
	Family            types.OrderFamily     `json:"family" gorm:"size:32"`
	Status            types.ReceivingStatus `json:"status" gorm:"size:32"`
	QuarantineTracked bool                  `json:"quarantine_tracked"`
	QuarantineEndDate string                `json:"quarantine_end_date" gorm:"size:10"`
	QuarantineRemark  string                `json:"quarantine_remark"`
	ReceivedAt        *time.Time            `json:"received_at"`
	Remarks           string                `json:"remarks"`
	IsDeleted         bool                  `json:"is_deleted"`
	Audit
	PutAways []PutAway `json:"putaways,omitempty" gorm:"foreignKey:ReceivingID"`
}

func (r *Receiving) BeforeCreate(tx *gorm.DB) error {
	assignID(&r.ID)
	return nil
}

// PutAway is a planned deposit of part of a receiving line into a bin.
type PutAway struct {
	ID             types.SnowflakeID   `json:"id" gorm:"primaryKey;autoIncrement:false"`
	ReceivingID    types.SnowflakeID   `json:"receiving_id" gorm:"index"`
	OrderLineID    types.SnowflakeID   `json:"order_line_id" gorm:"index"`
	BinID          types.SnowflakeID   `json:"bin_id"`
	Quantity       decimal.Decimal     `json:"quantity" gorm:"type:decimal(20,4)"`
	Status         types.PutAwayStatus `json:"status" gorm:"size:16"`
	CompletedLogID types.SnowflakeID   `json:"completed_log_id"`
	Remarks        string              `json:"remarks"`
	Audit
}

func (PutAway) TableName() string { return "putaways" }

func (p *PutAway) BeforeCreate(tx *gorm.DB) error {
	assignID(&p.ID)
	return nil
}
