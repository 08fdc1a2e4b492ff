package models

import (
	"fulfillment-wms/controllers/idgen"
	"fulfillment-wms/types"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BinProductLog is the append-only audit trail of every stock movement.
type BinProductLog struct {
	ID                  types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	Action              types.ActionType  `json:"action" gorm:"size:32;index"`
	BinProductID        types.SnowflakeID `json:"bin_product_id" gorm:"index"`
	BinID               types.SnowflakeID `json:"bin_id" gorm:"index"`
	OrderFamily         types.OrderFamily `json:"order_family" gorm:"size:32"`
	OrderID             types.SnowflakeID `json:"order_id" gorm:"index"`
	OrderLineID         types.SnowflakeID `json:"order_line_id" gorm:"index"`
	ItemKind            types.ItemKind    `json:"item_kind" gorm:"size:16"`
	ItemID              types.SnowflakeID `json:"item_id"`
	BatchNumber         string            `json:"batch_number" gorm:"size:64"`
	Quantity            decimal.Decimal   `json:"quantity" gorm:"type:decimal(20,4)"`
	FilledBefore        decimal.Decimal   `json:"filled_before" gorm:"type:decimal(20,4)"`
	FilledAfter         decimal.Decimal   `json:"filled_after" gorm:"type:decimal(20,4)"`
	AvailableBefore     decimal.Decimal   `json:"available_before" gorm:"type:decimal(20,4)"`
	AvailableAfter      decimal.Decimal   `json:"available_after" gorm:"type:decimal(20,4)"`
	LinePendingBefore   decimal.Decimal   `json:"line_pending_before" gorm:"type:decimal(20,4)"`
	LinePendingAfter    decimal.Decimal   `json:"line_pending_after" gorm:"type:decimal(20,4)"`
	LineProcessedBefore decimal.Decimal   `json:"line_processed_before" gorm:"type:decimal(20,4)"`
	LineProcessedAfter  decimal.Decimal   `json:"line_processed_after" gorm:"type:decimal(20,4)"`
	BatchChangeReason   string            `json:"batch_change_reason"`
	CreatedAt           time.Time         `json:"created_at"`
	CreatedBy           int64             `json:"created_by"`
}

func (l *BinProductLog) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == 0 {
		l.ID = types.SnowflakeID(idgen.GenerateID())
	}
	return
}

func (l *BinProductLog) Item() types.ItemRef {
	return types.ItemRef{Kind: l.ItemKind, ID: l.ItemID}
}
