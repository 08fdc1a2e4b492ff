package models

import (
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the header of a purchase order, sales order or one of their
// returns. Family tells them apart.
type Order struct {
	ID             types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderNo        string            `json:"order_no" gorm:"size:32;uniqueIndex"`
	Family         types.OrderFamily `json:"family" gorm:"size:32;index"`
	CounterpartyID types.SnowflakeID `json:"counterparty_id"`
	WarehouseID    types.SnowflakeID `json:"warehouse_id"`
	Branch         string            `json:"branch" gorm:"size:64"`
	OrderDate      string            `json:"order_date" gorm:"size:10"`
	ReferenceNo    string            `json:"reference_no" gorm:"size:64"`
	Remarks        string            `json:"remarks"`
	Status         types.OrderStatus `json:"status" gorm:"size:32;index"`
	IsDeleted      bool              `json:"is_deleted" gorm:"index"`
	Audit
	Lines []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	assignID(&o.ID)
	return nil
}

// OrderLine is one item of an order and its movement counters.
// pending = quantity - processed, where processed is PickedQuantity for pick
// families and ReceivedQuantity for put families.
type OrderLine struct {
	ID               types.SnowflakeID `json:"id" gorm:"primaryKey;autoIncrement:false"`
	OrderID          types.SnowflakeID `json:"order_id" gorm:"index"`
	Family           types.OrderFamily `json:"family" gorm:"size:32"`
	ItemKind         types.ItemKind    `json:"item_kind" gorm:"size:16;index:idx_order_lines_item"`
	ItemID           types.SnowflakeID `json:"item_id" gorm:"index:idx_order_lines_item"`
	WarehouseID      types.SnowflakeID `json:"warehouse_id"`
	Uom              string            `json:"uom" gorm:"size:16"`
	StockLocation    string            `json:"stock_location" gorm:"size:64"`
	BatchNumber      string            `json:"batch_number" gorm:"size:64"`
	Quantity         decimal.Decimal   `json:"quantity" gorm:"type:decimal(20,4)"`
	PendingQuantity  decimal.Decimal   `json:"pending_quantity" gorm:"type:decimal(20,4)"`
	PickedQuantity   decimal.Decimal   `json:"picked_quantity" gorm:"type:decimal(20,4)"`
	ReceivedQuantity decimal.Decimal   `json:"received_quantity" gorm:"type:decimal(20,4)"`
	Mrp              decimal.Decimal   `json:"mrp" gorm:"type:decimal(20,4)"`
	Discount         decimal.Decimal   `json:"discount" gorm:"type:decimal(20,4)"`
	MrpTotal         decimal.Decimal   `json:"mrp_total" gorm:"type:decimal(20,4)"`
	DiscountTotal    decimal.Decimal   `json:"discount_total" gorm:"type:decimal(20,4)"`
	NetAmount        decimal.Decimal   `json:"net_amount" gorm:"type:decimal(20,4)"`
	IsDeleted        bool              `json:"is_deleted" gorm:"index"`
	Version          int64             `json:"version"`
	Audit
}

func (l *OrderLine) BeforeCreate(tx *gorm.DB) error {
	assignID(&l.ID)
	if l.Version == 0 {
		l.Version = 1
	}
	return nil
}

func (l *OrderLine) Item() types.ItemRef {
	return types.ItemRef{Kind: l.ItemKind, ID: l.ItemID}
}

func (l *OrderLine) SetItem(ref types.ItemRef) {
	l.ItemKind = ref.Kind
	l.ItemID = ref.ID
}

// Processed returns the counter that moves for the line's family.
func (l *OrderLine) Processed() decimal.Decimal {
	if l.Family.Direction() == types.DirectionPut {
		return l.ReceivedQuantity
	}
	return l.PickedQuantity
}

func (l *OrderLine) SetProcessed(v decimal.Decimal) {
	if l.Family.Direction() == types.DirectionPut {
		l.ReceivedQuantity = v
		return
	}
	l.PickedQuantity = v
}

// ProcessedColumn names the counter column for the line's family.
func (l *OrderLine) ProcessedColumn() string {
	if l.Family.Direction() == types.DirectionPut {
		return "received_quantity"
	}
	return "picked_quantity"
}

// Reprice recomputes the money columns from unit prices and quantity.
func (l *OrderLine) Reprice() {
	l.MrpTotal = l.Mrp.Mul(l.Quantity)
	l.DiscountTotal = l.Discount.Mul(l.Quantity)
	l.NetAmount = l.MrpTotal.Sub(l.DiscountTotal)
}
