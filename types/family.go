package types

import "strings"

// OrderFamily distinguishes the four order documents handled by the warehouse.
type OrderFamily string

const (
	FamilyPurchaseOrder       OrderFamily = "purchase_order"
	FamilySalesOrder          OrderFamily = "sales_order"
	FamilyPurchaseOrderReturn OrderFamily = "purchase_order_return"
	FamilySalesOrderReturn    OrderFamily = "sales_order_return"
)

// Direction of a stock movement relative to the bin.
type Direction string

const (
	DirectionPick Direction = "pick"
	DirectionPut  Direction = "put"
)

// ActionType tags every BinProductLog row.
type ActionType string

const (
	ActionPutAwayProduct ActionType = "Put-away-Product"
	ActionPutAwayReturn  ActionType = "Put-away-Return"
	ActionPickSales      ActionType = "Pick-Sales"
	ActionPickPurchase   ActionType = "Pick-Purchase"
	ActionPickReturn     ActionType = "Pick-Return"
)

type familyInfo struct {
	prefix       string
	label        string
	path         string
	direction    Direction
	action       ActionType
	counterparty string
}

var families = map[OrderFamily]familyInfo{
	FamilyPurchaseOrder: {
		prefix: "PO", label: "Purchase Order", path: "purchase-orders",
		direction: DirectionPick, action: ActionPickPurchase, counterparty: "vendor",
	},
	FamilySalesOrder: {
		prefix: "SO", label: "Sales Order", path: "sales-orders",
		direction: DirectionPick, action: ActionPickSales, counterparty: "customer",
	},
	FamilyPurchaseOrderReturn: {
		prefix: "POR", label: "Purchase Order Return", path: "purchase-order-returns",
		direction: DirectionPick, action: ActionPickReturn, counterparty: "vendor",
	},
	FamilySalesOrderReturn: {
		prefix: "SOR", label: "Sales Order Return", path: "sales-order-returns",
		direction: DirectionPut, action: ActionPutAwayReturn, counterparty: "customer",
	},
}

// Families lists every family in a stable order.
func Families() []OrderFamily {
	return []OrderFamily{FamilyPurchaseOrder, FamilySalesOrder, FamilyPurchaseOrderReturn, FamilySalesOrderReturn}
}

func (f OrderFamily) Valid() bool {
	_, ok := families[f]
	return ok
}

func (f OrderFamily) Prefix() string           { return families[f].prefix }
func (f OrderFamily) Label() string            { return families[f].label }
func (f OrderFamily) Path() string             { return families[f].path }
func (f OrderFamily) Direction() Direction     { return families[f].direction }
func (f OrderFamily) Action() ActionType       { return families[f].action }
func (f OrderFamily) CounterpartyKind() string { return families[f].counterparty }

// ParseFamily accepts the family code or its route path.
func ParseFamily(raw string) (OrderFamily, error) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for f, info := range families {
		if string(f) == raw || info.path == raw {
			return f, nil
		}
	}
	return "", &ValidationError{Field: "family", Reason: "unknown order family " + raw}
}
