package types

import "strings"

type OrderStatus string

const (
	OrderNew               OrderStatus = "New"
	OrderOpen              OrderStatus = "Open"
	OrderPicklistStarted   OrderStatus = "Picklist Started"
	OrderPicklistCompleted OrderStatus = "Picklist Completed"
	OrderCompleted         OrderStatus = "Completed"
	OrderCancelled         OrderStatus = "Cancelled"
	OrderDeleted           OrderStatus = "Deleted"
)

// Display is the value shown to users; a stored New order reads as Draft.
func (s OrderStatus) Display() string {
	if s == OrderNew {
		return "Draft"
	}
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == OrderCompleted || s == OrderCancelled || s == OrderDeleted
}

func ParseOrderStatus(raw string) (OrderStatus, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, "draft") {
		return OrderNew, nil
	}
	for _, s := range []OrderStatus{OrderNew, OrderOpen, OrderPicklistStarted, OrderPicklistCompleted, OrderCompleted, OrderCancelled, OrderDeleted} {
		if strings.EqualFold(raw, string(s)) {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: "unknown order status " + raw}
}

var pickOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderNew:               {OrderOpen, OrderCancelled, OrderDeleted},
	OrderOpen:              {OrderPicklistStarted, OrderPicklistCompleted, OrderCancelled, OrderDeleted},
	OrderPicklistStarted:   {OrderPicklistCompleted},
	OrderPicklistCompleted: {OrderPicklistStarted, OrderCompleted},
}

var putOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderNew:  {OrderOpen, OrderCancelled, OrderDeleted},
	OrderOpen: {OrderCompleted, OrderCancelled, OrderDeleted},
}

// CanTransition validates an order status write for the given family.
// Writing the current status again is always allowed.
func CanTransition(family OrderFamily, from, to OrderStatus) bool {
	if from == to {
		return true
	}
	table := pickOrderTransitions
	if family.Direction() == DirectionPut {
		table = putOrderTransitions
	}
	return contains(table[from], to)
}

// AllowedTransitions lists the statuses reachable from the given one.
func AllowedTransitions(family OrderFamily, from OrderStatus) []OrderStatus {
	if family.Direction() == DirectionPut {
		return putOrderTransitions[from]
	}
	return pickOrderTransitions[from]
}

type ReceivingStatus string

const (
	ReceivingDraft            ReceivingStatus = "Draft"
	ReceivingOpen             ReceivingStatus = "Open"
	ReceivingReceived         ReceivingStatus = "Received"
	ReceivingPutAwayStarted   ReceivingStatus = "PutAway Started"
	ReceivingPutAwayCompleted ReceivingStatus = "PutAway Completed"
	ReceivingCancelled        ReceivingStatus = "Cancelled"
)

// Presented for a Received receiving, derived from the quarantine end date.
const (
	DisplayInQuarantine        = "In Quarantine"
	DisplayQuarantineCompleted = "Quarantine Completed"
)

var receivingTransitions = map[ReceivingStatus][]ReceivingStatus{
	ReceivingDraft:            {ReceivingOpen, ReceivingCancelled},
	ReceivingOpen:             {ReceivingReceived, ReceivingCancelled},
	ReceivingReceived:         {ReceivingPutAwayStarted, ReceivingPutAwayCompleted},
	ReceivingPutAwayStarted:   {ReceivingPutAwayCompleted},
	ReceivingPutAwayCompleted: {ReceivingPutAwayStarted},
}

func CanTransitionReceiving(from, to ReceivingStatus) bool {
	return from == to || contains(receivingTransitions[from], to)
}

func ParseReceivingStatus(raw string) (ReceivingStatus, error) {
	for _, s := range []ReceivingStatus{ReceivingDraft, ReceivingOpen, ReceivingReceived, ReceivingPutAwayStarted, ReceivingPutAwayCompleted, ReceivingCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: "unknown receiving status " + raw}
}

type PutAwayStatus string

const (
	PutAwayPending   PutAwayStatus = "Pending"
	PutAwayCompleted PutAwayStatus = "Completed"
	PutAwayCancelled PutAwayStatus = "Cancelled"
)

func CanTransitionPutAway(from, to PutAwayStatus) bool {
	return from == to || (from == PutAwayPending && (to == PutAwayCompleted || to == PutAwayCancelled))
}

func ParsePutAwayStatus(raw string) (PutAwayStatus, error) {
	for _, s := range []PutAwayStatus{PutAwayPending, PutAwayCompleted, PutAwayCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: "unknown put-away status " + raw}
}

type ShipmentStatus string

const (
	ShipmentDraft      ShipmentStatus = "Draft"
	ShipmentDispatched ShipmentStatus = "Dispatched"
	ShipmentDelivered  ShipmentStatus = "Delivered"
	ShipmentCancelled  ShipmentStatus = "Cancelled"
)

var shipmentTransitions = map[ShipmentStatus][]ShipmentStatus{
	ShipmentDraft:      {ShipmentDispatched, ShipmentCancelled},
	ShipmentDispatched: {ShipmentDelivered},
}

func CanTransitionShipment(from, to ShipmentStatus) bool {
	return from == to || contains(shipmentTransitions[from], to)
}

func ParseShipmentStatus(raw string) (ShipmentStatus, error) {
	for _, s := range []ShipmentStatus{ShipmentDraft, ShipmentDispatched, ShipmentDelivered, ShipmentCancelled} {
		if strings.EqualFold(strings.TrimSpace(raw), string(s)) {
			return s, nil
		}
	}
	return "", &ValidationError{Field: "status", Reason: "unknown shipment status " + raw}
}

func contains[T comparable](list []T, v T) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// StatusNames renders a status list for error messages.
func StatusNames[T ~string](list []T) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		out = append(out, string(s))
	}
	return out
}
