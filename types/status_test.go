package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition_PickFamily(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		ok       bool
	}{
		{OrderNew, OrderOpen, true},
		{OrderNew, OrderPicklistStarted, false},
		{OrderOpen, OrderPicklistStarted, true},
		{OrderOpen, OrderCompleted, false},
		{OrderPicklistStarted, OrderPicklistCompleted, true},
		{OrderPicklistStarted, OrderCancelled, false},
		{OrderPicklistCompleted, OrderCompleted, true},
		{OrderCompleted, OrderOpen, false},
		{OrderCancelled, OrderCancelled, true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, CanTransition(FamilySalesOrder, tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestCanTransition_PutFamily(t *testing.T) {
	assert.True(t, CanTransition(FamilySalesOrderReturn, OrderOpen, OrderCompleted))
	assert.False(t, CanTransition(FamilySalesOrderReturn, OrderOpen, OrderPicklistStarted))
	assert.False(t, CanTransition(FamilySalesOrderReturn, OrderCompleted, OrderOpen))
	assert.ElementsMatch(t,
		[]OrderStatus{OrderOpen, OrderCancelled, OrderDeleted},
		AllowedTransitions(FamilySalesOrderReturn, OrderNew))
}

func TestParseOrderStatus_DraftAlias(t *testing.T) {
	s, err := ParseOrderStatus("draft")
	require.NoError(t, err)
	assert.Equal(t, OrderNew, s)
	assert.Equal(t, "Draft", s.Display())

	s, err = ParseOrderStatus("picklist completed")
	require.NoError(t, err)
	assert.Equal(t, OrderPicklistCompleted, s)

	_, err = ParseOrderStatus("shipped")
	var ve *ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestSatelliteTransitions(t *testing.T) {
	assert.True(t, CanTransitionReceiving(ReceivingOpen, ReceivingReceived))
	assert.False(t, CanTransitionReceiving(ReceivingDraft, ReceivingReceived))
	assert.False(t, CanTransitionReceiving(ReceivingCancelled, ReceivingOpen))

	assert.True(t, CanTransitionPutAway(PutAwayPending, PutAwayCancelled))
	assert.False(t, CanTransitionPutAway(PutAwayCompleted, PutAwayPending))

	assert.True(t, CanTransitionShipment(ShipmentDraft, ShipmentDispatched))
	assert.True(t, CanTransitionShipment(ShipmentDispatched, ShipmentDelivered))
	assert.False(t, CanTransitionShipment(ShipmentDelivered, ShipmentCancelled))
}

func TestFamilies(t *testing.T) {
	assert.Len(t, Families(), 4)
	assert.Equal(t, DirectionPut, FamilySalesOrderReturn.Direction())
	assert.Equal(t, DirectionPick, FamilyPurchaseOrderReturn.Direction())
	assert.Equal(t, ActionPickSales, FamilySalesOrder.Action())
	assert.Equal(t, "POR", FamilyPurchaseOrderReturn.Prefix())

	f, err := ParseFamily("sales-order-returns")
	require.NoError(t, err)
	assert.Equal(t, FamilySalesOrderReturn, f)

	_, err = ParseFamily("transfer")
	assert.Error(t, err)
}
