package services

import (
	"fulfillment-wms/models"
	"fulfillment-wms/testutil"
	"fulfillment-wms/types"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func occupancyKey(env *testutil.TestEnv, bin, product, batch string) OccupancyKey {
	return OccupancyKey{
		BinID:           env.Catalog.Bins[bin],
		BinCode:         bin,
		WarehouseID:     env.Catalog.Warehouses["WH1"],
		Item:            types.ProductRef(env.Catalog.Products[product]),
		ItemName:        product,
		BatchNumber:     batch,
		Uom:             "PCS",
		StockLocation:   "GOOD",
		ManufactureDate: "2026-01-10",
		Mrp:             qty(10),
	}
}

func TestUpsertOccupancy_Lifecycle(t *testing.T) {
	env := testutil.Setup(t)
	inv := BinInventory{}
	key := occupancyKey(env, "A-01", "P-100", "B1")

	change, err := inv.UpsertOccupancy(env.DB, key, qty(30), qty(60), testActor)
	require.NoError(t, err)
	assert.True(t, change.Created)
	assert.True(t, change.FilledAfter.Equal(qty(30)))
	assert.True(t, change.AvailableAfter.Equal(qty(30)))

	change, err = inv.UpsertOccupancy(env.DB, key, qty(20), qty(999), testActor)
	require.NoError(t, err)
	assert.False(t, change.Created)
	assert.True(t, change.FilledBefore.Equal(qty(30)))
	assert.True(t, change.FilledAfter.Equal(qty(50)))
	assert.True(t, change.Row.MaxQuantity.Equal(qty(60)), "max is fixed when the lot is created")
	assert.True(t, change.Row.FilledQuantity.Add(change.Row.AvailableQuantity).Equal(change.Row.MaxQuantity))

	change, err = inv.UpsertOccupancy(env.DB, key, qty(-50), qty(0), testActor)
	require.NoError(t, err)
	assert.True(t, change.FilledAfter.IsZero())
	assert.False(t, change.Row.IsActive)

	row, err := inv.FindOccupancy(env.DB, key.BinID, false)
	require.NoError(t, err)
	assert.Nil(t, row)

	// an emptied bin takes a different lot
	other := occupancyKey(env, "A-01", "P-200", "B7")
	change, err = inv.UpsertOccupancy(env.DB, other, qty(5), qty(100), testActor)
	require.NoError(t, err)
	assert.True(t, change.Created)
}

func TestUpsertOccupancy_Conflicts(t *testing.T) {
	env := testutil.Setup(t)
	inv := BinInventory{}
	key := occupancyKey(env, "A-02", "P-100", "B1")
	_, err := inv.UpsertOccupancy(env.DB, key, qty(30), qty(60), testActor)
	require.NoError(t, err)

	cases := []struct {
		field  string
		mutate func(k *OccupancyKey)
	}{
		{"item", func(k *OccupancyKey) { k.Item = types.ProductRef(env.Catalog.Products["P-200"]) }},
		{"batch_number", func(k *OccupancyKey) { k.BatchNumber = "B2" }},
		{"manufacture_date", func(k *OccupancyKey) { k.ManufactureDate = "2026-02-01" }},
		{"uom", func(k *OccupancyKey) { k.Uom = "BOX" }},
		{"stock_location", func(k *OccupancyKey) { k.StockLocation = "DAMAGED" }},
		{"mrp", func(k *OccupancyKey) { k.Mrp = qty(11) }},
	}
	for _, tc := range cases {
		t.Run(tc.field, func(t *testing.T) {
			k := key
			tc.mutate(&k)
			_, err := inv.UpsertOccupancy(env.DB, k, qty(1), qty(60), testActor)
			bc := requireErrorType[*types.BinConflictError](t, err)
			assert.Equal(t, tc.field, bc.Field)
			assert.Equal(t, "A-02", bc.Bin)
		})
	}

	_, err = inv.UpsertOccupancy(env.DB, key, qty(31), qty(60), testActor)
	ce := requireErrorType[*types.CapacityExceededError](t, err)
	assert.True(t, ce.Remaining.Equal(qty(30)))

	_, err = inv.UpsertOccupancy(env.DB, key, qty(-31), qty(0), testActor)
	iq := requireErrorType[*types.InsufficientQuantityError](t, err)
	assert.True(t, iq.Available.Equal(qty(30)))

	_, err = inv.UpsertOccupancy(env.DB, key, qty(0), qty(60), testActor)
	requireErrorType[*types.ValidationError](t, err)

	// nothing above changed the lot
	row, err := inv.FindOccupancy(env.DB, key.BinID, false)
	require.NoError(t, err)
	assert.True(t, row.FilledQuantity.Equal(qty(30)))
}

func TestUpsertOccupancy_NewLotOverCapacity(t *testing.T) {
	env := testutil.Setup(t)
	_, err := BinInventory{}.UpsertOccupancy(env.DB, occupancyKey(env, "A-03", "P-100", "B1"), qty(61), qty(60), testActor)
	requireErrorType[*types.CapacityExceededError](t, err)

	_, err = BinInventory{}.UpsertOccupancy(env.DB, occupancyKey(env, "A-03", "P-100", "B1"), qty(-1), qty(60), testActor)
	requireErrorType[*types.InsufficientQuantityError](t, err)
}

func TestUpsertOccupancy_ExactLimits(t *testing.T) {
	env := testutil.Setup(t)
	inv := BinInventory{}
	d := decimal.RequireFromString

	_, err := inv.UpsertOccupancy(env.DB, occupancyKey(env, "A-04", "P-100", "B1"), d("60.004"), qty(60), testActor)
	requireErrorType[*types.CapacityExceededError](t, err)

	key := occupancyKey(env, "A-04", "P-100", "B1")
	change, err := inv.UpsertOccupancy(env.DB, key, d("59.99"), qty(60), testActor)
	require.NoError(t, err)
	assert.True(t, change.AvailableAfter.Equal(d("0.01")))

	_, err = inv.UpsertOccupancy(env.DB, key, d("0.011"), qty(60), testActor)
	requireErrorType[*types.CapacityExceededError](t, err)

	_, err = inv.UpsertOccupancy(env.DB, key, d("-59.991"), qty(0), testActor)
	requireErrorType[*types.InsufficientQuantityError](t, err)

	change, err = inv.UpsertOccupancy(env.DB, key, d("0.01"), qty(60), testActor)
	require.NoError(t, err)
	assert.True(t, change.Row.FilledQuantity.Equal(qty(60)))
	assert.True(t, change.Row.AvailableQuantity.IsZero())

	// outside a transaction every call keeps its claim, rejected or not
	var bin models.Bin
	require.NoError(t, env.DB.Take(&bin, "id = ?", key.BinID).Error)
	assert.Equal(t, int64(5), bin.OccupancyVersion)
}
