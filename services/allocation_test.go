package services

import (
	"fulfillment-wms/models"
	"fulfillment-wms/testutil"
	"fulfillment-wms/types"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidate(code string, filled, max int64) BinCandidate {
	return BinCandidate{
		BinCode:           code,
		MaxQuantity:       qty(max),
		FilledQuantity:    qty(filled),
		AvailableQuantity: qty(max - filled),
	}
}

func codes(list []BinCandidate) []string {
	out := make([]string, 0, len(list))
	for _, c := range list {
		out = append(out, c.BinCode)
	}
	return out
}

func TestRankPickCandidates_ClosestFill(t *testing.T) {
	bins := []BinCandidate{candidate("A", 10, 100), candidate("B", 25, 100), candidate("C", 40, 100)}

	ranked := RankPickCandidates(bins, qty(20))
	assert.Equal(t, "B", ranked[0].BinCode)

	ranked = RankPickCandidates(bins, qty(40))
	assert.Equal(t, "C", ranked[0].BinCode)
}

func TestRankPickCandidates_FullestWhenNoneCovers(t *testing.T) {
	bins := []BinCandidate{candidate("A", 10, 100), candidate("B", 25, 100), candidate("C", 40, 100)}

	ranked := RankPickCandidates(bins, qty(50))
	assert.Equal(t, []string{"C", "B", "A"}, codes(ranked))
}

func TestRankPickCandidates_TieGoesToSmallerThenCode(t *testing.T) {
	bins := []BinCandidate{candidate("Z", 30, 100), candidate("Y", 10, 100), candidate("X", 30, 100)}

	// 30 and 10 are both 10 away from 20
	ranked := RankPickCandidates(bins, qty(20))
	assert.Equal(t, []string{"Y", "X", "Z"}, codes(ranked))
	assert.Empty(t, RankPickCandidates(nil, qty(5)))
}

func TestRankPutCandidates(t *testing.T) {
	partial := []BinCandidate{candidate("P2", 10, 100), candidate("P1", 60, 100)}
	fresh := []BinCandidate{
		{BinCode: "N2", IsNew: true, MaxQuantity: qty(200), AvailableQuantity: qty(200)},
		{BinCode: "N1", IsNew: true, MaxQuantity: qty(60), AvailableQuantity: qty(60)},
	}

	ranked := RankPutCandidates(partial, fresh, qty(30))
	assert.Equal(t, []string{"P1", "P2", "N1", "N2"}, codes(ranked))
}

func TestFindBestPallet(t *testing.T) {
	caps := []models.PalletCapacity{
		{PalletTypeID: 3, Capacity: qty(200)},
		{PalletTypeID: 1, Capacity: qty(60)},
		{PalletTypeID: 2, Capacity: qty(100)},
	}

	best, ok := FindBestPallet(caps, qty(80))
	require.True(t, ok)
	assert.Equal(t, types.SnowflakeID(2), best.PalletTypeID)

	best, ok = FindBestPallet(caps, qty(60))
	require.True(t, ok)
	assert.Equal(t, types.SnowflakeID(1), best.PalletTypeID)

	best, ok = FindBestPallet(caps, qty(500))
	require.True(t, ok)
	assert.Equal(t, types.SnowflakeID(3), best.PalletTypeID)

	_, ok = FindBestPallet(nil, qty(1))
	assert.False(t, ok)
}

func TestCheckBatchChange(t *testing.T) {
	assert.NoError(t, CheckBatchChange("B1", "B1", ""))
	assert.NoError(t, CheckBatchChange("B1", "", ""))
	assert.NoError(t, CheckBatchChange("B1", "B2", "older batch first"))

	ve := requireErrorType[*types.ValidationError](t, CheckBatchChange("B1", "B2", "  "))
	assert.Equal(t, "batch_change_reason", ve.Field)
}

func TestCheckManufactureDate(t *testing.T) {
	a := NewAllocator(FixedClock{At: time.Date(2026, 3, 15, 23, 59, 0, 0, time.UTC)})

	date, err := a.CheckManufactureDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-15", date)

	_, err = a.CheckManufactureDate("2026-03-16")
	ve := requireErrorType[*types.ValidationError](t, err)
	assert.Equal(t, "manufacture_date", ve.Field)

	_, err = a.CheckManufactureDate("15/03/2026")
	requireErrorType[*types.ValidationError](t, err)

	_, err = a.CheckManufactureDate("")
	requireErrorType[*types.ValidationError](t, err)
}

func putRequest(env *testutil.TestEnv, product string, quantity int64) AllocationRequest {
	return AllocationRequest{
		Direction:       types.DirectionPut,
		WarehouseID:     env.Catalog.Warehouses["WH1"],
		Item:            types.ProductRef(env.Catalog.Products[product]),
		ItemName:        product,
		BatchNumber:     "B1",
		Uom:             "PCS",
		StockLocation:   "GOOD",
		ManufactureDate: "2026-01-10",
		Quantity:        qty(quantity),
	}
}

func TestListAvailableBins_PutUsesPalletCapacity(t *testing.T) {
	env := testutil.Setup(t)
	a := NewAllocator(FixedClock{At: testutil.Today})
	catalog := DefaultCatalog(env.DB)

	// 50 fits a small pallet everywhere: bins without a pallet type and S-01
	candidates, err := a.ListAvailableBins(env.DB, catalog, putRequest(env, "P-100", 50))
	require.NoError(t, err)
	assert.Equal(t, []string{"A-01", "A-02", "A-03", "A-04", "A-05", "A-06", "S-01"}, codes(candidates))
	for _, c := range candidates {
		assert.True(t, c.IsNew)
		assert.True(t, c.MaxQuantity.Equal(qty(60)), c.BinCode)
	}

	// 100 needs a large pallet which S-01 cannot take
	candidates, err = a.ListAvailableBins(env.DB, catalog, putRequest(env, "P-100", 100))
	require.NoError(t, err)
	assert.NotContains(t, codes(candidates), "S-01")
	assert.True(t, candidates[0].MaxQuantity.Equal(qty(200)))
}

func TestListAvailableBins_PartialBinFirst(t *testing.T) {
	env := testutil.Setup(t)
	env.PlaceStock(testutil.Stock{Bin: "A-04", Product: "P-100", Filled: qty(150), Max: qty(200)})
	env.PlaceStock(testutil.Stock{Bin: "A-05", Product: "P-100", Batch: "B9", Filled: qty(10), Max: qty(200)})
	a := NewAllocator(FixedClock{At: testutil.Today})

	candidates, err := a.ListAvailableBins(env.DB, DefaultCatalog(env.DB), putRequest(env, "P-100", 30))
	require.NoError(t, err)
	require.NotEmpty(t, candidates)
	assert.Equal(t, "A-04", candidates[0].BinCode)
	assert.False(t, candidates[0].IsNew)
	assert.NotContains(t, codes(candidates), "A-05")
}

func TestSuggestBin_Empty(t *testing.T) {
	env := testutil.Setup(t)
	a := NewAllocator(FixedClock{At: testutil.Today})
	catalog := DefaultCatalog(env.DB)

	pick := putRequest(env, "P-100", 10)
	pick.Direction = types.DirectionPick
	_, err := a.SuggestBin(env.DB, catalog, pick)
	requireErrorType[*types.InsufficientQuantityError](t, err)

	// no pallet capacity is configured for P-OFF
	_, err = a.SuggestBin(env.DB, catalog, putRequest(env, "P-OFF", 10))
	nf := requireErrorType[*types.NotFoundError](t, err)
	assert.Equal(t, "bin", nf.Entity)
}

func TestValidateBin(t *testing.T) {
	env := testutil.Setup(t)
	env.PlaceStock(testutil.Stock{Bin: "A-01", Product: "P-100", Filled: qty(40), Max: qty(60)})
	a := NewAllocator(FixedClock{At: testutil.Today})
	catalog := DefaultCatalog(env.DB)
	bin := func(code string) *models.Bin {
		b, err := catalog.FindBinByCode(code)
		require.NoError(t, err)
		return b
	}

	_, err := a.ValidateBin(env.DB, catalog, bin("X-01"), putRequest(env, "P-100", 10))
	requireErrorType[*types.ValidationError](t, err)

	_, err = a.ValidateBin(env.DB, catalog, bin("Z-01"), putRequest(env, "P-100", 10))
	requireErrorType[*types.ValidationError](t, err)

	_, err = a.ValidateBin(env.DB, catalog, bin("A-01"), putRequest(env, "P-100", 30))
	requireErrorType[*types.CapacityExceededError](t, err)

	other := putRequest(env, "P-200", 5)
	_, err = a.ValidateBin(env.DB, catalog, bin("A-01"), other)
	bc := requireErrorType[*types.BinConflictError](t, err)
	assert.Equal(t, "item", bc.Field)

	c, err := a.ValidateBin(env.DB, catalog, bin("A-01"), putRequest(env, "P-100", 20))
	require.NoError(t, err)
	assert.False(t, c.IsNew)
	assert.True(t, c.AvailableQuantity.Equal(qty(20)))

	pick := putRequest(env, "P-100", 41)
	pick.Direction = types.DirectionPick
	_, err = a.ValidateBin(env.DB, catalog, bin("A-01"), pick)
	requireErrorType[*types.InsufficientQuantityError](t, err)

	pick.Quantity = qty(40)
	c, err = a.ValidateBin(env.DB, catalog, bin("A-01"), pick)
	require.NoError(t, err)
	assert.True(t, c.FilledQuantity.Equal(qty(40)))
}
