package repositories

import (
	"errors"
	"fulfillment-wms/models"
	"fulfillment-wms/testutil"
	"fulfillment-wms/types"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireStale(t *testing.T, err error, entity string, id types.SnowflakeID) {
	t.Helper()
	var is *types.InvalidStateError
	require.True(t, errors.As(err, &is), "expected InvalidStateError, got %v", err)
	assert.Equal(t, entity, is.Entity)
	assert.Equal(t, id.String(), is.Ref)
	assert.Equal(t, StaleStatus, is.Status)
	assert.Equal(t, types.ClassClientValidation, types.Classify(err))
	assert.Same(t, err, types.WrapUnexpected("execute movement", err))
}

func TestBinProductUpdateCounters_StaleVersion(t *testing.T) {
	env := testutil.Setup(t)
	repo := NewBinProductRepository(env.DB)
	placed := env.PlaceStock(testutil.Stock{Bin: "A-04", Product: "P-100", Filled: decimal.NewFromInt(30)})

	stale, err := repo.FindActiveByBin(placed.BinID, false)
	require.NoError(t, err)
	require.NotNil(t, stale)

	// another writer commits first
	require.NoError(t, env.DB.Model(&models.BinProduct{}).
		Where("id = ?", placed.ID).
		Update("version", stale.Version+1).Error)

	stale.FilledQuantity = decimal.NewFromInt(20)
	stale.AvailableQuantity = stale.MaxQuantity.Sub(stale.FilledQuantity)
	err = repo.UpdateCounters(stale, 7)
	requireStale(t, err, "bin product", placed.ID)

	fresh, err := repo.FindActiveByBin(placed.BinID, false)
	require.NoError(t, err)
	assert.True(t, fresh.FilledQuantity.Equal(decimal.NewFromInt(30)))

	fresh.FilledQuantity = decimal.NewFromInt(20)
	fresh.AvailableQuantity = fresh.MaxQuantity.Sub(fresh.FilledQuantity)
	require.NoError(t, repo.UpdateCounters(fresh, 7))
	assert.Equal(t, stale.Version+2, fresh.Version)
}

func TestOrderLineWrites_StaleVersion(t *testing.T) {
	env := testutil.Setup(t)
	repo := NewOrderLineRepository(env.DB)
	line := &models.OrderLine{
		OrderID:         1,
		Family:          types.FamilySalesOrder,
		BatchNumber:     "B1",
		Quantity:        decimal.NewFromInt(10),
		PendingQuantity: decimal.NewFromInt(10),
	}
	line.SetItem(types.ProductRef(env.Catalog.Products["P-200"]))
	require.NoError(t, repo.Create(line))

	require.NoError(t, env.DB.Model(&models.OrderLine{}).
		Where("id = ?", line.ID).
		Update("version", line.Version+1).Error)

	line.PendingQuantity = decimal.NewFromInt(4)
	line.PickedQuantity = decimal.NewFromInt(6)
	requireStale(t, repo.UpdateCounters(line, 7), "order line", line.ID)
	requireStale(t, repo.Save(line, 7), "order line", line.ID)
	requireStale(t, repo.SoftDelete(line, 7), "order line", line.ID)

	stored, err := repo.FindByID(1, line.ID)
	require.NoError(t, err)
	assert.True(t, stored.PendingQuantity.Equal(decimal.NewFromInt(10)))
	assert.False(t, stored.IsDeleted)
}

func TestClaimBin(t *testing.T) {
	env := testutil.Setup(t)
	repo := NewBinProductRepository(env.DB)
	binID := env.Catalog.Bins["A-05"]

	require.NoError(t, repo.ClaimBin(binID))
	require.NoError(t, repo.ClaimBin(binID))

	var bin models.Bin
	require.NoError(t, env.DB.Take(&bin, "id = ?", binID).Error)
	assert.Equal(t, int64(2), bin.OccupancyVersion)

	err := repo.ClaimBin(types.SnowflakeID(42))
	var nf *types.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "bin", nf.Entity)
}
