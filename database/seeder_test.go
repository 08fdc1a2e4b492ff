package database_test

import (
	"fulfillment-wms/database"
	"fulfillment-wms/models"
	"fulfillment-wms/testutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedCatalog_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)

	first, err := database.SeedCatalog(db, database.DemoCatalog())
	require.NoError(t, err)
	second, err := database.SeedCatalog(db, database.DemoCatalog())
	require.NoError(t, err)
	assert.Equal(t, first.Bins, second.Bins)
	assert.Equal(t, first.Products, second.Products)

	var bins, capacities int64
	require.NoError(t, db.Model(&models.Bin{}).Count(&bins).Error)
	require.NoError(t, db.Model(&models.PalletCapacity{}).Count(&capacities).Error)
	assert.Equal(t, int64(6), bins)
	assert.Equal(t, int64(4), capacities)

	var bin models.Bin
	require.NoError(t, db.Where("code = ?", "B-01-02").Take(&bin).Error)
	assert.Equal(t, first.PalletTypes["HALF"], bin.PalletTypeID)
	assert.Equal(t, first.Warehouses["WH-MAIN"], bin.WarehouseID)
}

func TestSeedCatalog_UnknownReference(t *testing.T) {
	db := testutil.SetupTestDB(t)
	seed := database.CatalogSeed{
		Bins: []database.BinSeed{{Bin: models.Bin{Code: "Q-1"}, WarehouseCode: "NOPE"}},
	}
	_, err := database.SeedCatalog(db, seed)
	assert.ErrorContains(t, err, "unknown warehouse NOPE")
}
