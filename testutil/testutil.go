package testutil

import (
	"fulfillment-wms/database"
	"fulfillment-wms/migration"
	"fulfillment-wms/models"
	"fulfillment-wms/types"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Today is the date FixedClock returns in tests.
var Today = time.Date(2026, 3, 15, 9, 30, 0, 0, time.UTC)

// TestEnv is a migrated in-memory database with the test catalog loaded.
type TestEnv struct {
	DB      *gorm.DB
	Catalog *database.SeededCatalog
	T       *testing.T
}

// SetupTestDB opens a private in-memory SQLite database and migrates it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	// every connection to :memory: is a new database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	if err := migration.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

// Setup returns a database holding the catalog of TestCatalog.
func Setup(t *testing.T) *TestEnv {
	t.Helper()
	db := SetupTestDB(t)
	seeded, err := database.SeedCatalog(db, TestCatalog())
	if err != nil {
		t.Fatalf("Failed to seed test catalog: %v", err)
	}
	return &TestEnv{DB: db, Catalog: seeded, T: t}
}

// TestCatalog: warehouse WH1 has bins A-01..A-06 without a pallet type, S-01
// on small pallets and an inactive X-01; WH2 has Z-01. Widget (P-100) has a
// minimum order quantity of 50.
func TestCatalog() database.CatalogSeed {
	qty := decimal.NewFromInt
	seed := database.CatalogSeed{
		Warehouses: []models.Warehouse{
			{Code: "WH1", Name: "Main", IsActive: true},
			{Code: "WH2", Name: "Overflow", IsActive: true},
		},
		PalletTypes: []models.PalletType{
			{Code: "SMALL", Name: "Small pallet", IsActive: true},
			{Code: "LARGE", Name: "Large pallet", IsActive: true},
		},
		Products: []models.Product{
			{Code: "P-100", Name: "Widget", BaseUom: "PCS", MinQty: qty(50), Mrp: qty(10), IsActive: true},
			{Code: "P-200", Name: "Gadget", BaseUom: "PCS", MinQty: decimal.Zero, Mrp: qty(20), IsActive: true},
			{Code: "P-OFF", Name: "Retired", BaseUom: "PCS", MinQty: decimal.Zero, Mrp: qty(5), IsActive: false},
		},
		Materials: []models.Material{
			{Code: "M-100", Name: "Carton", BaseUom: "PCS", MinQty: decimal.Zero, IsActive: true},
		},
		Capacities: []database.CapacitySeed{
			{Kind: types.ItemProduct, ItemCode: "P-100", PalletTypeCode: "SMALL", Capacity: qty(60)},
			{Kind: types.ItemProduct, ItemCode: "P-100", PalletTypeCode: "LARGE", Capacity: qty(200)},
			{Kind: types.ItemProduct, ItemCode: "P-200", PalletTypeCode: "LARGE", Capacity: qty(100)},
			{Kind: types.ItemMaterial, ItemCode: "M-100", PalletTypeCode: "LARGE", Capacity: qty(500)},
		},
		Vendors: []models.Vendor{
			{Code: "V-1", Name: "Acme Supply", Email: "acme@example.com", IsActive: true},
			{Code: "V-OFF", Name: "Gone Supply", IsActive: false},
		},
		Customers: []models.Customer{
			{Code: "C-1", Name: "Corner Shop", City: "Bandung", IsActive: true},
		},
	}
	for _, code := range []string{"A-01", "A-02", "A-03", "A-04", "A-05", "A-06"} {
		seed.Bins = append(seed.Bins, database.BinSeed{
			Bin:           models.Bin{Code: code, Row: "A", IsActive: true},
			WarehouseCode: "WH1",
		})
	}
	seed.Bins = append(seed.Bins,
		database.BinSeed{Bin: models.Bin{Code: "S-01", Row: "S", IsActive: true}, WarehouseCode: "WH1", PalletTypeCode: "SMALL"},
		database.BinSeed{Bin: models.Bin{Code: "X-01", Row: "X", IsActive: false}, WarehouseCode: "WH1"},
		database.BinSeed{Bin: models.Bin{Code: "Z-01", Row: "Z", IsActive: true}, WarehouseCode: "WH2"},
	)
	return seed
}

// Stock is an occupancy placed directly in a bin, bypassing the services.
type Stock struct {
	Bin             string
	Product         string
	Batch           string
	Uom             string
	StockLocation   string
	ManufactureDate string
	Mrp             decimal.Decimal
	Filled          decimal.Decimal
	Max             decimal.Decimal
}

// PlaceStock inserts an active occupancy row. Empty fields get the defaults
// used by the line helpers of the service tests.
func (e *TestEnv) PlaceStock(s Stock) *models.BinProduct {
	e.T.Helper()
	if s.Batch == "" {
		s.Batch = "B1"
	}
	if s.Uom == "" {
		s.Uom = "PCS"
	}
	if s.StockLocation == "" {
		s.StockLocation = "GOOD"
	}
	if s.ManufactureDate == "" {
		s.ManufactureDate = "2026-01-10"
	}
	if s.Max.IsZero() {
		s.Max = decimal.NewFromInt(200)
	}
	var bin models.Bin
	if err := e.DB.Where("code = ?", s.Bin).Take(&bin).Error; err != nil {
		e.T.Fatalf("Failed to find bin %s: %v", s.Bin, err)
	}
	row := &models.BinProduct{
		BinID:             bin.ID,
		WarehouseID:       bin.WarehouseID,
		BatchNumber:       s.Batch,
		Uom:               s.Uom,
		StockLocation:     s.StockLocation,
		ManufactureDate:   s.ManufactureDate,
		Mrp:               s.Mrp,
		MaxQuantity:       s.Max,
		FilledQuantity:    s.Filled,
		AvailableQuantity: s.Max.Sub(s.Filled),
		IsActive:          true,
	}
	row.SetItem(types.ProductRef(e.Catalog.Products[s.Product]))
	if err := e.DB.Create(row).Error; err != nil {
		e.T.Fatalf("Failed to place stock in %s: %v", s.Bin, err)
	}
	return row
}
