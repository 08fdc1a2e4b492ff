package database

import (
	"fmt"
	"fulfillment-wms/models"
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type BinSeed struct {
	Bin            models.Bin
	WarehouseCode  string
	PalletTypeCode string
}

type CapacitySeed struct {
	Kind           types.ItemKind
	ItemCode       string
	PalletTypeCode string
	Capacity       decimal.Decimal
}

// CatalogSeed is master data keyed by code. References between records go
// through codes so a seed can be written before any id exists.
type CatalogSeed struct {
	Warehouses  []models.Warehouse
	PalletTypes []models.PalletType
	Bins        []BinSeed
	Products    []models.Product
	Materials   []models.Material
	Capacities  []CapacitySeed
	Vendors     []models.Vendor
	Customers   []models.Customer
}

// SeededCatalog maps every seeded code to its id.
type SeededCatalog struct {
	Warehouses  map[string]types.SnowflakeID
	PalletTypes map[string]types.SnowflakeID
	Bins        map[string]types.SnowflakeID
	Products    map[string]types.SnowflakeID
	Materials   map[string]types.SnowflakeID
	Vendors     map[string]types.SnowflakeID
	Customers   map[string]types.SnowflakeID
}

// SeedCatalog inserts the records that do not exist yet. Running it twice
// leaves the catalog unchanged.
func SeedCatalog(db *gorm.DB, seed CatalogSeed) (*SeededCatalog, error) {
	out := &SeededCatalog{
		Warehouses:  map[string]types.SnowflakeID{},
		PalletTypes: map[string]types.SnowflakeID{},
		Bins:        map[string]types.SnowflakeID{},
		Products:    map[string]types.SnowflakeID{},
		Materials:   map[string]types.SnowflakeID{},
		Vendors:     map[string]types.SnowflakeID{},
		Customers:   map[string]types.SnowflakeID{},
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		for _, w := range seed.Warehouses {
			if err := tx.Where("code = ?", w.Code).FirstOrCreate(&w).Error; err != nil {
				return fmt.Errorf("seed warehouse %s: %w", w.Code, err)
			}
			out.Warehouses[w.Code] = w.ID
		}
		for _, p := range seed.PalletTypes {
			if err := tx.Where("code = ?", p.Code).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed pallet type %s: %w", p.Code, err)
			}
			out.PalletTypes[p.Code] = p.ID
		}
		for _, b := range seed.Bins {
			bin := b.Bin
			warehouseID, ok := out.Warehouses[b.WarehouseCode]
			if !ok {
				return fmt.Errorf("seed bin %s: unknown warehouse %s", bin.Code, b.WarehouseCode)
			}
			bin.WarehouseID = warehouseID
			if b.PalletTypeCode != "" {
				if bin.PalletTypeID, ok = out.PalletTypes[b.PalletTypeCode]; !ok {
					return fmt.Errorf("seed bin %s: unknown pallet type %s", bin.Code, b.PalletTypeCode)
				}
			}
			if err := tx.Where("code = ?", bin.Code).FirstOrCreate(&bin).Error; err != nil {
				return fmt.Errorf("seed bin %s: %w", bin.Code, err)
			}
			out.Bins[bin.Code] = bin.ID
		}
		for _, p := range seed.Products {
			if err := tx.Where("code = ?", p.Code).FirstOrCreate(&p).Error; err != nil {
				return fmt.Errorf("seed product %s: %w", p.Code, err)
			}
			out.Products[p.Code] = p.ID
		}
		for _, m := range seed.Materials {
			if err := tx.Where("code = ?", m.Code).FirstOrCreate(&m).Error; err != nil {
				return fmt.Errorf("seed material %s: %w", m.Code, err)
			}
			out.Materials[m.Code] = m.ID
		}
		for _, c := range seed.Capacities {
			items := out.Products
			if c.Kind == types.ItemMaterial {
				items = out.Materials
			}
			itemID, ok := items[c.ItemCode]
			if !ok {
				return fmt.Errorf("seed capacity: unknown %s %s", c.Kind, c.ItemCode)
			}
			palletID, ok := out.PalletTypes[c.PalletTypeCode]
			if !ok {
				return fmt.Errorf("seed capacity: unknown pallet type %s", c.PalletTypeCode)
			}
			row := models.PalletCapacity{ItemKind: c.Kind, ItemID: itemID, PalletTypeID: palletID, Capacity: c.Capacity}
			err := tx.Where("item_kind = ? AND item_id = ? AND pallet_type_id = ?", c.Kind, itemID, palletID).
				FirstOrCreate(&row).Error
			if err != nil {
				return fmt.Errorf("seed capacity %s/%s: %w", c.ItemCode, c.PalletTypeCode, err)
			}
		}
		for _, v := range seed.Vendors {
			if err := tx.Where("code = ?", v.Code).FirstOrCreate(&v).Error; err != nil {
				return fmt.Errorf("seed vendor %s: %w", v.Code, err)
			}
			out.Vendors[v.Code] = v.ID
		}
		for _, c := range seed.Customers {
			if err := tx.Where("code = ?", c.Code).FirstOrCreate(&c).Error; err != nil {
				return fmt.Errorf("seed customer %s: %w", c.Code, err)
			}
			out.Customers[c.Code] = c.ID
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// DemoCatalog is a small warehouse for trying the API locally.
func DemoCatalog() CatalogSeed {
	qty := decimal.NewFromInt
	seed := CatalogSeed{
		Warehouses: []models.Warehouse{{Code: "WH-MAIN", Name: "Main Warehouse", IsActive: true}},
		PalletTypes: []models.PalletType{
			{Code: "STD", Name: "Standard pallet", IsActive: true},
			{Code: "HALF", Name: "Half pallet", IsActive: true},
		},
		Products: []models.Product{
			{Code: "P-1001", Name: "Paracetamol 500mg", BaseUom: "BOX", MinQty: qty(10), Mrp: qty(25), IsActive: true},
			{Code: "P-1002", Name: "Amoxicillin 250mg", BaseUom: "BOX", MinQty: qty(5), Mrp: qty(40), IsActive: true},
		},
		Materials: []models.Material{
			{Code: "M-2001", Name: "Carton 40x30", BaseUom: "PCS", MinQty: qty(100), IsActive: true},
		},
		Capacities: []CapacitySeed{
			{Kind: types.ItemProduct, ItemCode: "P-1001", PalletTypeCode: "STD", Capacity: qty(120)},
			{Kind: types.ItemProduct, ItemCode: "P-1001", PalletTypeCode: "HALF", Capacity: qty(60)},
			{Kind: types.ItemProduct, ItemCode: "P-1002", PalletTypeCode: "STD", Capacity: qty(80)},
			{Kind: types.ItemMaterial, ItemCode: "M-2001", PalletTypeCode: "STD", Capacity: qty(1000)},
		},
		Vendors:   []models.Vendor{{Code: "V-001", Name: "Prima Pharma", Email: "orders@prima.example", IsActive: true}},
		Customers: []models.Customer{{Code: "C-001", Name: "City Clinic", City: "Jakarta", IsActive: true}},
	}
	for i := 1; i <= 4; i++ {
		seed.Bins = append(seed.Bins, BinSeed{
			Bin:            models.Bin{Code: fmt.Sprintf("A-01-%02d", i), Row: "A", Bay: "01", Level: fmt.Sprintf("%02d", i), IsActive: true},
			WarehouseCode:  "WH-MAIN",
			PalletTypeCode: "STD",
		})
	}
	for i := 1; i <= 2; i++ {
		seed.Bins = append(seed.Bins, BinSeed{
			Bin:            models.Bin{Code: fmt.Sprintf("B-01-%02d", i), Row: "B", Bay: "01", Level: fmt.Sprintf("%02d", i), IsActive: true},
			WarehouseCode:  "WH-MAIN",
			PalletTypeCode: "HALF",
		})
	}
	return seed
}
