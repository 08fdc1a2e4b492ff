package services

import (
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"

	"gorm.io/gorm"
)

// CatalogGateway reads master data. Implementations are bound to the store
// handle of the running transaction.
type CatalogGateway interface {
	FindItem(ref types.ItemRef) (*repositories.CatalogItem, error)
	ItemLabels(refs []types.ItemRef) (map[types.ItemRef]repositories.CatalogItem, error)
	FindWarehouse(id types.SnowflakeID) (*models.Warehouse, error)
	FindBin(id types.SnowflakeID) (*models.Bin, error)
	FindBinByCode(code string) (*models.Bin, error)
	ListBins(warehouseID types.SnowflakeID) ([]models.Bin, error)
	PalletCapacities(item types.ItemRef) ([]models.PalletCapacity, error)
	FindCounterparty(kind string, id types.SnowflakeID) (*repositories.Counterparty, error)
}

// CatalogFactory binds a gateway to a store handle.
type CatalogFactory func(db *gorm.DB) CatalogGateway

func DefaultCatalog(db *gorm.DB) CatalogGateway {
	return repositories.NewCatalogRepository(db)
}

func activeItem(catalog CatalogGateway, ref types.ItemRef) (*repositories.CatalogItem, error) {
	item, err := catalog.FindItem(ref)
	if err != nil {
		return nil, err
	}
	if !item.IsActive {
		return nil, &types.ValidationError{Field: string(ref.Kind), Reason: item.Name + " is inactive"}
	}
	return item, nil
}

func activeBin(catalog CatalogGateway, id types.SnowflakeID) (*models.Bin, error) {
	bin, err := catalog.FindBin(id)
	if err != nil {
		return nil, err
	}
	if !bin.IsActive {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "bin " + bin.Code + " is inactive"}
	}
	return bin, nil
}

func activeWarehouse(catalog CatalogGateway, id types.SnowflakeID) (*models.Warehouse, error) {
	w, err := catalog.FindWarehouse(id)
	if err != nil {
		return nil, err
	}
	if !w.IsActive {
		return nil, &types.ValidationError{Field: "warehouse_id", Reason: "warehouse " + w.Code + " is inactive"}
	}
	return w, nil
}
