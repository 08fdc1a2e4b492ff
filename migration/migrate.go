package migration

import (
	"fulfillment-wms/models"

	"gorm.io/gorm"
)

// Migrate creates or updates every table of the fulfillment core.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Warehouse{},
		&models.PalletType{},
		&models.Bin{},
		&models.Product{},
		&models.Material{},
		&models.PalletCapacity{},
		&models.Vendor{},
		&models.Customer{},
		&models.Order{},
		&models.OrderLine{},
		&models.Receiving{},
		&models.PutAway{},
		&models.Shipment{},
		&models.BinProduct{},
		&models.BinProductLog{},
	)
}
