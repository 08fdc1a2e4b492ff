package services

import (
	"fmt"
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OccupancyKey identifies the lot a movement touches in a bin.
type OccupancyKey struct {
	BinID           types.SnowflakeID
	BinCode         string
	WarehouseID     types.SnowflakeID
	Item            types.ItemRef
	ItemName        string
	BatchNumber     string
	Uom             string
	StockLocation   string
	ManufactureDate string
	Mrp             decimal.Decimal
	PalletTypeID    types.SnowflakeID
}

// OccupancyChange is the before and after picture of one upsert.
type OccupancyChange struct {
	Row             *models.BinProduct
	Created         bool
	FilledBefore    decimal.Decimal
	FilledAfter     decimal.Decimal
	AvailableBefore decimal.Decimal
	AvailableAfter  decimal.Decimal
}

// BinInventory owns bin occupancy rows. Every method works on the caller's
// transaction handle.
type BinInventory struct{}

// FindOccupancy returns the active lot in the bin, or nil when the bin is
// empty or only holds a drained row.
func (BinInventory) FindOccupancy(tx *gorm.DB, binID types.SnowflakeID, lock bool) (*models.BinProduct, error) {
	row, err := repositories.NewBinProductRepository(tx).FindActiveByBin(binID, lock)
	if err != nil || row == nil {
		return nil, err
	}
	if utils.QtyIsZero(row.FilledQuantity) {
		return nil, nil
	}
	return row, nil
}

// UpsertOccupancy applies a signed delta to the bin: positive deposits,
// negative withdraws. maxQty sizes a new row and is ignored for an existing one.
// The bin row is claimed first and the occupancy is read under that claim.
func (inv BinInventory) UpsertOccupancy(tx *gorm.DB, key OccupancyKey, delta, maxQty decimal.Decimal, actor int64) (*OccupancyChange, error) {
	if delta.IsZero() {
		return nil, &types.ValidationError{Field: "quantity", Reason: "must not be zero"}
	}
	repo := repositories.NewBinProductRepository(tx)
	if err := repo.ClaimBin(key.BinID); err != nil {
		return nil, err
	}

	row, err := repo.FindActiveByBin(key.BinID, true)
	if err != nil {
		return nil, err
	}
	if row != nil && utils.QtyIsZero(row.FilledQuantity) {
		if err := inv.DeactivateIfEmpty(tx, row, actor); err != nil {
			return nil, err
		}
		row = nil
	}

	if delta.IsNegative() {
		return withdraw(repo, row, key, delta.Neg(), actor)
	}
	if row != nil {
		return depositPartial(repo, row, key, delta, actor)
	}
	return depositNew(repo, key, delta, maxQty, actor)
}

// DeactivateIfEmpty retires a drained row so the bin can take another lot.
func (BinInventory) DeactivateIfEmpty(tx *gorm.DB, row *models.BinProduct, actor int64) error {
	if !row.IsActive || !utils.QtyIsZero(row.FilledQuantity) {
		return nil
	}
	row.IsActive = false
	return repositories.NewBinProductRepository(tx).UpdateCounters(row, actor)
}

// CheckConsistency reports the first identity field on which a deposit
// differs from the lot already in a partial bin.
func CheckConsistency(existing *models.BinProduct, key OccupancyKey) error {
	conflict := func(field, have, want string) error {
		return &types.BinConflictError{Bin: binLabel(key), Field: field, Existing: have, Requested: want}
	}
	switch {
	case existing.Item() != key.Item:
		return conflict("item", existing.Item().String(), key.Item.String())
	case existing.BatchNumber != key.BatchNumber:
		return conflict("batch_number", existing.BatchNumber, key.BatchNumber)
	case existing.ManufactureDate != key.ManufactureDate:
		return conflict("manufacture_date", existing.ManufactureDate, key.ManufactureDate)
	case existing.Uom != key.Uom:
		return conflict("uom", existing.Uom, key.Uom)
	case existing.StockLocation != key.StockLocation:
		return conflict("stock_location", existing.StockLocation, key.StockLocation)
	case !existing.Mrp.Equal(key.Mrp):
		return conflict("mrp", existing.Mrp.String(), key.Mrp.String())
	}
	return nil
}

func withdraw(repo *repositories.BinProductRepository, row *models.BinProduct, key OccupancyKey, qty decimal.Decimal, actor int64) (*OccupancyChange, error) {
	if row == nil || row.Item() != key.Item || row.BatchNumber != key.BatchNumber {
		return nil, &types.InsufficientQuantityError{
			Item: itemLabel(key), Source: "bin " + binLabel(key), Requested: qty, Available: decimal.Zero,
		}
	}
	if qty.GreaterThan(row.FilledQuantity) {
		return nil, &types.InsufficientQuantityError{
			Item: itemLabel(key), Source: "bin " + binLabel(key), Requested: qty, Available: row.FilledQuantity,
		}
	}
	return applyDelta(repo, row, qty.Neg(), actor)
}

func depositPartial(repo *repositories.BinProductRepository, row *models.BinProduct, key OccupancyKey, qty decimal.Decimal, actor int64) (*OccupancyChange, error) {
	if err := CheckConsistency(row, key); err != nil {
		return nil, err
	}
	remaining := row.MaxQuantity.Sub(row.FilledQuantity)
	if qty.GreaterThan(remaining) {
		return nil, &types.CapacityExceededError{
			Bin: binLabel(key), Item: itemLabel(key), Requested: qty, Remaining: remaining, Max: row.MaxQuantity,
		}
	}
	return applyDelta(repo, row, qty, actor)
}

func depositNew(repo *repositories.BinProductRepository, key OccupancyKey, qty, maxQty decimal.Decimal, actor int64) (*OccupancyChange, error) {
	if !maxQty.IsPositive() || qty.GreaterThan(maxQty) {
		return nil, &types.CapacityExceededError{
			Bin: binLabel(key), Item: itemLabel(key), Requested: qty, Remaining: maxQty, Max: maxQty,
		}
	}
	row := &models.BinProduct{
		BinID:             key.BinID,
		WarehouseID:       key.WarehouseID,
		BatchNumber:       key.BatchNumber,
		Uom:               key.Uom,
		StockLocation:     key.StockLocation,
		ManufactureDate:   key.ManufactureDate,
		Mrp:               key.Mrp,
		PalletTypeID:      key.PalletTypeID,
		MaxQuantity:       maxQty,
		FilledQuantity:    qty,
		AvailableQuantity: maxQty.Sub(qty),
		IsActive:          true,
		Audit:             models.Audit{CreatedBy: actor, UpdatedBy: actor},
	}
	row.SetItem(key.Item)
	if err := repo.Create(row); err != nil {
		return nil, err
	}
	return &OccupancyChange{
		Row:             row,
		Created:         true,
		FilledBefore:    decimal.Zero,
		FilledAfter:     row.FilledQuantity,
		AvailableBefore: maxQty,
		AvailableAfter:  row.AvailableQuantity,
	}, nil
}

func applyDelta(repo *repositories.BinProductRepository, row *models.BinProduct, delta decimal.Decimal, actor int64) (*OccupancyChange, error) {
	change := &OccupancyChange{
		Row:             row,
		FilledBefore:    row.FilledQuantity,
		AvailableBefore: row.AvailableQuantity,
	}

	filled := row.FilledQuantity.Add(delta)
	if filled.IsNegative() || filled.GreaterThan(row.MaxQuantity) {
		return nil, &types.UnexpectedError{
			Op:  "upsert occupancy",
			Err: fmt.Errorf("bin product %s would hold %s of max %s", row.ID, filled, row.MaxQuantity),
		}
	}
	row.FilledQuantity = filled
	row.AvailableQuantity = row.MaxQuantity.Sub(filled)
	row.IsActive = filled.IsPositive()
	if err := repo.UpdateCounters(row, actor); err != nil {
		return nil, err
	}

	change.FilledAfter = row.FilledQuantity
	change.AvailableAfter = row.AvailableQuantity
	return change, nil
}

func binLabel(key OccupancyKey) string {
	if key.BinCode != "" {
		return key.BinCode
	}
	return key.BinID.String()
}

func itemLabel(key OccupancyKey) string {
	if key.ItemName != "" {
		return key.ItemName
	}
	return key.Item.String()
}
