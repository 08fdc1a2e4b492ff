package services

import (
	"fulfillment-wms/models"
	"fulfillment-wms/repositories"
	"fulfillment-wms/types"
	"fulfillment-wms/utils"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// BinCandidate is one bin the engine proposes or accepts for a movement.
type BinCandidate struct {
	BinID             types.SnowflakeID `json:"bin_id"`
	BinCode           string            `json:"bin_code"`
	BinProductID      types.SnowflakeID `json:"bin_product_id,omitempty"`
	IsNew             bool              `json:"is_new"`
	PalletTypeID      types.SnowflakeID `json:"pallet_type_id,omitempty"`
	MaxQuantity       decimal.Decimal   `json:"max_quantity"`
	FilledQuantity    decimal.Decimal   `json:"filled_quantity"`
	AvailableQuantity decimal.Decimal   `json:"available_quantity"`
}

// AllocationRequest describes the lot and quantity to place or take.
type AllocationRequest struct {
	Direction       types.Direction
	WarehouseID     types.SnowflakeID
	Item            types.ItemRef
	ItemName        string
	BatchNumber     string
	Uom             string
	StockLocation   string
	ManufactureDate string
	Mrp             decimal.Decimal
	Quantity        decimal.Decimal
}

func (r AllocationRequest) key(bin *models.Bin) OccupancyKey {
	return OccupancyKey{
		BinID:           bin.ID,
		BinCode:         bin.Code,
		WarehouseID:     r.WarehouseID,
		Item:            r.Item,
		ItemName:        r.ItemName,
		BatchNumber:     r.BatchNumber,
		Uom:             r.Uom,
		StockLocation:   r.StockLocation,
		ManufactureDate: r.ManufactureDate,
		Mrp:             r.Mrp,
	}
}

// Allocator picks and checks bins. Date guards use its clock.
type Allocator struct {
	clock     Clock
	inventory BinInventory
}

func NewAllocator(clock Clock) *Allocator {
	return &Allocator{clock: clock}
}

// RankPickCandidates orders bins to withdraw from. When no bin can cover the
// request alone the fullest bin comes first; otherwise the bin whose filled
// quantity is closest to the request wins, ties going to the smaller bin and
// then to the bin code.
func RankPickCandidates(candidates []BinCandidate, requested decimal.Decimal) []BinCandidate {
	ranked := append([]BinCandidate(nil), candidates...)
	if len(ranked) == 0 {
		return ranked
	}

	maxFilled := ranked[0].FilledQuantity
	for _, c := range ranked[1:] {
		if c.FilledQuantity.GreaterThan(maxFilled) {
			maxFilled = c.FilledQuantity
		}
	}

	if requested.GreaterThan(maxFilled) {
		slices.SortStableFunc(ranked, func(a, b BinCandidate) int {
			if c := b.FilledQuantity.Cmp(a.FilledQuantity); c != 0 {
				return c
			}
			return strings.Compare(a.BinCode, b.BinCode)
		})
		return ranked
	}

	slices.SortStableFunc(ranked, func(a, b BinCandidate) int {
		da := a.FilledQuantity.Sub(requested).Abs()
		db := b.FilledQuantity.Sub(requested).Abs()
		if c := da.Cmp(db); c != 0 {
			return c
		}
		if c := a.FilledQuantity.Cmp(b.FilledQuantity); c != 0 {
			return c
		}
		return strings.Compare(a.BinCode, b.BinCode)
	})
	return ranked
}

// RankPutCandidates lists partial bins first, tightest fit after the deposit
// first, then new bins by ascending capacity. Bin code breaks ties.
func RankPutCandidates(partial, fresh []BinCandidate, requested decimal.Decimal) []BinCandidate {
	p := append([]BinCandidate(nil), partial...)
	slices.SortStableFunc(p, func(a, b BinCandidate) int {
		ra := a.AvailableQuantity.Sub(requested)
		rb := b.AvailableQuantity.Sub(requested)
		if c := ra.Cmp(rb); c != 0 {
			return c
		}
		return strings.Compare(a.BinCode, b.BinCode)
	})

	n := append([]BinCandidate(nil), fresh...)
	slices.SortStableFunc(n, func(a, b BinCandidate) int {
		if c := a.MaxQuantity.Cmp(b.MaxQuantity); c != 0 {
			return c
		}
		return strings.Compare(a.BinCode, b.BinCode)
	})
	return append(p, n...)
}

// FindBestPallet returns the smallest capacity that still holds the request,
// or the largest capacity when none does. ok is false for an empty table.
func FindBestPallet(capacities []models.PalletCapacity, requested decimal.Decimal) (best models.PalletCapacity, ok bool) {
	sorted := append([]models.PalletCapacity(nil), capacities...)
	slices.SortStableFunc(sorted, func(a, b models.PalletCapacity) int {
		return a.Capacity.Cmp(b.Capacity)
	})
	if len(sorted) == 0 {
		return models.PalletCapacity{}, false
	}
	for _, c := range sorted {
		if c.Capacity.GreaterThanOrEqual(requested) {
			return c, true
		}
	}
	return sorted[len(sorted)-1], true
}

// CheckBatchChange requires a reason when the batch moved differs from the
// batch on the order line.
func CheckBatchChange(lineBatch, batch, reason string) error {
	if batch == "" || batch == lineBatch {
		return nil
	}
	if strings.TrimSpace(reason) == "" {
		return &types.ValidationError{
			Field:  "batch_change_reason",
			Reason: "is required when batch " + batch + " differs from the order line batch " + lineBatch,
		}
	}
	return nil
}

// CheckManufactureDate parses a YYYY-MM-DD date and rejects dates after
// today on the allocator's clock.
func (a *Allocator) CheckManufactureDate(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &types.ValidationError{Field: "manufacture_date", Reason: "is required"}
	}
	date, err := utils.ParseDate(raw)
	if err != nil {
		return "", &types.ValidationError{Field: "manufacture_date", Reason: "must be a YYYY-MM-DD date"}
	}
	today := utils.DateOnly(a.clock.Now())
	if date.After(today) {
		return "", &types.ValidationError{Field: "manufacture_date", Reason: raw + " is in the future"}
	}
	return date.Format(utils.DateLayout), nil
}

// ListAvailableBins returns every candidate for the request, best first.
func (a *Allocator) ListAvailableBins(tx *gorm.DB, catalog CatalogGateway, req AllocationRequest) ([]BinCandidate, error) {
	if req.Direction == types.DirectionPick {
		return a.pickCandidates(tx, catalog, req)
	}
	return a.putCandidates(tx, catalog, req)
}

// SuggestBin returns the single best candidate.
func (a *Allocator) SuggestBin(tx *gorm.DB, catalog CatalogGateway, req AllocationRequest) (*BinCandidate, error) {
	candidates, err := a.ListAvailableBins(tx, catalog, req)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		if req.Direction == types.DirectionPick {
			return nil, &types.InsufficientQuantityError{
				Item: req.ItemName, Source: "warehouse stock", Requested: req.Quantity, Available: decimal.Zero,
			}
		}
		return nil, &types.NotFoundError{Entity: "bin", Key: "with room for " + req.Quantity.String() + " of " + req.ItemName}
	}
	return &candidates[0], nil
}

// ValidateBin checks a bin chosen by the caller against the same rules the
// suggestions follow.
func (a *Allocator) ValidateBin(tx *gorm.DB, catalog CatalogGateway, bin *models.Bin, req AllocationRequest) (*BinCandidate, error) {
	if !bin.IsActive {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "bin " + bin.Code + " is inactive"}
	}
	if bin.WarehouseID != req.WarehouseID {
		return nil, &types.ValidationError{Field: "bin_id", Reason: "bin " + bin.Code + " belongs to another warehouse"}
	}

	row, err := a.inventory.FindOccupancy(tx, bin.ID, false)
	if err != nil {
		return nil, err
	}
	key := req.key(bin)

	if req.Direction == types.DirectionPick {
		if row == nil {
			return nil, &types.InsufficientQuantityError{
				Item: req.ItemName, Source: "bin " + bin.Code, Requested: req.Quantity, Available: decimal.Zero,
			}
		}
		if row.Item() != req.Item {
			return nil, &types.BinConflictError{Bin: bin.Code, Field: "item", Existing: row.Item().String(), Requested: req.Item.String()}
		}
		if row.BatchNumber != req.BatchNumber {
			return nil, &types.BinConflictError{Bin: bin.Code, Field: "batch_number", Existing: row.BatchNumber, Requested: req.BatchNumber}
		}
		if row.Uom != req.Uom {
			return nil, &types.BinConflictError{Bin: bin.Code, Field: "uom", Existing: row.Uom, Requested: req.Uom}
		}
		if row.StockLocation != req.StockLocation {
			return nil, &types.BinConflictError{Bin: bin.Code, Field: "stock_location", Existing: row.StockLocation, Requested: req.StockLocation}
		}
		if req.Quantity.GreaterThan(row.FilledQuantity) {
			return nil, &types.InsufficientQuantityError{
				Item: req.ItemName, Source: "bin " + bin.Code, Requested: req.Quantity, Available: row.FilledQuantity,
			}
		}
		c := fromRow(bin, row)
		return &c, nil
	}

	if row != nil {
		if err := CheckConsistency(row, key); err != nil {
			return nil, err
		}
		if req.Quantity.GreaterThan(row.AvailableQuantity) {
			return nil, &types.CapacityExceededError{
				Bin: bin.Code, Item: req.ItemName, Requested: req.Quantity, Remaining: row.AvailableQuantity, Max: row.MaxQuantity,
			}
		}
		c := fromRow(bin, row)
		return &c, nil
	}

	capacity, err := binCapacity(catalog, bin, req)
	if err != nil {
		return nil, err
	}
	if req.Quantity.GreaterThan(capacity.Capacity) {
		return nil, &types.CapacityExceededError{
			Bin: bin.Code, Item: req.ItemName, Requested: req.Quantity, Remaining: capacity.Capacity, Max: capacity.Capacity,
		}
	}
	c := newBinCandidate(bin, capacity)
	return &c, nil
}

func (a *Allocator) pickCandidates(tx *gorm.DB, catalog CatalogGateway, req AllocationRequest) ([]BinCandidate, error) {
	rows, err := repositories.NewBinProductRepository(tx).ListActive(repositories.OccupancyFilter{
		WarehouseID:   req.WarehouseID,
		Item:          req.Item,
		BatchNumber:   req.BatchNumber,
		Uom:           req.Uom,
		StockLocation: req.StockLocation,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]BinCandidate, 0, len(rows))
	for i := range rows {
		if !utils.QtyIsPositive(rows[i].FilledQuantity) {
			continue
		}
		bin, err := catalog.FindBin(rows[i].BinID)
		if err != nil {
			return nil, err
		}
		if !bin.IsActive {
			continue
		}
		candidates = append(candidates, fromRow(bin, &rows[i]))
	}
	return RankPickCandidates(candidates, req.Quantity), nil
}

func (a *Allocator) putCandidates(tx *gorm.DB, catalog CatalogGateway, req AllocationRequest) ([]BinCandidate, error) {
	repo := repositories.NewBinProductRepository(tx)
	rows, err := repo.ListActive(repositories.OccupancyFilter{
		WarehouseID:   req.WarehouseID,
		Item:          req.Item,
		BatchNumber:   req.BatchNumber,
		Uom:           req.Uom,
		StockLocation: req.StockLocation,
	})
	if err != nil {
		return nil, err
	}

	var partial []BinCandidate
	for i := range rows {
		row := &rows[i]
		if row.ManufactureDate != req.ManufactureDate || !row.Mrp.Equal(req.Mrp) {
			continue
		}
		if req.Quantity.GreaterThan(row.AvailableQuantity) {
			continue
		}
		bin, err := catalog.FindBin(row.BinID)
		if err != nil {
			return nil, err
		}
		if bin.IsActive {
			partial = append(partial, fromRow(bin, row))
		}
	}

	occupied, err := repo.ActiveBinIDs(req.WarehouseID)
	if err != nil {
		return nil, err
	}
	bins, err := catalog.ListBins(req.WarehouseID)
	if err != nil {
		return nil, err
	}
	capacities, err := catalog.PalletCapacities(req.Item)
	if err != nil {
		return nil, err
	}

	var fresh []BinCandidate
	for i := range bins {
		bin := &bins[i]
		if occupied[bin.ID] {
			continue
		}
		capacity, ok := capacityFor(capacities, bin, req.Quantity)
		if !ok || capacity.Capacity.LessThan(req.Quantity) {
			continue
		}
		fresh = append(fresh, newBinCandidate(bin, capacity))
	}
	return RankPutCandidates(partial, fresh, req.Quantity), nil
}

// binCapacity resolves how much of the item a new lot in the bin may hold.
func binCapacity(catalog CatalogGateway, bin *models.Bin, req AllocationRequest) (models.PalletCapacity, error) {
	capacities, err := catalog.PalletCapacities(req.Item)
	if err != nil {
		return models.PalletCapacity{}, err
	}
	capacity, ok := capacityFor(capacities, bin, req.Quantity)
	if !ok {
		return models.PalletCapacity{}, &types.ValidationError{
			Field:  "bin_id",
			Reason: "no pallet capacity configured for " + req.ItemName + " in bin " + bin.Code,
		}
	}
	return capacity, nil
}

// capacityFor uses the bin's own pallet type when it has one and the best
// pallet otherwise.
func capacityFor(capacities []models.PalletCapacity, bin *models.Bin, requested decimal.Decimal) (models.PalletCapacity, bool) {
	if bin.PalletTypeID == 0 {
		return FindBestPallet(capacities, requested)
	}
	for _, c := range capacities {
		if c.PalletTypeID == bin.PalletTypeID {
			return c, true
		}
	}
	return models.PalletCapacity{}, false
}

func fromRow(bin *models.Bin, row *models.BinProduct) BinCandidate {
	return BinCandidate{
		BinID:             bin.ID,
		BinCode:           bin.Code,
		BinProductID:      row.ID,
		PalletTypeID:      row.PalletTypeID,
		MaxQuantity:       row.MaxQuantity,
		FilledQuantity:    row.FilledQuantity,
		AvailableQuantity: row.AvailableQuantity,
	}
}

func newBinCandidate(bin *models.Bin, capacity models.PalletCapacity) BinCandidate {
	return BinCandidate{
		BinID:             bin.ID,
		BinCode:           bin.Code,
		IsNew:             true,
		PalletTypeID:      capacity.PalletTypeID,
		MaxQuantity:       capacity.Capacity,
		FilledQuantity:    decimal.Zero,
		AvailableQuantity: capacity.Capacity,
	}
}
