package repositories

import (
	"fulfillment-wms/models"
	"fulfillment-wms/types"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CatalogItem is the part of a product or material the warehouse cares about.
type CatalogItem struct {
	Ref      types.ItemRef   `json:"ref"`
	Code     string          `json:"code"`
	Name     string          `json:"name"`
	BaseUom  string          `json:"base_uom"`
	MinQty   decimal.Decimal `json:"min_qty"`
	IsActive bool            `json:"is_active"`
}

// Counterparty is a vendor or a customer.
type Counterparty struct {
	ID       types.SnowflakeID `json:"id"`
	Kind     string            `json:"kind"`
	Code     string            `json:"code"`
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	IsActive bool              `json:"is_active"`
}

type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) FindItem(ref types.ItemRef) (*CatalogItem, error) {
	switch ref.Kind {
	case types.ItemProduct:
		var p models.Product
		if err := r.db.Where("id = ?", ref.ID).Take(&p).Error; err != nil {
			return nil, notFound(err, "product", ref.ID)
		}
		return &CatalogItem{Ref: ref, Code: p.Code, Name: p.Name, BaseUom: p.BaseUom, MinQty: p.MinQty, IsActive: p.IsActive}, nil
	case types.ItemMaterial:
		var m models.Material
		if err := r.db.Where("id = ?", ref.ID).Take(&m).Error; err != nil {
			return nil, notFound(err, "material", ref.ID)
		}
		return &CatalogItem{Ref: ref, Code: m.Code, Name: m.Name, BaseUom: m.BaseUom, MinQty: m.MinQty, IsActive: m.IsActive}, nil
	default:
		return nil, &types.ValidationError{Field: "item", Reason: "unknown item kind " + string(ref.Kind)}
	}
}

// ItemLabels resolves many items at once for list enrichment. Missing items
// are left out of the result.
func (r *CatalogRepository) ItemLabels(refs []types.ItemRef) (map[types.ItemRef]CatalogItem, error) {
	var productIDs, materialIDs []types.SnowflakeID
	for _, ref := range refs {
		if ref.Kind == types.ItemProduct {
			productIDs = append(productIDs, ref.ID)
		} else {
			materialIDs = append(materialIDs, ref.ID)
		}
	}

	out := make(map[types.ItemRef]CatalogItem, len(refs))
	if len(productIDs) > 0 {
		var products []models.Product
		if err := r.db.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return nil, err
		}
		for _, p := range products {
			ref := types.ProductRef(p.ID)
			out[ref] = CatalogItem{Ref: ref, Code: p.Code, Name: p.Name, BaseUom: p.BaseUom, MinQty: p.MinQty, IsActive: p.IsActive}
		}
	}
	if len(materialIDs) > 0 {
		var materials []models.Material
		if err := r.db.Where("id IN ?", materialIDs).Find(&materials).Error; err != nil {
			return nil, err
		}
		for _, m := range materials {
			ref := types.MaterialRef(m.ID)
			out[ref] = CatalogItem{Ref: ref, Code: m.Code, Name: m.Name, BaseUom: m.BaseUom, MinQty: m.MinQty, IsActive: m.IsActive}
		}
	}
	return out, nil
}

func (r *CatalogRepository) FindWarehouse(id types.SnowflakeID) (*models.Warehouse, error) {
	var w models.Warehouse
	if err := r.db.Where("id = ?", id).Take(&w).Error; err != nil {
		return nil, notFound(err, "warehouse", id)
	}
	return &w, nil
}

func (r *CatalogRepository) FindBin(id types.SnowflakeID) (*models.Bin, error) {
	var b models.Bin
	if err := r.db.Where("id = ?", id).Take(&b).Error; err != nil {
		return nil, notFound(err, "bin", id)
	}
	return &b, nil
}

func (r *CatalogRepository) FindBinByCode(code string) (*models.Bin, error) {
	var b models.Bin
	if err := r.db.Where("code = ?", code).Take(&b).Error; err != nil {
		return nil, notFound(err, "bin", code)
	}
	return &b, nil
}

// ListBins returns the active bins of a warehouse ordered by code.
func (r *CatalogRepository) ListBins(warehouseID types.SnowflakeID) ([]models.Bin, error) {
	var bins []models.Bin
	err := r.db.Where("warehouse_id = ? AND is_active = ?", warehouseID, true).Order("code").Find(&bins).Error
	return bins, err
}

// PalletCapacities lists the capacities of the item on active pallet types.
func (r *CatalogRepository) PalletCapacities(item types.ItemRef) ([]models.PalletCapacity, error) {
	var caps []models.PalletCapacity
	err := r.db.Model(&models.PalletCapacity{}).
		Joins("JOIN pallet_types ON pallet_types.id = pallet_capacities.pallet_type_id").
		Where("pallet_capacities.item_kind = ? AND pallet_capacities.item_id = ? AND pallet_types.is_active = ?", item.Kind, item.ID, true).
		Order("pallet_capacities.capacity").
		Find(&caps).Error
	return caps, err
}

func (r *CatalogRepository) FindCounterparty(kind string, id types.SnowflakeID) (*Counterparty, error) {
	switch kind {
	case "vendor":
		var v models.Vendor
		if err := r.db.Where("id = ?", id).Take(&v).Error; err != nil {
			return nil, notFound(err, "vendor", id)
		}
		return &Counterparty{ID: v.ID, Kind: kind, Code: v.Code, Name: v.Name, Email: v.Email, IsActive: v.IsActive}, nil
	case "customer":
		var c models.Customer
		if err := r.db.Where("id = ?", id).Take(&c).Error; err != nil {
			return nil, notFound(err, "customer", id)
		}
		return &Counterparty{ID: c.ID, Kind: kind, Code: c.Code, Name: c.Name, Email: c.Email, IsActive: c.IsActive}, nil
	default:
		return nil, &types.ValidationError{Field: "counterparty", Reason: "unknown counterparty kind " + kind}
	}
}
