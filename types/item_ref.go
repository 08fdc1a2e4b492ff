package types

import (
	"fmt"
	"strings"
)

type ItemKind string

const (
	ItemProduct  ItemKind = "product"
	ItemMaterial ItemKind = "material"
)

// ItemRef points at exactly one catalog item: a Product or a Material.
// The zero value is invalid.
type ItemRef struct {
	Kind ItemKind    `json:"kind"`
	ID   SnowflakeID `json:"id"`
}

func ProductRef(id SnowflakeID) ItemRef  { return ItemRef{Kind: ItemProduct, ID: id} }
func MaterialRef(id SnowflakeID) ItemRef { return ItemRef{Kind: ItemMaterial, ID: id} }

func (r ItemRef) IsZero() bool { return r.ID == 0 || r.Kind == "" }

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// NewItemRef builds a reference from the two optional payload fields.
// Exactly one of them must be present.
func NewItemRef(productID, materialID string) (ItemRef, error) {
	productID = strings.TrimSpace(productID)
	materialID = strings.TrimSpace(materialID)

	switch {
	case productID != "" && materialID != "":
		return ItemRef{}, &ValidationError{Field: "product_id/material_id", Reason: "only one of product_id or material_id may be set"}
	case productID == "" && materialID == "":
		return ItemRef{}, &ValidationError{Field: "product_id/material_id", Reason: "one of product_id or material_id is required"}
	case productID != "":
		id, err := ParseSnowflakeID(productID)
		if err != nil {
			return ItemRef{}, &ValidationError{Field: "product_id", Reason: fmt.Sprintf("%q is not a valid id", productID)}
		}
		return ProductRef(id), nil
	default:
		id, err := ParseSnowflakeID(materialID)
		if err != nil {
			return ItemRef{}, &ValidationError{Field: "material_id", Reason: fmt.Sprintf("%q is not a valid id", materialID)}
		}
		return MaterialRef(id), nil
	}
}
