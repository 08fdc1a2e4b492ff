package models

import (
	"fulfillment-wms/controllers/idgen"
	"fulfillment-wms/types"
	"time"
)

// Audit carries who/when columns shared by every document table.
type Audit struct {
	CreatedAt time.Time `json:"created_at"`
	CreatedBy int64     `json:"created_by"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy int64     `json:"updated_by"`
}

func assignID(id *types.SnowflakeID) {
	if *id == 0 {
		*id = types.SnowflakeID(idgen.GenerateID())
	}
}
