package model

import "github.com/shopspring/decimal"

// SparePart is the catalog read side of the engine. Pricing fields are
// snapshotted onto requests at creation/issuance; catalog CRUD lives elsewhere.
type SparePart struct {
	BaseModel
	CategoryID       *string         `db:"category_id" json:"category_id"`
	PartNumber       string          `db:"part_number" json:"part_number"`
	Name             string          `db:"name" json:"name"`
	Description      *string         `db:"description" json:"description"`
	UnitCost         decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	UnitSellingPrice decimal.Decimal `db:"unit_selling_price" json:"unit_selling_price"`
	MinimumStock     int             `db:"minimum_stock" json:"minimum_stock"`
	ReorderLevel     int             `db:"reorder_level" json:"reorder_level"`
	WarrantyMonths   int             `db:"warranty_months" json:"warranty_months"`
	IsActive         bool            `db:"is_active" json:"is_active"`
}
