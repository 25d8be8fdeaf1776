package model

import "time"

type MovementType string

const (
	MovementIn         MovementType = "IN"
	MovementOut        MovementType = "OUT"
	MovementTransfer   MovementType = "TRANSFER"
	MovementAdjustment MovementType = "ADJUSTMENT"
)

// InventoryLevel is the only shared mutable row in the engine, keyed by
// (spare_part_id, store_id). Version backs the optimistic-concurrency commit;
// available stock is always derived, never stored.
type InventoryLevel struct {
	ID            string    `db:"id" json:"id"`
	SparePartID   string    `db:"spare_part_id" json:"spare_part_id"`
	StoreID       string    `db:"store_id" json:"store_id"`
	CurrentStock  int       `db:"current_stock" json:"current_stock"`
	ReservedStock int       `db:"reserved_stock" json:"reserved_stock"`
	DamagedStock  int       `db:"damaged_stock" json:"damaged_stock"`
	Version       int       `db:"version" json:"version"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

func (l *InventoryLevel) AvailableStock() int {
	return l.CurrentStock - l.ReservedStock
}

// Key is the lock key for all mutations of this level.
func (l *InventoryLevel) Key() string {
	return LevelKey(l.SparePartID, l.StoreID)
}

func LevelKey(partID, storeID string) string {
	return partID + ":" + storeID
}

// StockMovement is one append-only ledger entry. NewStock = PreviousStock +
// Quantity, and equals the level's current stock at the moment of commit; the
// two rows are written in one transaction.
type StockMovement struct {
	ID            string       `db:"id" json:"id"`
	LevelID       string       `db:"level_id" json:"level_id"`
	SparePartID   string       `db:"spare_part_id" json:"spare_part_id"`
	StoreID       string       `db:"store_id" json:"store_id"`
	MovementType  MovementType `db:"movement_type" json:"movement_type"`
	Quantity      int          `db:"quantity" json:"quantity"`
	PreviousStock int          `db:"previous_stock" json:"previous_stock"`
	NewStock      int          `db:"new_stock" json:"new_stock"`
	ReferenceType *string      `db:"reference_type" json:"reference_type"`
	ReferenceID   *string      `db:"reference_id" json:"reference_id"`
	Notes         string       `db:"notes" json:"notes"`
	CreatedBy     *string      `db:"created_by" json:"created_by"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}
