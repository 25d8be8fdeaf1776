package dto

import "github.com/fieldserve/parts-service/internal/model"

// ApplyMovementInput describes one ledger mutation. Quantity is signed: IN and
// positive adjustments carry a positive quantity, OUT a negative one.
// ReservedDelta and DamagedDelta ride on the same atomic commit so that
// consumption can decrement current and reserved stock together.
type ApplyMovementInput struct {
	SparePartID   string
	StoreID       string
	MovementType  model.MovementType
	Quantity      int
	ReservedDelta int
	DamagedDelta  int
	ReferenceType string
	ReferenceID   string
	Notes         string
	ActorID       string
}
