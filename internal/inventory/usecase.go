package inventory

import (
	"context"

	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
)

type UseCase interface {
	// GetLevel returns a zero-valued level when none exists yet.
	GetLevel(ctx context.Context, partID, storeID string) (*model.InventoryLevel, error)
	CheckAvailability(ctx context.Context, partID, storeID string, quantity int) (*dto.AvailabilityResult, error)

	// ApplyMovement is the single write path for current stock. It locks the
	// (part, store) key, recomputes the level and commits level plus movement
	// atomically, retrying stale commits per the configured policy.
	ApplyMovement(ctx context.Context, input *dto.ApplyMovementInput) (*model.InventoryLevel, *model.StockMovement, error)

	// AdjustReserved mutates reserved stock without touching current stock.
	// Only the reservation manager calls this.
	AdjustReserved(ctx context.Context, partID, storeID string, delta int) (*model.InventoryLevel, error)

	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListLowStock(ctx context.Context, storeID string, page, pageSize int) ([]model.InventoryLevel, int, error)

	// ReplayBalance recomputes the current stock for a key from its movement
	// history alone.
	ReplayBalance(ctx context.Context, partID, storeID string) (int, error)
}
