package inventory

import (
	"context"

	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
)

type Repository interface {
	// GetLevel returns nil when no level row exists yet for the key.
	GetLevel(ctx context.Context, partID, storeID string) (*model.InventoryLevel, error)
	CreateLevel(ctx context.Context, level *model.InventoryLevel) error

	// CommitLevel persists the mutated level guarded by its previous version,
	// failing with apperrors.ErrStaleState when the row moved underneath us.
	CommitLevel(ctx context.Context, level *model.InventoryLevel, prevVersion int) error

	// CommitMovement writes the mutated level and its movement row in one
	// transaction, with the same version guard as CommitLevel.
	CommitMovement(ctx context.Context, level *model.InventoryLevel, prevVersion int, movement *model.StockMovement) error

	ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error)
	ListLevels(ctx context.Context, f *dto.LevelFilters) ([]model.InventoryLevel, int, error)

	// SumMovements replays the ledger for one key from zero.
	SumMovements(ctx context.Context, partID, storeID string) (int, error)
}
