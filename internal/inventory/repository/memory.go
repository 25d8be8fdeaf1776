package repository

import (
	"context"
	"sync"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
)

// MemoryRepository is an in-memory ledger store with the same version-guard
// semantics as the postgres implementation, for tests and local runs.
type MemoryRepository struct {
	mu        sync.RWMutex
	levels    map[string]model.InventoryLevel // keyed by level id
	byKey     map[string]string               // (part:store) -> level id
	movements []model.StockMovement
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		levels: make(map[string]model.InventoryLevel),
		byKey:  make(map[string]string),
	}
}

func (r *MemoryRepository) GetLevel(_ context.Context, partID, storeID string) (*model.InventoryLevel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byKey[model.LevelKey(partID, storeID)]
	if !ok {
		return nil, nil
	}
	level := r.levels[id]
	return &level, nil
}

func (r *MemoryRepository) CreateLevel(_ context.Context, level *model.InventoryLevel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.levels[level.ID] = *level
	r.byKey[level.Key()] = level.ID
	return nil
}

func (r *MemoryRepository) CommitLevel(_ context.Context, level *model.InventoryLevel, prevVersion int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.commitLocked(level, prevVersion)
}

func (r *MemoryRepository) CommitMovement(_ context.Context, level *model.InventoryLevel, prevVersion int, movement *model.StockMovement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.commitLocked(level, prevVersion); err != nil {
		return err
	}
	r.movements = append(r.movements, *movement)
	return nil
}

func (r *MemoryRepository) commitLocked(level *model.InventoryLevel, prevVersion int) error {
	current, ok := r.levels[level.ID]
	if !ok || current.Version != prevVersion {
		return &apperrors.StaleStateError{Key: level.Key(), Attempts: 1}
	}
	r.levels[level.ID] = *level
	return nil
}

func (r *MemoryRepository) ListMovements(_ context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.StockMovement
	for _, m := range r.movements {
		if f.SparePartID != "" && m.SparePartID != f.SparePartID {
			continue
		}
		if f.StoreID != "" && m.StoreID != f.StoreID {
			continue
		}
		if f.MovementType != "" && string(m.MovementType) != f.MovementType {
			continue
		}
		items = append(items, m)
	}
	return items, len(items), nil
}

func (r *MemoryRepository) ListLevels(_ context.Context, f *dto.LevelFilters) ([]model.InventoryLevel, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.InventoryLevel
	for _, l := range r.levels {
		if f.SparePartID != "" && l.SparePartID != f.SparePartID {
			continue
		}
		if f.StoreID != "" && l.StoreID != f.StoreID {
			continue
		}
		items = append(items, l)
	}
	return items, len(items), nil
}

func (r *MemoryRepository) SumMovements(_ context.Context, partID, storeID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, m := range r.movements {
		if m.SparePartID == partID && m.StoreID == storeID {
			total += m.Quantity
		}
	}
	return total, nil
}
