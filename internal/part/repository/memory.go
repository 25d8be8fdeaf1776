package repository

import (
	"context"
	"sync"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/model"
)

// MemoryRepository keeps the catalog in memory, for tests and local runs.
type MemoryRepository struct {
	mu    sync.RWMutex
	parts map[string]model.SparePart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{parts: make(map[string]model.SparePart)}
}

func (r *MemoryRepository) Seed(parts ...model.SparePart) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range parts {
		r.parts[p.ID] = p
	}
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*model.SparePart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parts[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "spare part", ID: id}
	}
	return &p, nil
}

func (r *MemoryRepository) ListActive(_ context.Context, _, _ int) ([]model.SparePart, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.SparePart
	for _, p := range r.parts {
		if p.IsActive {
			items = append(items, p)
		}
	}
	return items, len(items), nil
}
