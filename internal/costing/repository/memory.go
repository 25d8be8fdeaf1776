package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/fieldserve/parts-service/internal/model"
)

type MemoryRepository struct {
	mu         sync.RWMutex
	breakdowns map[string]model.ServiceCostBreakdown
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{breakdowns: make(map[string]model.ServiceCostBreakdown)}
}

func (r *MemoryRepository) GetByService(ctx context.Context, serviceRequestID string) (*model.ServiceCostBreakdown, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.breakdowns[serviceRequestID]
	if !ok {
		return nil, nil
	}
	out := b
	return &out, nil
}

func (r *MemoryRepository) Create(ctx context.Context, b *model.ServiceCostBreakdown) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.breakdowns[b.ServiceRequestID]; ok {
		return fmt.Errorf("breakdown for service %s already exists", b.ServiceRequestID)
	}
	r.breakdowns[b.ServiceRequestID] = *b
	return nil
}
