package repository

import (
	"context"
	"sync"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/shopspring/decimal"
)

// MemoryRepository holds limits and pre-set usage figures for tests.
type MemoryRepository struct {
	mu     sync.RWMutex
	limits map[string][]model.TechnicianLimit
	usage  map[string]decimal.Decimal
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		limits: make(map[string][]model.TechnicianLimit),
		usage:  make(map[string]decimal.Decimal),
	}
}

func (r *MemoryRepository) Seed(limits ...model.TechnicianLimit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range limits {
		r.limits[l.TechnicianID] = append(r.limits[l.TechnicianID], l)
	}
}

func (r *MemoryRepository) SetUsage(technicianID string, usage decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.usage[technicianID] = usage
}

func (r *MemoryRepository) ListActiveByTechnician(_ context.Context, technicianID string) ([]model.TechnicianLimit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var active []model.TechnicianLimit
	for _, l := range r.limits[technicianID] {
		if l.IsActive {
			active = append(active, l)
		}
	}
	return active, nil
}

func (r *MemoryRepository) PeriodUsage(_ context.Context, technicianID string, _ time.Time) (decimal.Decimal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.usage[technicianID], nil
}
