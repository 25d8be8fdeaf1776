package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/model"
)

// MemoryRepository backs the usecase tests without a database.
type MemoryRepository struct {
	mu        sync.RWMutex
	requests  map[string]model.SparePartRequest
	installed []model.InstalledPart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{requests: make(map[string]model.SparePartRequest)}
}

func (r *MemoryRepository) Create(ctx context.Context, req *model.SparePartRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*model.SparePartRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "part request", ID: id}
	}
	out := req
	return &out, nil
}

func (r *MemoryRepository) Transition(ctx context.Context, req *model.SparePartRequest, from model.RequestStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.requests[req.ID]
	if !ok {
		return &apperrors.NotFoundError{Entity: "part request", ID: req.ID}
	}
	if stored.Status != from {
		return fmt.Errorf("part request %s left status %s concurrently: %w", req.ID, from, apperrors.ErrInvalidTransition)
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *MemoryRepository) ListByService(ctx context.Context, serviceRequestID string) ([]model.SparePartRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.SparePartRequest
	for _, req := range r.requests {
		if req.ServiceRequestID == serviceRequestID {
			items = append(items, req)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *MemoryRepository) ListByTechnician(ctx context.Context, technicianID string) ([]model.SparePartRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.SparePartRequest
	for _, req := range r.requests {
		if req.TechnicianID == technicianID {
			items = append(items, req)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *MemoryRepository) CreateInstalledPart(ctx context.Context, part *model.InstalledPart) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.installed = append(r.installed, *part)
	return nil
}

func (r *MemoryRepository) ListInstalledByService(ctx context.Context, serviceRequestID string) ([]model.InstalledPart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.InstalledPart
	for _, p := range r.installed {
		if p.ServiceRequestID == serviceRequestID {
			items = append(items, p)
		}
	}
	return items, nil
}
