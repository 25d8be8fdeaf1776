package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/model"
)

type MemoryRepository struct {
	mu          sync.RWMutex
	history     []model.ApprovalHistory
	assignments map[string]model.RoleAssignment
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{assignments: make(map[string]model.RoleAssignment)}
}

func (r *MemoryRepository) AppendHistory(_ context.Context, h *model.ApprovalHistory) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.history = append(r.history, *h)
	return nil
}

func (r *MemoryRepository) ListHistoryByRequest(_ context.Context, requestID string) ([]model.ApprovalHistory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.ApprovalHistory
	for _, h := range r.history {
		if h.RequestID == requestID {
			items = append(items, h)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func (r *MemoryRepository) CreateAssignment(_ context.Context, a *model.RoleAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.assignments[a.ID] = *a
	return nil
}

func (r *MemoryRepository) GetAssignment(_ context.Context, id string) (*model.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.assignments[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "role assignment", ID: id}
	}
	return &a, nil
}

func (r *MemoryRepository) DeleteAssignment(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.assignments, id)
	return nil
}

func (r *MemoryRepository) ListAssignments(_ context.Context, role string) ([]model.RoleAssignment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.RoleAssignment
	for _, a := range r.assignments {
		if role == "" || a.Role == role {
			items = append(items, a)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}
