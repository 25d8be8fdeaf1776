package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/model"
)

type MemoryRepository struct {
	mu           sync.RWMutex
	reservations map[string]model.StockReservation
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{reservations: make(map[string]model.StockReservation)}
}

func (r *MemoryRepository) Create(_ context.Context, res *model.StockReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reservations[res.ID] = *res
	return nil
}

func (r *MemoryRepository) GetByID(_ context.Context, id string) (*model.StockReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.reservations[id]
	if !ok {
		return nil, &apperrors.NotFoundError{Entity: "reservation", ID: id}
	}
	return &res, nil
}

func (r *MemoryRepository) GetActiveByRequest(_ context.Context, requestID string) (*model.StockReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, res := range r.reservations {
		if res.RequestID == requestID && res.Status == model.ReservationActive {
			match := res
			return &match, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) Update(_ context.Context, res *model.StockReservation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reservations[res.ID]; !ok {
		return &apperrors.NotFoundError{Entity: "reservation", ID: res.ID}
	}
	r.reservations[res.ID] = *res
	return nil
}

func (r *MemoryRepository) Transition(_ context.Context, res *model.StockReservation, from model.ReservationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.reservations[res.ID]
	if !ok {
		return &apperrors.NotFoundError{Entity: "reservation", ID: res.ID}
	}
	if stored.Status != from {
		return fmt.Errorf("reservation %s left status %s concurrently: %w", res.ID, from, apperrors.ErrInvalidTransition)
	}
	r.reservations[res.ID] = *res
	return nil
}

func (r *MemoryRepository) ListExpired(_ context.Context, now time.Time) ([]model.StockReservation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var items []model.StockReservation
	for _, res := range r.reservations {
		if res.IsExpiredAt(now) {
			items = append(items, res)
		}
	}
	return items, nil
}
