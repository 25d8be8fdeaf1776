package reservation

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, res *model.StockReservation) error
	GetByID(ctx context.Context, id string) (*model.StockReservation, error)
	// GetActiveByRequest returns nil when the request holds no active reservation.
	GetActiveByRequest(ctx context.Context, requestID string) (*model.StockReservation, error)
	Update(ctx context.Context, res *model.StockReservation) error
	// Transition persists res only while the stored row still has status from,
	// wrapping apperrors.ErrInvalidTransition when another writer moved it first.
	Transition(ctx context.Context, res *model.StockReservation, from model.ReservationStatus) error
	ListExpired(ctx context.Context, now time.Time) ([]model.StockReservation, error)
}
