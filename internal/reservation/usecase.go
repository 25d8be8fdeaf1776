package reservation

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
)

// UseCase is the only component allowed to move reservedStock. Reserve is an
// atomic check-and-increment against the inventory ledger; Consume converts a
// hold into a single OUT movement.
type UseCase interface {
	Reserve(ctx context.Context, requestID, partID, storeID string, quantity int) (*model.StockReservation, error)
	Consume(ctx context.Context, reservationID, actorID string) (*model.StockMovement, error)
	Release(ctx context.Context, reservationID, reason string) error
	ActiveForRequest(ctx context.Context, requestID string) (*model.StockReservation, error)

	// ReleaseExpired sweeps expired active reservations, returning the count
	// released.
	ReleaseExpired(ctx context.Context, now time.Time) (int, error)
}
