package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/inventory"
	invdto "github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/internal/reservation"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("reservation quantity must be positive")

type reservationUseCase struct {
	repo        reservation.Repository
	inventoryUC inventory.UseCase
	logger      logger.ZapLogger
	ttl         time.Duration
}

func NewReservationUseCase(repo reservation.Repository, invUC inventory.UseCase, log logger.ZapLogger, ttl time.Duration) reservation.UseCase {
	if ttl == 0 {
		ttl = 72 * time.Hour
	}
	return &reservationUseCase{
		repo:        repo,
		inventoryUC: invUC,
		logger:      log,
		ttl:         ttl,
	}
}

func (uc *reservationUseCase) Reserve(ctx context.Context, requestID, partID, storeID string, quantity int) (*model.StockReservation, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	existing, err := uc.repo.GetActiveByRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.ReservedQuantity >= quantity {
			return existing, nil
		}
		// Extend the existing hold by the shortfall only.
		delta := quantity - existing.ReservedQuantity
		if _, err := uc.inventoryUC.AdjustReserved(ctx, partID, storeID, delta); err != nil {
			return nil, err
		}
		now := time.Now()
		existing.ReservedQuantity = quantity
		existing.ExpiresAt = now.Add(uc.ttl)
		existing.UpdatedAt = now
		if err := uc.repo.Transition(ctx, existing, model.ReservationActive); err != nil {
			if _, undoErr := uc.inventoryUC.AdjustReserved(ctx, partID, storeID, -delta); undoErr != nil {
				uc.logger.Error("failed to undo reserved increment",
					zap.String("request_id", requestID), zap.Error(undoErr))
			}
			return nil, err
		}
		return existing, nil
	}

	// Check-and-increment happens inside AdjustReserved under the level lock.
	level, err := uc.inventoryUC.AdjustReserved(ctx, partID, storeID, quantity)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	res := &model.StockReservation{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		RequestID:        requestID,
		LevelID:          level.ID,
		SparePartID:      partID,
		StoreID:          storeID,
		ReservedQuantity: quantity,
		Status:           model.ReservationActive,
		ExpiresAt:        now.Add(uc.ttl),
	}
	if err := uc.repo.Create(ctx, res); err != nil {
		// Undo the increment so stock does not stay held by a ghost row.
		if _, undoErr := uc.inventoryUC.AdjustReserved(ctx, partID, storeID, -quantity); undoErr != nil {
			uc.logger.Error("failed to undo reserved increment",
				zap.String("request_id", requestID), zap.Error(undoErr))
		}
		return nil, err
	}

	uc.logger.Info("stock reserved",
		zap.String("request_id", requestID),
		zap.String("part_id", partID),
		zap.String("store_id", storeID),
		zap.Int("quantity", quantity),
	)
	return res, nil
}

func (uc *reservationUseCase) Consume(ctx context.Context, reservationID, actorID string) (*model.StockMovement, error) {
	res, err := uc.repo.GetByID(ctx, reservationID)
	if err != nil {
		return nil, err
	}
	if !res.IsActive() {
		return nil, &apperrors.InvalidTransitionError{
			RequestID: res.RequestID,
			From:      string(res.Status),
			Action:    "consume reservation",
		}
	}

	// Claim the reservation before touching stock so a concurrent consume
	// cannot issue the same hold twice.
	res.Status = model.ReservationConsumed
	res.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, res, model.ReservationActive); err != nil {
		return nil, err
	}

	// One OUT movement moves current and reserved stock down together.
	_, movement, err := uc.inventoryUC.ApplyMovement(ctx, &invdto.ApplyMovementInput{
		SparePartID:   res.SparePartID,
		StoreID:       res.StoreID,
		MovementType:  model.MovementOut,
		Quantity:      -res.ReservedQuantity,
		ReservedDelta: -res.ReservedQuantity,
		ReferenceType: "reservation",
		ReferenceID:   res.ID,
		Notes:         fmt.Sprintf("issued for request %s", res.RequestID),
		ActorID:       actorID,
	})
	if err != nil {
		uc.reopen(ctx, res)
		return nil, err
	}
	return movement, nil
}

func (uc *reservationUseCase) Release(ctx context.Context, reservationID, reason string) error {
	res, err := uc.repo.GetByID(ctx, reservationID)
	if err != nil {
		return err
	}
	if !res.IsActive() {
		return &apperrors.InvalidTransitionError{
			RequestID: res.RequestID,
			From:      string(res.Status),
			Action:    "release reservation",
		}
	}
	return uc.release(ctx, res, model.ReservationReleased, reason)
}

func (uc *reservationUseCase) ActiveForRequest(ctx context.Context, requestID string) (*model.StockReservation, error) {
	return uc.repo.GetActiveByRequest(ctx, requestID)
}

func (uc *reservationUseCase) ReleaseExpired(ctx context.Context, now time.Time) (int, error) {
	expired, err := uc.repo.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	released := 0
	for i := range expired {
		res := expired[i]
		if err := uc.release(ctx, &res, model.ReservationExpired, "reservation expired"); err != nil {
			uc.logger.Error("failed to release expired reservation",
				zap.String("reservation_id", res.ID), zap.Error(err))
			continue
		}
		released++
	}
	if released > 0 {
		uc.logger.Info("expired reservations released", zap.Int("count", released))
	}
	return released, nil
}

func (uc *reservationUseCase) release(ctx context.Context, res *model.StockReservation, status model.ReservationStatus, reason string) error {
	res.Status = status
	res.ReleaseReason = &reason
	res.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, res, model.ReservationActive); err != nil {
		return err
	}
	if _, err := uc.inventoryUC.AdjustReserved(ctx, res.SparePartID, res.StoreID, -res.ReservedQuantity); err != nil {
		uc.reopen(ctx, res)
		return err
	}
	return nil
}

// reopen puts a claimed reservation back to active after the stock side of
// its transition failed, so the hold is not lost.
func (uc *reservationUseCase) reopen(ctx context.Context, res *model.StockReservation) {
	res.Status = model.ReservationActive
	res.ReleaseReason = nil
	res.UpdatedAt = time.Now()
	if err := uc.repo.Update(ctx, res); err != nil {
		uc.logger.Error("failed to reopen reservation",
			zap.String("reservation_id", res.ID), zap.Error(err))
	}
}
