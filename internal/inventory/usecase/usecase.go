package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/inventory"
	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/pkg/lock"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/fieldserve/parts-service/pkg/retry"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("movement quantity must not be zero")

// Options carry the concurrency knobs for ledger writes.
type Options struct {
	LockTTL       time.Duration
	RetryAttempts int
	RetryBackoff  time.Duration
}

type inventoryUseCase struct {
	repo    inventory.Repository
	locker  lock.Locker
	logger  logger.ZapLogger
	lockTTL time.Duration
	retry   retry.Policy
}

func NewInventoryUseCase(repo inventory.Repository, locker lock.Locker, log logger.ZapLogger, opts Options) inventory.UseCase {
	if opts.LockTTL == 0 {
		opts.LockTTL = 5 * time.Second
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = 3
	}
	return &inventoryUseCase{
		repo:    repo,
		locker:  locker,
		logger:  log,
		lockTTL: opts.LockTTL,
		retry: retry.Policy{
			MaxAttempts: opts.RetryAttempts,
			Backoff:     opts.RetryBackoff,
			Retryable: func(err error) bool {
				return errors.Is(err, apperrors.ErrStaleState)
			},
		},
	}
}

func (uc *inventoryUseCase) GetLevel(ctx context.Context, partID, storeID string) (*model.InventoryLevel, error) {
	level, err := uc.repo.GetLevel(ctx, partID, storeID)
	if err != nil {
		return nil, err
	}
	if level == nil {
		// Zero level for keys never stocked; not persisted until a movement.
		return &model.InventoryLevel{
			SparePartID: partID,
			StoreID:     storeID,
		}, nil
	}
	return level, nil
}

func (uc *inventoryUseCase) CheckAvailability(ctx context.Context, partID, storeID string, quantity int) (*dto.AvailabilityResult, error) {
	level, err := uc.GetLevel(ctx, partID, storeID)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityResult{
		Available:      level.AvailableStock() >= quantity,
		AvailableStock: level.AvailableStock(),
	}, nil
}

func (uc *inventoryUseCase) ApplyMovement(ctx context.Context, input *dto.ApplyMovementInput) (*model.InventoryLevel, *model.StockMovement, error) {
	if input.Quantity == 0 {
		return nil, nil, ErrInvalidQuantity
	}

	key := model.LevelKey(input.SparePartID, input.StoreID)
	release, err := uc.locker.Acquire(ctx, key, uc.lockTTL)
	if err != nil {
		return nil, nil, err
	}
	defer release()

	var (
		outLevel    *model.InventoryLevel
		outMovement *model.StockMovement
	)
	err = uc.retry.Do(ctx, func() error {
		level, err := uc.repo.GetLevel(ctx, input.SparePartID, input.StoreID)
		if err != nil {
			return err
		}
		if level == nil {
			if input.Quantity < 0 {
				return &apperrors.InsufficientStockError{
					PartID:    input.SparePartID,
					StoreID:   input.StoreID,
					Requested: -input.Quantity,
					Available: 0,
				}
			}
			level = &model.InventoryLevel{
				ID:          uuid.New().String(),
				SparePartID: input.SparePartID,
				StoreID:     input.StoreID,
			}
			if err := uc.repo.CreateLevel(ctx, level); err != nil {
				return err
			}
		}

		previous := level.CurrentStock
		newStock := previous + input.Quantity
		if newStock < 0 {
			return &apperrors.InsufficientStockError{
				PartID:    input.SparePartID,
				StoreID:   input.StoreID,
				Requested: -input.Quantity,
				Available: previous,
			}
		}

		newReserved := level.ReservedStock + input.ReservedDelta
		if newReserved < 0 {
			// A hold larger than what is reserved means a double consume or
			// release slipped past the caller; fail loudly instead of absorbing it.
			return fmt.Errorf("reserved stock for %s would go negative: %w", key, apperrors.ErrInvalidTransition)
		}
		if newReserved > newStock {
			return &apperrors.InsufficientStockError{
				PartID:    input.SparePartID,
				StoreID:   input.StoreID,
				Requested: newReserved,
				Available: newStock,
			}
		}

		newDamaged := level.DamagedStock + input.DamagedDelta
		if newDamaged < 0 {
			newDamaged = 0
		}

		now := time.Now()
		movement := &model.StockMovement{
			ID:            uuid.New().String(),
			LevelID:       level.ID,
			SparePartID:   input.SparePartID,
			StoreID:       input.StoreID,
			MovementType:  input.MovementType,
			Quantity:      input.Quantity,
			PreviousStock: previous,
			NewStock:      newStock,
			Notes:         input.Notes,
			CreatedAt:     now,
		}
		if input.ReferenceType != "" {
			refType := input.ReferenceType
			movement.ReferenceType = &refType
		}
		if input.ReferenceID != "" {
			refID := input.ReferenceID
			movement.ReferenceID = &refID
		}
		if input.ActorID != "" {
			actor := input.ActorID
			movement.CreatedBy = &actor
		}

		prevVersion := level.Version
		level.CurrentStock = newStock
		level.ReservedStock = newReserved
		level.DamagedStock = newDamaged
		level.Version = prevVersion + 1
		level.UpdatedAt = now

		if err := uc.repo.CommitMovement(ctx, level, prevVersion, movement); err != nil {
			return err
		}
		outLevel = level
		outMovement = movement
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			uc.logger.Warn("stock commit kept conflicting",
				zap.String("key", key), zap.Int("attempts", uc.retry.MaxAttempts))
			return nil, nil, &apperrors.StaleStateError{Key: key, Attempts: uc.retry.MaxAttempts}
		}
		return nil, nil, err
	}

	uc.logger.Debug("stock movement committed",
		zap.String("key", key),
		zap.String("type", string(input.MovementType)),
		zap.Int("quantity", input.Quantity),
		zap.Int("new_stock", outLevel.CurrentStock),
	)
	return outLevel, outMovement, nil
}

func (uc *inventoryUseCase) AdjustReserved(ctx context.Context, partID, storeID string, delta int) (*model.InventoryLevel, error) {
	key := model.LevelKey(partID, storeID)
	release, err := uc.locker.Acquire(ctx, key, uc.lockTTL)
	if err != nil {
		return nil, err
	}
	defer release()

	var outLevel *model.InventoryLevel
	err = uc.retry.Do(ctx, func() error {
		level, err := uc.repo.GetLevel(ctx, partID, storeID)
		if err != nil {
			return err
		}
		if level == nil {
			if delta > 0 {
				return &apperrors.InsufficientStockError{
					PartID:    partID,
					StoreID:   storeID,
					Requested: delta,
					Available: 0,
				}
			}
			return &apperrors.NotFoundError{Entity: "inventory level", ID: key}
		}

		if delta > 0 && level.AvailableStock() < delta {
			return &apperrors.InsufficientStockError{
				PartID:    partID,
				StoreID:   storeID,
				Requested: delta,
				Available: level.AvailableStock(),
			}
		}

		newReserved := level.ReservedStock + delta
		if newReserved < 0 {
			return fmt.Errorf("reserved stock for %s would go negative: %w", key, apperrors.ErrInvalidTransition)
		}

		prevVersion := level.Version
		level.ReservedStock = newReserved
		level.Version = prevVersion + 1
		level.UpdatedAt = time.Now()

		if err := uc.repo.CommitLevel(ctx, level, prevVersion); err != nil {
			return err
		}
		outLevel = level
		return nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrStaleState) {
			return nil, &apperrors.StaleStateError{Key: key, Attempts: uc.retry.MaxAttempts}
		}
		return nil, err
	}
	return outLevel, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	return uc.repo.ListMovements(ctx, f)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, storeID string, page, pageSize int) ([]model.InventoryLevel, int, error) {
	return uc.repo.ListLevels(ctx, &dto.LevelFilters{
		StoreID:  storeID,
		LowStock: true,
		Page:     page,
		PageSize: pageSize,
	})
}

func (uc *inventoryUseCase) ReplayBalance(ctx context.Context, partID, storeID string) (int, error) {
	return uc.repo.SumMovements(ctx, partID, storeID)
}
