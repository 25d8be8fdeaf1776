package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/inventory"
	invdto "github.com/fieldserve/parts-service/internal/inventory/dto"
	invrepo "github.com/fieldserve/parts-service/internal/inventory/repository"
	invusecase "github.com/fieldserve/parts-service/internal/inventory/usecase"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/internal/reservation"
	"github.com/fieldserve/parts-service/internal/reservation/repository"
	"github.com/fieldserve/parts-service/pkg/lock"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	invUC  inventory.UseCase
	resvUC reservation.UseCase
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	invUC := invusecase.NewInventoryUseCase(invrepo.NewMemoryRepository(), lock.NewMemoryLocker(), logger.NewNop(), invusecase.Options{})
	resvUC := NewReservationUseCase(repository.NewMemoryRepository(), invUC, logger.NewNop(), ttl)
	return &fixture{invUC: invUC, resvUC: resvUC}
}

func (f *fixture) stockIn(t *testing.T, partID, storeID string, qty int) {
	t.Helper()
	_, _, err := f.invUC.ApplyMovement(context.Background(), &invdto.ApplyMovementInput{
		SparePartID:  partID,
		StoreID:      storeID,
		MovementType: model.MovementIn,
		Quantity:     qty,
	})
	require.NoError(t, err)
}

func TestReserve_HoldsStock(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	res, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationActive, res.Status)
	assert.Equal(t, 4, res.ReservedQuantity)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 10, level.CurrentStock)
	assert.Equal(t, 4, level.ReservedStock)
	assert.Equal(t, 6, level.AvailableStock())
}

func TestReserve_InsufficientStockFailsFast(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 3)

	_, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 10)
	require.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	var ise *apperrors.InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, 7, ise.Shortfall())

	// Nothing may remain held after a failed reserve.
	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.ReservedStock)
}

func TestReserve_IdempotentForCoveringHold(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	first, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)

	second, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 4, level.ReservedStock)
}

func TestReserve_ExtendsShortHoldByDelta(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	first, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 3)
	require.NoError(t, err)

	extended, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 5)
	require.NoError(t, err)
	assert.Equal(t, first.ID, extended.ID)
	assert.Equal(t, 5, extended.ReservedQuantity)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 5, level.ReservedStock)
}

func TestReserve_NoOversellingUnderConcurrency(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 5)

	// Two concurrent 5-unit reserves against 5 available: exactly one wins.
	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.resvUC.Reserve(ctx, "req-"+string(rune('a'+i)), "part-1", "store-1", 5)
		}(i)
	}
	wg.Wait()

	succeeded, failed := 0, 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInsufficientStock)
			failed++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 5, level.ReservedStock)
}

func TestConsume_MovesCurrentAndReservedTogether(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	res, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)

	movement, err := f.resvUC.Consume(ctx, res.ID, "tech-1")
	require.NoError(t, err)
	assert.Equal(t, model.MovementOut, movement.MovementType)
	assert.Equal(t, -4, movement.Quantity)
	assert.Equal(t, 10, movement.PreviousStock)
	assert.Equal(t, 6, movement.NewStock)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 6, level.CurrentStock)
	assert.Equal(t, 0, level.ReservedStock)

	// Consuming twice is an invalid transition.
	_, err = f.resvUC.Consume(ctx, res.ID, "tech-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestConsume_ConcurrentCallsIssueOnce(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	res, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)

	// Only one caller may turn the hold into an OUT movement; the rest fail
	// on the status guard instead of draining stock again.
	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.resvUC.Consume(ctx, res.ID, "tech-1")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, succeeded)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 6, level.CurrentStock)
	assert.Equal(t, 0, level.ReservedStock)

	replayed, err := f.invUC.ReplayBalance(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 6, replayed)
}

func TestRelease_ReturnsHoldToAvailable(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	res, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 4)
	require.NoError(t, err)

	require.NoError(t, f.resvUC.Release(ctx, res.ID, "request rejected"))

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.ReservedStock)
	assert.Equal(t, 10, level.AvailableStock())

	active, err := f.resvUC.ActiveForRequest(ctx, "req-1")
	require.NoError(t, err)
	assert.Nil(t, active)

	assert.ErrorIs(t, f.resvUC.Release(ctx, res.ID, "again"), apperrors.ErrInvalidTransition)
}

func TestReleaseExpired_SweepsOnlyExpiredHolds(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 10)

	_, err := f.resvUC.Reserve(ctx, "req-1", "part-1", "store-1", 3)
	require.NoError(t, err)
	_, err = f.resvUC.Reserve(ctx, "req-2", "part-1", "store-1", 2)
	require.NoError(t, err)

	// Nothing has expired yet.
	released, err := f.resvUC.ReleaseExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, released)

	released, err = f.resvUC.ReleaseExpired(ctx, time.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, released)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.ReservedStock)
}

func TestReservedStockInvariant_UnderConcurrentTraffic(t *testing.T) {
	f := newFixture(t, time.Hour)
	ctx := context.Background()
	f.stockIn(t, "part-1", "store-1", 50)

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reqID := "req-" + string(rune('a'+i))
			res, err := f.resvUC.Reserve(ctx, reqID, "part-1", "store-1", 3)
			if err != nil {
				return
			}
			if i%2 == 0 {
				_, _ = f.resvUC.Consume(ctx, res.ID, "tech")
			} else {
				_ = f.resvUC.Release(ctx, res.ID, "test release")
			}
		}(i)
	}
	wg.Wait()

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, level.ReservedStock, 0)
	assert.LessOrEqual(t, level.ReservedStock, level.CurrentStock)
	assert.Equal(t, 0, level.ReservedStock)

	replayed, err := f.invUC.ReplayBalance(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, level.CurrentStock, replayed)
}

func TestReserve_RejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t, time.Hour)

	_, err := f.resvUC.Reserve(context.Background(), "req-1", "part-1", "store-1", 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}
