package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	approvalrepo "github.com/fieldserve/parts-service/internal/approval/repository"
	approvalusecase "github.com/fieldserve/parts-service/internal/approval/usecase"
	"github.com/fieldserve/parts-service/internal/inventory"
	invdto "github.com/fieldserve/parts-service/internal/inventory/dto"
	invrepo "github.com/fieldserve/parts-service/internal/inventory/repository"
	invusecase "github.com/fieldserve/parts-service/internal/inventory/usecase"
	limitsrepo "github.com/fieldserve/parts-service/internal/limits/repository"
	limitsusecase "github.com/fieldserve/parts-service/internal/limits/usecase"
	"github.com/fieldserve/parts-service/internal/model"
	partrepo "github.com/fieldserve/parts-service/internal/part/repository"
	"github.com/fieldserve/parts-service/internal/request"
	"github.com/fieldserve/parts-service/internal/request/dto"
	requestrepo "github.com/fieldserve/parts-service/internal/request/repository"
	resvrepo "github.com/fieldserve/parts-service/internal/reservation/repository"
	resvusecase "github.com/fieldserve/parts-service/internal/reservation/usecase"
	"github.com/fieldserve/parts-service/pkg/lock"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type engineFixture struct {
	uc       request.UseCase
	invUC    inventory.UseCase
	parts    *partrepo.MemoryRepository
	limits   *limitsrepo.MemoryRepository
	requests *requestrepo.MemoryRepository
	events   *capturingPublisher
}

type capturingPublisher struct {
	mu     sync.Mutex
	events []request.Event
}

func (p *capturingPublisher) Publish(_ context.Context, _ string, event any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := event.(*request.Event); ok {
		p.events = append(p.events, *e)
	}
	return nil
}

func (p *capturingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType
	}
	return out
}

func newEngine(t *testing.T) *engineFixture {
	t.Helper()
	log := logger.NewNop()

	invUC := invusecase.NewInventoryUseCase(invrepo.NewMemoryRepository(), lock.NewMemoryLocker(), log, invusecase.Options{})
	resvUC := resvusecase.NewReservationUseCase(resvrepo.NewMemoryRepository(), invUC, log, time.Hour)

	limitsRepo := limitsrepo.NewMemoryRepository()
	limitsUC := limitsusecase.NewLimitsUseCase(limitsRepo, log)

	approvalUC := approvalusecase.NewApprovalUseCase(approvalrepo.NewMemoryRepository(), log)

	parts := partrepo.NewMemoryRepository()
	requests := requestrepo.NewMemoryRepository()
	events := &capturingPublisher{}

	uc := NewRequestUseCase(requests, parts, invUC, resvUC, limitsUC, approvalUC, events, log)
	return &engineFixture{
		uc:       uc,
		invUC:    invUC,
		parts:    parts,
		limits:   limitsRepo,
		requests: requests,
		events:   events,
	}
}

func (f *engineFixture) seedPart(id string, cost, price int64) {
	f.parts.Seed(model.SparePart{
		BaseModel:        model.BaseModel{ID: id},
		PartNumber:       "PN-" + id,
		Name:             "Part " + id,
		UnitCost:         decimal.NewFromInt(cost),
		UnitSellingPrice: decimal.NewFromInt(price),
		WarrantyMonths:   6,
		IsActive:         true,
	})
}

func (f *engineFixture) seedAutoApproveLimit(techID string, below int64) {
	f.limits.Seed(model.TechnicianLimit{
		BaseModel:          model.BaseModel{ID: "limit-" + techID},
		TechnicianID:       techID,
		MaxValuePerRequest: decimal.NewFromInt(100000),
		AutoApproveBelow:   decimal.NewFromInt(below),
		ApproverLevel:      1,
		IsActive:           true,
	})
}

func (f *engineFixture) stockIn(t *testing.T, partID, storeID string, qty int) {
	t.Helper()
	_, _, err := f.invUC.ApplyMovement(context.Background(), &invdto.ApplyMovementInput{
		SparePartID:  partID,
		StoreID:      storeID,
		MovementType: model.MovementIn,
		Quantity:     qty,
	})
	require.NoError(t, err)
}

func createInput(qty int) *dto.CreatePartRequestInput {
	return &dto.CreatePartRequestInput{
		ServiceRequestID:  "svc-1",
		SparePartID:       "part-1",
		StoreID:           "store-1",
		TechnicianID:      "tech-1",
		RequestedQuantity: qty,
		Justification:     "replacement needed",
	}
}

// Part costs 50 and sells at 75; two units (value 150) under an
// auto-approve-below-200 ceiling approve themselves, hold 2 units, and issue
// as one OUT movement of -2.
func TestLifecycle_AutoApproveReserveIssue(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 200)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(2))
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, req.Status)
	assert.Equal(t, 0, req.ApprovalLevel)
	assert.True(t, req.EstimatedCost.Equal(decimal.NewFromInt(150)))

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 2, level.ReservedStock)

	history, err := f.uc.ApprovalHistory(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "system", history[0].ApproverID)
	assert.Equal(t, 0, history[0].Level)

	issued, err := f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestIssued, issued.Status)
	assert.Equal(t, 2, issued.IssuedQuantity)
	assert.True(t, issued.IssuedCost.Equal(decimal.NewFromInt(100)))

	level, err = f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 8, level.CurrentStock)
	assert.Equal(t, 0, level.ReservedStock)

	movements, _, err := f.invUC.ListMovements(ctx, &invdto.MovementFilters{
		SparePartID:  "part-1",
		StoreID:      "store-1",
		MovementType: string(model.MovementOut),
	})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -2, movements[0].Quantity)

	assert.Equal(t, []string{request.EventRequestCreated, request.EventStockIssued}, f.events.types())
}

// Racing storekeepers on one approved request: a single OUT movement leaves
// the shelf, everyone else loses on the status guard.
func TestIssue_ConcurrentCallsDrainStockOnce(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 200)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(2))
	require.NoError(t, err)
	require.Equal(t, model.RequestApproved, req.Status)

	const callers = 6
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.uc.Issue(ctx, req.ID, "storekeeper-1")
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
	assert.Equal(t, 8, level.CurrentStock)
	assert.Equal(t, 0, level.ReservedStock)

	movements, _, err := f.invUC.ListMovements(ctx, &invdto.MovementFilters{
		SparePartID:  "part-1",
		StoreID:      "store-1",
		MovementType: string(model.MovementOut),
	})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, -2, movements[0].Quantity)
}

// Ten units against three available: the request survives, but nothing can be
// issued until stock arrives.
func TestLifecycle_ShortfallKeepsRequestOpen(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.stockIn(t, "part-1", "store-1", 3)

	req, err := f.uc.Create(ctx, createInput(10))
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Equal(t, 1, req.ApprovalLevel)

	approved, err := f.uc.Approve(ctx, &dto.DecisionInput{
		RequestID:    req.ID,
		ApproverID:   "mgr-1",
		ApproverRank: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestApproved, approved.Status)
	assert.Contains(t, approved.Notes, "insufficient stock")

	// No hold was placed; available stock is untouched.
	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.ReservedStock)

	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.ErrorIs(t, err, apperrors.ErrInsufficientStock)

	// More stock arrives; issuing now succeeds.
	f.stockIn(t, "part-1", "store-1", 7)
	issued, err := f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)
	assert.Equal(t, model.RequestIssued, issued.Status)

	level, err = f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 0, level.CurrentStock)
}

func TestCreate_AutoApproveBlockedByShortfallStaysPending(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 200)
	f.stockIn(t, "part-1", "store-1", 1)

	req, err := f.uc.Create(ctx, createInput(2))
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, req.Status)
	assert.Contains(t, req.Notes, "insufficient stock")

	// No system approval row was written for the blocked auto-approval.
	history, err := f.uc.ApprovalHistory(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestApprove_RankBelowRequiredLevelFails(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.limits.Seed(model.TechnicianLimit{
		BaseModel:          model.BaseModel{ID: "limit-1"},
		TechnicianID:       "tech-1",
		MaxValuePerRequest: decimal.NewFromInt(100),
		ApproverLevel:      2,
		IsActive:           true,
	})
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(2)) // value 150 > 100
	require.NoError(t, err)
	assert.Equal(t, 2, req.ApprovalLevel)

	_, err = f.uc.Approve(ctx, &dto.DecisionInput{
		RequestID:    req.ID,
		ApproverID:   "supervisor-1",
		ApproverRank: 1,
	})
	require.ErrorIs(t, err, apperrors.ErrLimitExceeded)

	unchanged, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPending, unchanged.Status)

	_, err = f.uc.Approve(ctx, &dto.DecisionInput{
		RequestID:    req.ID,
		ApproverID:   "mgr-1",
		ApproverRank: 2,
	})
	require.NoError(t, err)
}

func TestReject_ReleasesNothingAndTerminates(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(2))
	require.NoError(t, err)

	rejected, err := f.uc.Reject(ctx, &dto.DecisionInput{
		RequestID:    req.ID,
		ApproverID:   "mgr-1",
		ApproverRank: 1,
		Comments:     "not justified",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestRejected, rejected.Status)

	history, err := f.uc.ApprovalHistory(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DecisionRejected, history[0].Decision)
}

func TestStateMachine_TerminalStatesAreClosed(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 1000)
	f.stockIn(t, "part-1", "store-1", 20)

	// Rejected stays rejected.
	pending, err := f.uc.Create(ctx, &dto.CreatePartRequestInput{
		ServiceRequestID:  "svc-closed",
		SparePartID:       "part-1",
		StoreID:           "store-1",
		TechnicianID:      "tech-other",
		RequestedQuantity: 1,
	})
	require.NoError(t, err)
	_, err = f.uc.Reject(ctx, &dto.DecisionInput{RequestID: pending.ID, ApproverID: "mgr-1", ApproverRank: 3})
	require.NoError(t, err)

	decision := &dto.DecisionInput{RequestID: pending.ID, ApproverID: "mgr-1", ApproverRank: 3}
	_, err = f.uc.Approve(ctx, decision)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = f.uc.Reject(ctx, decision)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = f.uc.Issue(ctx, pending.ID, "storekeeper-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	// Installed stays installed.
	req, err := f.uc.Create(ctx, createInput(2))
	require.NoError(t, err)
	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)
	_, err = f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         2,
	})
	require.NoError(t, err)

	installed, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestInstalled, installed.Status)
	assert.True(t, installed.Status.IsTerminal())

	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	_, err = f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         1,
	})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = f.uc.ReturnParts(ctx, "svc-1", []dto.ReturnItem{{SparePartID: "part-1", Quantity: 1, TechnicianID: "tech-1"}})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestInstall_PartialThenComplete(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 1000)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(5))
	require.NoError(t, err)
	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)

	installed, err := f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         2,
	})
	require.NoError(t, err)
	assert.True(t, installed.UnitCost.Equal(decimal.NewFromInt(50)))
	assert.True(t, installed.UnitPrice.Equal(decimal.NewFromInt(75)))
	assert.Equal(t, 6, installed.WarrantyMonths)
	require.NotNil(t, installed.WarrantyExpiry)

	partial, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestPartiallyInstalled, partial.Status)
	assert.Equal(t, 3, partial.OutstandingIssued())

	// Installing more than what remains outstanding is rejected.
	_, err = f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         4,
	})
	assert.ErrorIs(t, err, ErrQuantityExceedsIssued)

	_, err = f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         3,
	})
	require.NoError(t, err)

	complete, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestInstalled, complete.Status)
}

func TestReturnParts_CreditsStockAndTerminates(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 1000)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(4))
	require.NoError(t, err)
	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)

	movements, err := f.uc.ReturnParts(ctx, "svc-1", []dto.ReturnItem{{
		SparePartID:  "part-1",
		Quantity:     4,
		Condition:    dto.ConditionGood,
		Reason:       "not needed",
		TechnicianID: "tech-1",
	}})
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, model.MovementIn, movements[0].MovementType)
	assert.Equal(t, 4, movements[0].Quantity)

	returned, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestReturned, returned.Status)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 10, level.CurrentStock)
	assert.Equal(t, 0, level.DamagedStock)
}

func TestReturnParts_DamagedUnitsTracked(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 1000)
	f.stockIn(t, "part-1", "store-1", 10)

	req, err := f.uc.Create(ctx, createInput(3))
	require.NoError(t, err)
	_, err = f.uc.Issue(ctx, req.ID, "storekeeper-1")
	require.NoError(t, err)

	_, err = f.uc.Install(ctx, &dto.InstallPartInput{
		ServiceRequestID: "svc-1",
		SparePartID:      "part-1",
		TechnicianID:     "tech-1",
		Quantity:         1,
	})
	require.NoError(t, err)

	_, err = f.uc.ReturnParts(ctx, "svc-1", []dto.ReturnItem{{
		SparePartID:  "part-1",
		Quantity:     2,
		Condition:    dto.ConditionDamaged,
		Reason:       "damaged in transit",
		TechnicianID: "tech-1",
	}})
	require.NoError(t, err)

	level, err := f.invUC.GetLevel(ctx, "part-1", "store-1")
	require.NoError(t, err)
	assert.Equal(t, 9, level.CurrentStock)
	assert.Equal(t, 2, level.DamagedStock)

	// One installed plus two returned closes the request as installed.
	closed, err := f.uc.GetByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestInstalled, closed.Status)
}

func TestCreate_RejectsUnknownAndInactiveParts(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()

	_, err := f.uc.Create(ctx, createInput(1))
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	f.parts.Seed(model.SparePart{
		BaseModel:        model.BaseModel{ID: "part-1"},
		UnitCost:         decimal.NewFromInt(50),
		UnitSellingPrice: decimal.NewFromInt(75),
		IsActive:         false,
	})
	_, err = f.uc.Create(ctx, createInput(1))
	assert.ErrorIs(t, err, ErrInactivePart)
}

func TestCreate_RejectsNonPositiveQuantity(t *testing.T) {
	f := newEngine(t)

	_, err := f.uc.Create(context.Background(), createInput(0))
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestListByTechnician_ReturnsOwnRequestsOnly(t *testing.T) {
	f := newEngine(t)
	ctx := context.Background()
	f.seedPart("part-1", 50, 75)
	f.seedAutoApproveLimit("tech-1", 200)
	f.stockIn(t, "part-1", "store-1", 10)

	_, err := f.uc.Create(ctx, createInput(1))
	require.NoError(t, err)

	other := createInput(1)
	other.TechnicianID = "tech-2"
	_, err = f.uc.Create(ctx, other)
	require.NoError(t, err)

	mine, err := f.uc.ListByTechnician(ctx, "tech-1")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "tech-1", mine[0].TechnicianID)
}
