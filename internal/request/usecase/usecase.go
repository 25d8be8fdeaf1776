package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/approval"
	"github.com/fieldserve/parts-service/internal/inventory"
	invdto "github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/limits"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/internal/part"
	"github.com/fieldserve/parts-service/internal/request"
	"github.com/fieldserve/parts-service/internal/request/dto"
	"github.com/fieldserve/parts-service/internal/reservation"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrInvalidQuantity       = errors.New("requested quantity must be positive")
	ErrQuantityExceedsIssued = errors.New("quantity exceeds outstanding issued quantity")
	ErrInactivePart          = errors.New("spare part is not active")
)

// systemActorID marks decisions the engine takes on its own, such as
// auto-approvals under the technician's ceiling.
const systemActorID = "system"

const noteAutoApprovalBlocked = "auto-approval blocked: insufficient stock, awaiting manual approval"

type requestUseCase struct {
	repo          request.Repository
	partRepo      part.Repository
	inventoryUC   inventory.UseCase
	reservationUC reservation.UseCase
	limitsUC      limits.UseCase
	approvalUC    approval.UseCase
	publisher     request.EventPublisher
	logger        logger.ZapLogger
}

func NewRequestUseCase(
	repo request.Repository,
	partRepo part.Repository,
	inventoryUC inventory.UseCase,
	reservationUC reservation.UseCase,
	limitsUC limits.UseCase,
	approvalUC approval.UseCase,
	publisher request.EventPublisher,
	log logger.ZapLogger,
) request.UseCase {
	return &requestUseCase{
		repo:          repo,
		partRepo:      partRepo,
		inventoryUC:   inventoryUC,
		reservationUC: reservationUC,
		limitsUC:      limitsUC,
		approvalUC:    approvalUC,
		publisher:     publisher,
		logger:        log,
	}
}

func (uc *requestUseCase) Create(ctx context.Context, input *dto.CreatePartRequestInput) (*model.SparePartRequest, error) {
	if input.RequestedQuantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := uc.partRepo.GetByID(ctx, input.SparePartID)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, fmt.Errorf("%w: %s", ErrInactivePart, p.ID)
	}

	estimated := p.UnitSellingPrice.Mul(decimal.NewFromInt(int64(input.RequestedQuantity)))

	decision, err := uc.limitsUC.Classify(ctx, &limits.ClassifyInput{
		TechnicianID:      input.TechnicianID,
		CategoryID:        p.CategoryID,
		RequestValue:      estimated,
		RequestedQuantity: input.RequestedQuantity,
	})
	if err != nil {
		return nil, err
	}

	urgency := input.Urgency
	if urgency == "" {
		urgency = model.UrgencyNormal
	}

	now := time.Now()
	req := &model.SparePartRequest{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		ServiceRequestID:  input.ServiceRequestID,
		SparePartID:       input.SparePartID,
		StoreID:           input.StoreID,
		TechnicianID:      input.TechnicianID,
		RequestedQuantity: input.RequestedQuantity,
		Urgency:           urgency,
		Justification:     input.Justification,
		Status:            model.RequestPending,
		ApprovalLevel:     decision.RequiredLevel,
		EstimatedCost:     estimated,
	}

	if err := uc.repo.Create(ctx, req); err != nil {
		return nil, err
	}

	if decision.AutoApprove {
		if err := uc.autoApprove(ctx, req); err != nil {
			return nil, err
		}
	}

	uc.publish(ctx, EventOf(request.EventRequestCreated, req))
	return req, nil
}

// autoApprove tries to approve and reserve in one go. A stock shortfall is
// not an error at creation time: the request stays pending with a flagged
// note so an approver can pick it up once stock arrives.
func (uc *requestUseCase) autoApprove(ctx context.Context, req *model.SparePartRequest) error {
	if _, err := uc.reservationUC.Reserve(ctx, req.ID, req.SparePartID, req.StoreID, req.RequestedQuantity); err != nil {
		if errors.Is(err, apperrors.ErrInsufficientStock) {
			uc.logger.Warn("auto-approval blocked by stock shortfall",
				zap.String("requestID", req.ID),
				zap.String("sparePartID", req.SparePartID),
				zap.Error(err),
			)
			req.Notes = noteAutoApprovalBlocked
			req.UpdatedAt = time.Now()
			return uc.repo.Transition(ctx, req, model.RequestPending)
		}
		return err
	}

	level, err := uc.inventoryUC.GetLevel(ctx, req.SparePartID, req.StoreID)
	if err != nil {
		return err
	}
	if _, err := uc.approvalUC.RecordDecision(ctx, &approval.RecordDecisionInput{
		RequestID:      req.ID,
		RequiredLevel:  0,
		ApproverID:     systemActorID,
		ApproverRank:   0,
		Decision:       model.DecisionApproved,
		Comments:       "auto-approved under technician limit",
		RequestValue:   req.EstimatedCost,
		AvailableStock: level.AvailableStock(),
	}); err != nil {
		return err
	}

	req.Status = model.RequestApproved
	req.ApprovalLevel = 0
	req.UpdatedAt = time.Now()
	return uc.repo.Transition(ctx, req, model.RequestPending)
}

func (uc *requestUseCase) GetByID(ctx context.Context, id string) (*model.SparePartRequest, error) {
	return uc.repo.GetByID(ctx, id)
}

func (uc *requestUseCase) ListByService(ctx context.Context, serviceRequestID string) ([]model.SparePartRequest, error) {
	return uc.repo.ListByService(ctx, serviceRequestID)
}

func (uc *requestUseCase) ListByTechnician(ctx context.Context, technicianID string) ([]model.SparePartRequest, error) {
	return uc.repo.ListByTechnician(ctx, technicianID)
}

func (uc *requestUseCase) Approve(ctx context.Context, input *dto.DecisionInput) (*model.SparePartRequest, error) {
	req, err := uc.repo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, &apperrors.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), Action: "approve"}
	}

	level, err := uc.inventoryUC.GetLevel(ctx, req.SparePartID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.approvalUC.RecordDecision(ctx, &approval.RecordDecisionInput{
		RequestID:      req.ID,
		RequiredLevel:  req.ApprovalLevel,
		ApproverID:     input.ApproverID,
		ApproverRank:   input.ApproverRank,
		Decision:       model.DecisionApproved,
		Comments:       input.Comments,
		RequestValue:   req.EstimatedCost,
		AvailableStock: level.AvailableStock(),
	}); err != nil {
		return nil, err
	}

	req.Status = model.RequestApproved
	req.UpdatedAt = time.Now()

	// Manual approval may also race a shortfall; the request stays approved
	// and the hold is retried at issue time.
	if _, err := uc.reservationUC.Reserve(ctx, req.ID, req.SparePartID, req.StoreID, req.RequestedQuantity); err != nil {
		if !errors.Is(err, apperrors.ErrInsufficientStock) {
			return nil, err
		}
		uc.logger.Warn("approved without reservation, stock short",
			zap.String("requestID", req.ID),
			zap.Error(err),
		)
		req.Notes = "approved without reservation: insufficient stock"
	} else if req.Notes == noteAutoApprovalBlocked {
		req.Notes = ""
	}

	if err := uc.repo.Transition(ctx, req, model.RequestPending); err != nil {
		return nil, err
	}

	uc.publish(ctx, EventOf(request.EventRequestApproved, req))
	return req, nil
}

func (uc *requestUseCase) Reject(ctx context.Context, input *dto.DecisionInput) (*model.SparePartRequest, error) {
	req, err := uc.repo.GetByID(ctx, input.RequestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestPending {
		return nil, &apperrors.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), Action: "reject"}
	}

	// A pending request must not hold stock. If one does, release the hold
	// before rejecting rather than stranding reserved units.
	if res, err := uc.reservationUC.ActiveForRequest(ctx, req.ID); err != nil {
		return nil, err
	} else if res != nil {
		uc.logger.Warn("pending request held an active reservation, releasing",
			zap.String("requestID", req.ID),
			zap.String("reservationID", res.ID),
		)
		if err := uc.reservationUC.Release(ctx, res.ID, "request rejected"); err != nil {
			return nil, err
		}
	}

	level, err := uc.inventoryUC.GetLevel(ctx, req.SparePartID, req.StoreID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.approvalUC.RecordDecision(ctx, &approval.RecordDecisionInput{
		RequestID:      req.ID,
		RequiredLevel:  req.ApprovalLevel,
		ApproverID:     input.ApproverID,
		ApproverRank:   input.ApproverRank,
		Decision:       model.DecisionRejected,
		Comments:       input.Comments,
		RequestValue:   req.EstimatedCost,
		AvailableStock: level.AvailableStock(),
	}); err != nil {
		return nil, err
	}

	req.Status = model.RequestRejected
	req.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, req, model.RequestPending); err != nil {
		return nil, err
	}

	uc.publish(ctx, EventOf(request.EventRequestRejected, req))
	return req, nil
}

func (uc *requestUseCase) Issue(ctx context.Context, requestID, actorID string) (*model.SparePartRequest, error) {
	req, err := uc.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != model.RequestApproved {
		return nil, &apperrors.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), Action: "issue"}
	}

	p, err := uc.partRepo.GetByID(ctx, req.SparePartID)
	if err != nil {
		return nil, err
	}

	// Claim the transition before touching stock so concurrent issues of the
	// same request cannot each drain the shelf.
	req.Status = model.RequestIssued
	req.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, req, model.RequestApproved); err != nil {
		return nil, err
	}

	// The approval-time hold may be missing (shortfall at approval) or
	// partial. Reserve is idempotent for a covering hold and tops up short
	// ones, so issuing always consumes the full requested quantity.
	res, err := uc.reservationUC.Reserve(ctx, req.ID, req.SparePartID, req.StoreID, req.RequestedQuantity)
	if err != nil {
		uc.revertIssue(ctx, req)
		return nil, fmt.Errorf("issue request %s: %w", req.ID, err)
	}

	if _, err := uc.reservationUC.Consume(ctx, res.ID, actorID); err != nil {
		uc.revertIssue(ctx, req)
		return nil, err
	}

	req.IssuedQuantity = req.RequestedQuantity
	req.IssuedCost = p.UnitCost.Mul(decimal.NewFromInt(int64(req.RequestedQuantity)))
	req.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, req, model.RequestIssued); err != nil {
		return nil, err
	}

	uc.publish(ctx, EventOf(request.EventStockIssued, req))
	return req, nil
}

// revertIssue puts a claimed request back to approved after the stock side of
// issuing failed, so it can be issued again once the cause clears.
func (uc *requestUseCase) revertIssue(ctx context.Context, req *model.SparePartRequest) {
	req.Status = model.RequestApproved
	req.UpdatedAt = time.Now()
	if err := uc.repo.Transition(ctx, req, model.RequestIssued); err != nil {
		uc.logger.Error("failed to reopen request after issue failure",
			zap.String("requestID", req.ID), zap.Error(err))
	}
}

func (uc *requestUseCase) Install(ctx context.Context, input *dto.InstallPartInput) (*model.InstalledPart, error) {
	if input.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	req, err := uc.findConsumable(ctx, input.ServiceRequestID, input.SparePartID)
	if err != nil {
		return nil, err
	}
	if input.Quantity > req.OutstandingIssued() {
		return nil, fmt.Errorf("%w: %d requested, %d outstanding on request %s",
			ErrQuantityExceedsIssued, input.Quantity, req.OutstandingIssued(), req.ID)
	}

	p, err := uc.partRepo.GetByID(ctx, input.SparePartID)
	if err != nil {
		return nil, err
	}

	unitCost := p.UnitCost
	if input.UnitCost != nil {
		unitCost = *input.UnitCost
	}

	now := time.Now()
	installed := &model.InstalledPart{
		ID:               uuid.New().String(),
		ServiceRequestID: input.ServiceRequestID,
		RequestID:        &req.ID,
		SparePartID:      input.SparePartID,
		TechnicianID:     input.TechnicianID,
		Quantity:         input.Quantity,
		SerialNumber:     input.SerialNumber,
		BatchNumber:      input.BatchNumber,
		UnitCost:         unitCost,
		UnitPrice:        p.UnitSellingPrice,
		WarrantyMonths:   p.WarrantyMonths,
		Notes:            input.Notes,
		InstalledAt:      now,
	}
	if p.WarrantyMonths > 0 {
		expiry := now.AddDate(0, p.WarrantyMonths, 0)
		installed.WarrantyExpiry = &expiry
	}

	if err := uc.repo.CreateInstalledPart(ctx, installed); err != nil {
		return nil, err
	}

	from := req.Status
	req.InstalledQuantity += input.Quantity
	uc.settleConsumption(req)
	req.UpdatedAt = now
	if err := uc.repo.Transition(ctx, req, from); err != nil {
		return nil, err
	}

	uc.publish(ctx, EventOf(request.EventPartInstalled, req))
	return installed, nil
}

func (uc *requestUseCase) ReturnParts(ctx context.Context, serviceRequestID string, items []dto.ReturnItem) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}

		req, err := uc.findConsumable(ctx, serviceRequestID, item.SparePartID)
		if err != nil {
			return nil, err
		}
		if item.Quantity > req.OutstandingIssued() {
			return nil, fmt.Errorf("%w: %d returned, %d outstanding on request %s",
				ErrQuantityExceedsIssued, item.Quantity, req.OutstandingIssued(), req.ID)
		}

		damaged := 0
		if item.Condition == dto.ConditionDamaged {
			damaged = item.Quantity
		}

		_, movement, err := uc.inventoryUC.ApplyMovement(ctx, &invdto.ApplyMovementInput{
			SparePartID:   req.SparePartID,
			StoreID:       req.StoreID,
			MovementType:  model.MovementIn,
			Quantity:      item.Quantity,
			DamagedDelta:  damaged,
			ReferenceType: "part_request_return",
			ReferenceID:   req.ID,
			Notes:         item.Reason,
			ActorID:       item.TechnicianID,
		})
		if err != nil {
			return nil, err
		}
		movements = append(movements, *movement)

		from := req.Status
		req.ReturnedQuantity += item.Quantity
		uc.settleConsumption(req)
		req.UpdatedAt = time.Now()
		if err := uc.repo.Transition(ctx, req, from); err != nil {
			return nil, err
		}

		uc.publish(ctx, EventOf(request.EventPartsReturned, req))
	}
	return movements, nil
}

func (uc *requestUseCase) ApprovalHistory(ctx context.Context, requestID string) ([]model.ApprovalHistory, error) {
	if _, err := uc.repo.GetByID(ctx, requestID); err != nil {
		return nil, err
	}
	return uc.approvalUC.History(ctx, requestID)
}

func (uc *requestUseCase) ListInstalledByService(ctx context.Context, serviceRequestID string) ([]model.InstalledPart, error) {
	return uc.repo.ListInstalledByService(ctx, serviceRequestID)
}

// findConsumable locates the request on a service job that still has issued
// stock left for the given part.
func (uc *requestUseCase) findConsumable(ctx context.Context, serviceRequestID, sparePartID string) (*model.SparePartRequest, error) {
	reqs, err := uc.repo.ListByService(ctx, serviceRequestID)
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		r := &reqs[i]
		if r.SparePartID != sparePartID {
			continue
		}
		if r.Status == model.RequestIssued || r.Status == model.RequestPartiallyInstalled {
			return r, nil
		}
	}
	return nil, &apperrors.NotFoundError{Entity: "issued part request", ID: serviceRequestID + "/" + sparePartID}
}

// settleConsumption derives the status from the installed/returned tally.
func (uc *requestUseCase) settleConsumption(req *model.SparePartRequest) {
	if req.OutstandingIssued() > 0 {
		if req.InstalledQuantity > 0 {
			req.Status = model.RequestPartiallyInstalled
		}
		return
	}
	if req.InstalledQuantity > 0 {
		req.Status = model.RequestInstalled
	} else {
		req.Status = model.RequestReturned
	}
}

func (uc *requestUseCase) publish(ctx context.Context, event *request.Event) {
	if uc.publisher == nil {
		return
	}
	if err := uc.publisher.Publish(ctx, event.RequestID, event); err != nil {
		uc.logger.Error("publish lifecycle event failed",
			zap.String("eventType", event.EventType),
			zap.String("requestID", event.RequestID),
			zap.Error(err),
		)
	}
}

// EventOf builds the broker envelope for a lifecycle transition.
func EventOf(eventType string, req *model.SparePartRequest) *request.Event {
	return &request.Event{
		EventID:          uuid.New().String(),
		EventType:        eventType,
		RequestID:        req.ID,
		ServiceRequestID: req.ServiceRequestID,
		SparePartID:      req.SparePartID,
		StoreID:          req.StoreID,
		TechnicianID:     req.TechnicianID,
		Quantity:         req.RequestedQuantity,
		Status:           req.Status,
		Timestamp:        time.Now(),
	}
}
