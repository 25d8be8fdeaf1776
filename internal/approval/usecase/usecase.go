package usecase

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/approval"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type approvalUseCase struct {
	repo   approval.Repository
	logger logger.ZapLogger
}

func NewApprovalUseCase(repo approval.Repository, log logger.ZapLogger) approval.UseCase {
	return &approvalUseCase{repo: repo, logger: log}
}

func (uc *approvalUseCase) RecordDecision(ctx context.Context, input *approval.RecordDecisionInput) (*model.ApprovalHistory, error) {
	if input.ApproverRank < input.RequiredLevel {
		return nil, &apperrors.LimitExceededError{
			TechnicianID:  input.ApproverID,
			RequiredLevel: input.RequiredLevel,
			Violated:      []string{"approverLevel"},
		}
	}

	h := &model.ApprovalHistory{
		ID:             uuid.New().String(),
		RequestID:      input.RequestID,
		Level:          input.RequiredLevel,
		ApproverID:     input.ApproverID,
		ApproverRank:   input.ApproverRank,
		Decision:       input.Decision,
		Comments:       input.Comments,
		RequestValue:   input.RequestValue,
		AvailableStock: input.AvailableStock,
		CreatedAt:      time.Now(),
	}
	if err := uc.repo.AppendHistory(ctx, h); err != nil {
		return nil, err
	}

	uc.logger.Info("approval decision recorded",
		zap.String("request_id", input.RequestID),
		zap.String("decision", string(input.Decision)),
		zap.Int("level", input.RequiredLevel),
		zap.String("approver_id", input.ApproverID),
	)
	return h, nil
}

func (uc *approvalUseCase) History(ctx context.Context, requestID string) ([]model.ApprovalHistory, error) {
	return uc.repo.ListHistoryByRequest(ctx, requestID)
}

func (uc *approvalUseCase) Escalate(currentLevel int) int {
	next := currentLevel + 1
	if next > approval.MaxApproverLevel {
		return approval.MaxApproverLevel
	}
	if next < 1 {
		return 1
	}
	return next
}

func (uc *approvalUseCase) GrantAssignment(ctx context.Context, input *approval.GrantAssignmentInput) (*model.RoleAssignment, error) {
	now := time.Now()
	a := &model.RoleAssignment{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		Role:      input.Role,
		HolderID:  input.HolderID,
		Rank:      input.Rank,
		Protected: input.Protected,
		GrantedBy: input.GrantedBy,
	}
	if err := uc.repo.CreateAssignment(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (uc *approvalUseCase) RevokeAssignment(ctx context.Context, assignmentID, actorID string) error {
	a, err := uc.repo.GetAssignment(ctx, assignmentID)
	if err != nil {
		return err
	}
	if a.Protected {
		uc.logger.Warn("refused to revoke protected role assignment",
			zap.String("assignment_id", assignmentID),
			zap.String("actor_id", actorID),
		)
		return &apperrors.ProtectedRoleError{Role: a.Role, HolderID: a.HolderID}
	}
	return uc.repo.DeleteAssignment(ctx, assignmentID)
}

func (uc *approvalUseCase) ListAssignments(ctx context.Context, role string) ([]model.RoleAssignment, error) {
	return uc.repo.ListAssignments(ctx, role)
}
