package usecase

import (
	"context"
	"testing"

	"github.com/fieldserve/parts-service/internal/apperrors"
	"github.com/fieldserve/parts-service/internal/approval"
	"github.com/fieldserve/parts-service/internal/approval/repository"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newApprovalUC() approval.UseCase {
	return NewApprovalUseCase(repository.NewMemoryRepository(), logger.NewNop())
}

func TestRecordDecision_AppendsAuditRow(t *testing.T) {
	uc := newApprovalUC()
	ctx := context.Background()

	h, err := uc.RecordDecision(ctx, &approval.RecordDecisionInput{
		RequestID:      "req-1",
		RequiredLevel:  2,
		ApproverID:     "mgr-1",
		ApproverRank:   2,
		Decision:       model.DecisionApproved,
		Comments:       "ok",
		RequestValue:   decimal.NewFromInt(500),
		AvailableStock: 12,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, h.Level)
	assert.Equal(t, 12, h.AvailableStock)

	history, err := uc.History(ctx, "req-1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, model.DecisionApproved, history[0].Decision)
}

func TestRecordDecision_RankBelowLevelFails(t *testing.T) {
	uc := newApprovalUC()

	_, err := uc.RecordDecision(context.Background(), &approval.RecordDecisionInput{
		RequestID:     "req-1",
		RequiredLevel: 3,
		ApproverID:    "supervisor-1",
		ApproverRank:  1,
		Decision:      model.DecisionApproved,
	})
	require.ErrorIs(t, err, apperrors.ErrLimitExceeded)

	history, histErr := uc.History(context.Background(), "req-1")
	require.NoError(t, histErr)
	assert.Empty(t, history)
}

func TestRecordDecision_HigherRankMayActAtLowerLevel(t *testing.T) {
	uc := newApprovalUC()

	_, err := uc.RecordDecision(context.Background(), &approval.RecordDecisionInput{
		RequestID:     "req-1",
		RequiredLevel: 1,
		ApproverID:    "director-1",
		ApproverRank:  3,
		Decision:      model.DecisionRejected,
	})
	assert.NoError(t, err)
}

func TestEscalate_CapsAtMaxLevel(t *testing.T) {
	uc := newApprovalUC()

	assert.Equal(t, 2, uc.Escalate(1))
	assert.Equal(t, 3, uc.Escalate(2))
	assert.Equal(t, 3, uc.Escalate(3))
	assert.Equal(t, 1, uc.Escalate(-1))
}

func TestRevokeAssignment_ProtectedRoleIsGrowOnly(t *testing.T) {
	uc := newApprovalUC()
	ctx := context.Background()

	protected, err := uc.GrantAssignment(ctx, &approval.GrantAssignmentInput{
		Role:      "inventory-controller",
		HolderID:  "user-1",
		Rank:      3,
		Protected: true,
		GrantedBy: "admin",
	})
	require.NoError(t, err)

	err = uc.RevokeAssignment(ctx, protected.ID, "admin")
	require.ErrorIs(t, err, apperrors.ErrProtectedRoleViolation)

	// Granting more holders to the protected role is still allowed.
	_, err = uc.GrantAssignment(ctx, &approval.GrantAssignmentInput{
		Role:      "inventory-controller",
		HolderID:  "user-2",
		Rank:      2,
		Protected: true,
		GrantedBy: "admin",
	})
	require.NoError(t, err)

	assignments, err := uc.ListAssignments(ctx, "inventory-controller")
	require.NoError(t, err)
	assert.Len(t, assignments, 2)
}

func TestRevokeAssignment_UnprotectedRoleIsRemovable(t *testing.T) {
	uc := newApprovalUC()
	ctx := context.Background()

	a, err := uc.GrantAssignment(ctx, &approval.GrantAssignmentInput{
		Role:      "approver-l1",
		HolderID:  "user-1",
		Rank:      1,
		GrantedBy: "admin",
	})
	require.NoError(t, err)

	require.NoError(t, uc.RevokeAssignment(ctx, a.ID, "admin"))

	assignments, err := uc.ListAssignments(ctx, "approver-l1")
	require.NoError(t, err)
	assert.Empty(t, assignments)
}
