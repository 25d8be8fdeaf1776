package approval

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/shopspring/decimal"
)

// MaxApproverLevel caps escalation; levels are opaque ordered ranks.
const MaxApproverLevel = 3

type RecordDecisionInput struct {
	RequestID      string
	RequiredLevel  int
	ApproverID     string
	ApproverRank   int
	Decision       model.ApprovalDecision
	Comments       string
	RequestValue   decimal.Decimal
	AvailableStock int
}

type GrantAssignmentInput struct {
	Role      string
	HolderID  string
	Rank      int
	Protected bool
	GrantedBy string
}

type UseCase interface {
	// RecordDecision verifies the approver's rank covers the required level
	// and appends the audit row.
	RecordDecision(ctx context.Context, input *RecordDecisionInput) (*model.ApprovalHistory, error)
	History(ctx context.Context, requestID string) ([]model.ApprovalHistory, error)

	// Escalate returns the next level above current, capped at MaxApproverLevel.
	Escalate(currentLevel int) int

	GrantAssignment(ctx context.Context, input *GrantAssignmentInput) (*model.RoleAssignment, error)
	// RevokeAssignment removes a role assignment; protected assignments can
	// only grow and revoking one fails with ErrProtectedRoleViolation.
	RevokeAssignment(ctx context.Context, assignmentID, actorID string) error
	ListAssignments(ctx context.Context, role string) ([]model.RoleAssignment, error)
}
