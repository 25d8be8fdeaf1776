package approval

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
)

type Repository interface {
	// AppendHistory writes one immutable audit row; there is no update path.
	AppendHistory(ctx context.Context, h *model.ApprovalHistory) error
	ListHistoryByRequest(ctx context.Context, requestID string) ([]model.ApprovalHistory, error)

	CreateAssignment(ctx context.Context, a *model.RoleAssignment) error
	GetAssignment(ctx context.Context, id string) (*model.RoleAssignment, error)
	DeleteAssignment(ctx context.Context, id string) error
	ListAssignments(ctx context.Context, role string) ([]model.RoleAssignment, error)
}
