package request

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
)

// Repository persists part requests and the installed-part records they
// produce.
type Repository interface {
	Create(ctx context.Context, req *model.SparePartRequest) error
	GetByID(ctx context.Context, id string) (*model.SparePartRequest, error)
	// Transition persists req only while the stored row still has status from,
	// wrapping apperrors.ErrInvalidTransition when another writer moved it first.
	Transition(ctx context.Context, req *model.SparePartRequest, from model.RequestStatus) error
	ListByService(ctx context.Context, serviceRequestID string) ([]model.SparePartRequest, error)
	ListByTechnician(ctx context.Context, technicianID string) ([]model.SparePartRequest, error)
	CreateInstalledPart(ctx context.Context, part *model.InstalledPart) error
	ListInstalledByService(ctx context.Context, serviceRequestID string) ([]model.InstalledPart, error)
}
