package request

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/internal/request/dto"
)

// UseCase drives one part request through its lifecycle:
//
//	PENDING -> APPROVED | REJECTED
//	APPROVED -> ISSUED
//	ISSUED -> PARTIALLY_INSTALLED | INSTALLED | RETURNED
//	PARTIALLY_INSTALLED -> INSTALLED | RETURNED
//
// REJECTED, INSTALLED and RETURNED are terminal.
type UseCase interface {
	// Create classifies the request against the technician's limits,
	// auto-approving and reserving stock when the ceilings allow it.
	Create(ctx context.Context, input *dto.CreatePartRequestInput) (*model.SparePartRequest, error)
	GetByID(ctx context.Context, id string) (*model.SparePartRequest, error)
	ListByService(ctx context.Context, serviceRequestID string) ([]model.SparePartRequest, error)
	ListByTechnician(ctx context.Context, technicianID string) ([]model.SparePartRequest, error)

	Approve(ctx context.Context, input *dto.DecisionInput) (*model.SparePartRequest, error)
	Reject(ctx context.Context, input *dto.DecisionInput) (*model.SparePartRequest, error)

	// Issue consumes the request's reservation into an OUT movement and
	// snapshots the issued cost from the catalog.
	Issue(ctx context.Context, requestID, actorID string) (*model.SparePartRequest, error)

	Install(ctx context.Context, input *dto.InstallPartInput) (*model.InstalledPart, error)

	// ReturnParts puts outstanding issued stock back on the shelf, routing
	// damaged units to the damaged bucket.
	ReturnParts(ctx context.Context, serviceRequestID string, items []dto.ReturnItem) ([]model.StockMovement, error)

	ApprovalHistory(ctx context.Context, requestID string) ([]model.ApprovalHistory, error)
	ListInstalledByService(ctx context.Context, serviceRequestID string) ([]model.InstalledPart, error)
}
