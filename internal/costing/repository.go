package costing

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
)

// Repository stores settled breakdowns. One row per service request; a
// breakdown is never updated in place.
type Repository interface {
	// GetByService returns nil when no breakdown exists yet.
	GetByService(ctx context.Context, serviceRequestID string) (*model.ServiceCostBreakdown, error)
	Create(ctx context.Context, breakdown *model.ServiceCostBreakdown) error
}
