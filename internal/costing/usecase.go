package costing

import (
	"context"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/shopspring/decimal"
)

// Rates configures the labor and surcharge percentages applied at
// settlement time.
type Rates struct {
	LaborRatePerHour   decimal.Decimal
	OverheadPercent    decimal.Decimal
	TaxPercent         decimal.Decimal
	LaborMarkupPercent decimal.Decimal
}

type UseCase interface {
	// Compute settles the cost breakdown for a completed service. Idempotent:
	// a previously settled breakdown is returned unchanged.
	Compute(ctx context.Context, serviceRequestID string, laborHours decimal.Decimal) (*model.ServiceCostBreakdown, error)
	GetByService(ctx context.Context, serviceRequestID string) (*model.ServiceCostBreakdown, error)
}
