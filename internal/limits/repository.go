package limits

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// ListActiveByTechnician returns every active limit for the technician,
	// both general and category-scoped.
	ListActiveByTechnician(ctx context.Context, technicianID string) ([]model.TechnicianLimit, error)

	// PeriodUsage sums the estimated cost of the technician's non-rejected
	// requests created at or after the given instant.
	PeriodUsage(ctx context.Context, technicianID string, since time.Time) (decimal.Decimal, error)
}
