package limits

import (
	"context"

	"github.com/shopspring/decimal"
)

// Decision is the outcome of classifying a candidate request against the
// technician's ceilings. RequiredLevel is 0 only when AutoApprove is true.
type Decision struct {
	AutoApprove   bool     `json:"auto_approve"`
	RequiredLevel int      `json:"required_level"`
	Violated      []string `json:"violated,omitempty"`
}

type ClassifyInput struct {
	TechnicianID      string
	CategoryID        *string
	RequestValue      decimal.Decimal
	RequestedQuantity int
}

type UseCase interface {
	Classify(ctx context.Context, input *ClassifyInput) (*Decision, error)
}
