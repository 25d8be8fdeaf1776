package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ServiceCostBreakdown is the settled cost/revenue picture for one completed
// service request. Computed once; Compute returns the stored row on repeat
// calls instead of overwriting it.
type ServiceCostBreakdown struct {
	ID               string          `db:"id" json:"id"`
	ServiceRequestID string          `db:"service_request_id" json:"service_request_id"`
	PartsCost        decimal.Decimal `db:"parts_cost" json:"parts_cost"`
	PartsRevenue     decimal.Decimal `db:"parts_revenue" json:"parts_revenue"`
	LaborHours       decimal.Decimal `db:"labor_hours" json:"labor_hours"`
	LaborRate        decimal.Decimal `db:"labor_rate" json:"labor_rate"`
	LaborCost        decimal.Decimal `db:"labor_cost" json:"labor_cost"`
	OverheadPercent  decimal.Decimal `db:"overhead_percent" json:"overhead_percent"`
	OverheadAmount   decimal.Decimal `db:"overhead_amount" json:"overhead_amount"`
	Subtotal         decimal.Decimal `db:"subtotal" json:"subtotal"`
	TaxPercent       decimal.Decimal `db:"tax_percent" json:"tax_percent"`
	TaxAmount        decimal.Decimal `db:"tax_amount" json:"tax_amount"`
	TotalCost        decimal.Decimal `db:"total_cost" json:"total_cost"`
	TotalRevenue     decimal.Decimal `db:"total_revenue" json:"total_revenue"`
	MarginPercent    decimal.Decimal `db:"margin_percent" json:"margin_percent"`
	ComputedAt       time.Time       `db:"computed_at" json:"computed_at"`
}
