package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// InstalledPart is the terminal record for issued stock physically consumed on
// a service request. Immutable once created.
type InstalledPart struct {
	ID               string          `db:"id" json:"id"`
	ServiceRequestID string          `db:"service_request_id" json:"service_request_id"`
	RequestID        *string         `db:"request_id" json:"request_id"`
	SparePartID      string          `db:"spare_part_id" json:"spare_part_id"`
	TechnicianID     string          `db:"technician_id" json:"technician_id"`
	Quantity         int             `db:"quantity" json:"quantity"`
	SerialNumber     *string         `db:"serial_number" json:"serial_number"`
	BatchNumber      *string         `db:"batch_number" json:"batch_number"`
	UnitCost         decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	UnitPrice        decimal.Decimal `db:"unit_price" json:"unit_price"`
	WarrantyMonths   int             `db:"warranty_months" json:"warranty_months"`
	WarrantyExpiry   *time.Time      `db:"warranty_expiry" json:"warranty_expiry"`
	Notes            string          `db:"notes" json:"notes"`
	InstalledAt      time.Time       `db:"installed_at" json:"installed_at"`
}
