package model

import "github.com/shopspring/decimal"

type RequestStatus string

const (
	RequestPending            RequestStatus = "PENDING"
	RequestApproved           RequestStatus = "APPROVED"
	RequestRejected           RequestStatus = "REJECTED"
	RequestIssued             RequestStatus = "ISSUED"
	RequestPartiallyInstalled RequestStatus = "PARTIALLY_INSTALLED"
	RequestInstalled          RequestStatus = "INSTALLED"
	RequestReturned           RequestStatus = "RETURNED"
)

// IsTerminal reports whether no further transition may leave this status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestRejected, RequestInstalled, RequestReturned:
		return true
	}
	return false
}

type Urgency string

const (
	UrgencyLow      Urgency = "LOW"
	UrgencyNormal   Urgency = "NORMAL"
	UrgencyHigh     Urgency = "HIGH"
	UrgencyCritical Urgency = "CRITICAL"
)

// SparePartRequest tracks one (service request, spare part) pairing requested
// by a technician, from creation through issuance and installation or return.
// ApprovalLevel 0 means auto-approved.
type SparePartRequest struct {
	BaseModel
	ServiceRequestID  string          `db:"service_request_id" json:"service_request_id"`
	SparePartID       string          `db:"spare_part_id" json:"spare_part_id"`
	StoreID           string          `db:"store_id" json:"store_id"`
	TechnicianID      string          `db:"technician_id" json:"technician_id"`
	RequestedQuantity int             `db:"requested_quantity" json:"requested_quantity"`
	Urgency           Urgency         `db:"urgency" json:"urgency"`
	Justification     string          `db:"justification" json:"justification"`
	Status            RequestStatus   `db:"status" json:"status"`
	ApprovalLevel     int             `db:"approval_level" json:"approval_level"`
	EstimatedCost     decimal.Decimal `db:"estimated_cost" json:"estimated_cost"`
	IssuedQuantity    int             `db:"issued_quantity" json:"issued_quantity"`
	InstalledQuantity int             `db:"installed_quantity" json:"installed_quantity"`
	ReturnedQuantity  int             `db:"returned_quantity" json:"returned_quantity"`
	IssuedCost        decimal.Decimal `db:"issued_cost" json:"issued_cost"`
	Notes             string          `db:"notes" json:"notes"`
}

// OutstandingIssued is the issued quantity not yet installed or returned.
func (r *SparePartRequest) OutstandingIssued() int {
	return r.IssuedQuantity - r.InstalledQuantity - r.ReturnedQuantity
}
