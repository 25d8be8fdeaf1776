package dto

import (
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/shopspring/decimal"
)

type CreatePartRequestInput struct {
	ServiceRequestID  string        `json:"service_request_id" validate:"required"`
	SparePartID       string        `json:"spare_part_id" validate:"required"`
	StoreID           string        `json:"store_id" validate:"required"`
	TechnicianID      string        `json:"technician_id" validate:"required"`
	RequestedQuantity int           `json:"requested_quantity" validate:"gt=0"`
	Urgency           model.Urgency `json:"urgency" validate:"omitempty,oneof=LOW NORMAL HIGH CRITICAL"`
	Justification     string        `json:"justification"`
}

// DecisionInput carries an approver's approve/reject action.
type DecisionInput struct {
	RequestID    string `json:"request_id" validate:"required"`
	ApproverID   string `json:"approver_id" validate:"required"`
	ApproverRank int    `json:"approver_rank" validate:"gte=0"`
	Comments     string `json:"comments"`
}

type InstallPartInput struct {
	ServiceRequestID string           `json:"service_request_id" validate:"required"`
	SparePartID      string           `json:"spare_part_id" validate:"required"`
	TechnicianID     string           `json:"technician_id" validate:"required"`
	Quantity         int              `json:"quantity" validate:"gt=0"`
	UnitCost         *decimal.Decimal `json:"unit_cost"`
	SerialNumber     *string          `json:"serial_number"`
	BatchNumber      *string          `json:"batch_number"`
	Notes            string           `json:"notes"`
}

const (
	ConditionGood    = "GOOD"
	ConditionDamaged = "DAMAGED"
)

type ReturnItem struct {
	SparePartID  string `json:"spare_part_id" validate:"required"`
	Quantity     int    `json:"quantity" validate:"gt=0"`
	Condition    string `json:"condition" validate:"omitempty,oneof=GOOD DAMAGED"`
	Reason       string `json:"reason"`
	TechnicianID string `json:"technician_id"`
}
