package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ApprovalDecision string

const (
	DecisionApproved ApprovalDecision = "APPROVED"
	DecisionRejected ApprovalDecision = "REJECTED"
)

// ApprovalHistory is one immutable audit record of a decision at a given
// level, with snapshots of the request value and available stock at the time.
type ApprovalHistory struct {
	ID             string           `db:"id" json:"id"`
	RequestID      string           `db:"request_id" json:"request_id"`
	Level          int              `db:"level" json:"level"`
	ApproverID     string           `db:"approver_id" json:"approver_id"`
	ApproverRank   int              `db:"approver_rank" json:"approver_rank"`
	Decision       ApprovalDecision `db:"decision" json:"decision"`
	Comments       string           `db:"comments" json:"comments"`
	RequestValue   decimal.Decimal  `db:"request_value" json:"request_value"`
	AvailableStock int              `db:"available_stock" json:"available_stock"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// TechnicianLimit is one spending ceiling for a technician, optionally scoped
// to a part category. Several limits may apply at once; the most restrictive
// one wins.
type TechnicianLimit struct {
	BaseModel
	TechnicianID       string          `db:"technician_id" json:"technician_id"`
	CategoryID         *string         `db:"category_id" json:"category_id"`
	MaxValuePerRequest decimal.Decimal `db:"max_value_per_request" json:"max_value_per_request"`
	MaxValuePerDay     decimal.Decimal `db:"max_value_per_day" json:"max_value_per_day"`
	MaxValuePerMonth   decimal.Decimal `db:"max_value_per_month" json:"max_value_per_month"`
	AutoApproveBelow   decimal.Decimal `db:"auto_approve_below" json:"auto_approve_below"`
	RequiresApproval   bool            `db:"requires_approval" json:"requires_approval"`
	ApproverLevel      int             `db:"approver_level" json:"approver_level"`
	IsActive           bool            `db:"is_active" json:"is_active"`
}

// RoleAssignment links an approver role to a holder. Protected assignments
// may only ever be added, never removed.
type RoleAssignment struct {
	BaseModel
	Role      string `db:"role" json:"role"`
	HolderID  string `db:"holder_id" json:"holder_id"`
	Rank      int    `db:"rank" json:"rank"`
	Protected bool   `db:"protected" json:"protected"`
	GrantedBy string `db:"granted_by" json:"granted_by"`
}
