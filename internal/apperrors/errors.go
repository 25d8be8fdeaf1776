package apperrors

import (
	"errors"
	"fmt"
)

// Sentinel errors of the outward-flow engine. Callers branch with errors.Is;
// the typed wrappers below carry the context needed to render an actionable
// message without reading server logs.
var (
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrLimitExceeded          = errors.New("technician limit exceeded")
	ErrInvalidTransition      = errors.New("invalid state transition")
	ErrStaleState             = errors.New("stale state, concurrent modification")
	ErrNotFound               = errors.New("not found")
	ErrProtectedRoleViolation = errors.New("protected role assignment cannot be removed")
)

type InsufficientStockError struct {
	PartID    string
	StoreID   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for part %s at store %s: requested %d, available %d (short %d)",
		e.PartID, e.StoreID, e.Requested, e.Available, e.Shortfall())
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

func (e *InsufficientStockError) Shortfall() int { return e.Requested - e.Available }

type InvalidTransitionError struct {
	RequestID string
	From      string
	Action    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s request %s in status %s", e.Action, e.RequestID, e.From)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

type LimitExceededError struct {
	TechnicianID  string
	RequiredLevel int
	Violated      []string
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("technician %s exceeded limits %v, approval level %d required",
		e.TechnicianID, e.Violated, e.RequiredLevel)
}

func (e *LimitExceededError) Unwrap() error { return ErrLimitExceeded }

type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

type StaleStateError struct {
	Key      string
	Attempts int
}

func (e *StaleStateError) Error() string {
	return fmt.Sprintf("stock level %s changed concurrently, gave up after %d attempts", e.Key, e.Attempts)
}

func (e *StaleStateError) Unwrap() error { return ErrStaleState }

type ProtectedRoleError struct {
	Role     string
	HolderID string
}

func (e *ProtectedRoleError) Error() string {
	return fmt.Sprintf("assignment of protected role %s held by %s can only be added to, not removed", e.Role, e.HolderID)
}

func (e *ProtectedRoleError) Unwrap() error { return ErrProtectedRoleViolation }
