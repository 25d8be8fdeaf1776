package model

import "time"

type ReservationStatus string

const (
	ReservationActive   ReservationStatus = "ACTIVE"
	ReservationConsumed ReservationStatus = "CONSUMED"
	ReservationReleased ReservationStatus = "RELEASED"
	ReservationExpired  ReservationStatus = "EXPIRED"
)

// StockReservation is a temporary hold on stock for an approved request. At
// most one active reservation exists per request, and its quantity never
// exceeds the request's requested quantity.
type StockReservation struct {
	BaseModel
	RequestID        string            `db:"request_id" json:"request_id"`
	LevelID          string            `db:"level_id" json:"level_id"`
	SparePartID      string            `db:"spare_part_id" json:"spare_part_id"`
	StoreID          string            `db:"store_id" json:"store_id"`
	ReservedQuantity int               `db:"reserved_quantity" json:"reserved_quantity"`
	Status           ReservationStatus `db:"status" json:"status"`
	ExpiresAt        time.Time         `db:"expires_at" json:"expires_at"`
	ReleaseReason    *string           `db:"release_reason" json:"release_reason"`
}

func (r *StockReservation) IsActive() bool {
	return r.Status == ReservationActive
}

func (r *StockReservation) IsExpiredAt(now time.Time) bool {
	return r.Status == ReservationActive && now.After(r.ExpiresAt)
}
