package request

import (
	"context"
	"time"

	"github.com/fieldserve/parts-service/internal/model"
)

const (
	EventRequestCreated  = "PartRequestCreated"
	EventRequestApproved = "PartRequestApproved"
	EventRequestRejected = "PartRequestRejected"
	EventStockIssued     = "PartStockIssued"
	EventPartInstalled   = "PartInstalled"
	EventPartsReturned   = "PartsReturned"
)

// Event is the envelope published to the broker on every lifecycle
// transition. Keyed by request ID so consumers see per-request ordering.
type Event struct {
	EventID          string              `json:"event_id"`
	EventType        string              `json:"event_type"`
	RequestID        string              `json:"request_id"`
	ServiceRequestID string              `json:"service_request_id"`
	SparePartID      string              `json:"spare_part_id"`
	StoreID          string              `json:"store_id"`
	TechnicianID     string              `json:"technician_id"`
	Quantity         int                 `json:"quantity"`
	Status           model.RequestStatus `json:"status"`
	Timestamp        time.Time           `json:"timestamp"`
}

// EventPublisher is satisfied by broker.Producer. A nil publisher disables
// event emission.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}
