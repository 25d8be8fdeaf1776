package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fieldserve/parts-service/internal/inventory"
	"github.com/fieldserve/parts-service/internal/inventory/dto"
	"github.com/fieldserve/parts-service/internal/model"
	"github.com/fieldserve/parts-service/pkg/broker"
	"github.com/fieldserve/parts-service/pkg/logger"
	"go.uber.org/zap"
)

// InventoryListener consumes StockReceived events from purchasing and credits
// the ledger with IN movements.
type InventoryListener struct {
	consumer *broker.KafkaConsumer
	uc       inventory.UseCase
	logger   logger.ZapLogger
}

func NewInventoryListener(consumer *broker.KafkaConsumer, uc inventory.UseCase, log logger.ZapLogger) *InventoryListener {
	return &InventoryListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *InventoryListener) Start(ctx context.Context) {
	l.logger.Info("Starting inventory Kafka listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping inventory Kafka listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type StockReceivedEvent struct {
	EventID   string               `json:"event_id"`
	EventType string               `json:"event_type"`
	Payload   StockReceivedPayload `json:"payload"`
	Timestamp time.Time            `json:"timestamp"`
}

type StockReceivedPayload struct {
	PurchaseOrderID string              `json:"purchase_order_id"`
	StoreID         string              `json:"store_id"`
	Items           []StockReceivedItem `json:"items"`
}

type StockReceivedItem struct {
	SparePartID string `json:"spare_part_id"`
	Quantity    int    `json:"quantity"`
}

func (l *InventoryListener) processMessage(ctx context.Context, value []byte) {
	var event StockReceivedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("Failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "StockReceived" {
		return
	}

	l.logger.Info("Processing StockReceived event",
		zap.String("purchase_order_id", event.Payload.PurchaseOrderID),
	)

	for _, item := range event.Payload.Items {
		input := &dto.ApplyMovementInput{
			SparePartID:   item.SparePartID,
			StoreID:       event.Payload.StoreID,
			MovementType:  model.MovementIn,
			Quantity:      item.Quantity,
			ReferenceType: "purchase_order",
			ReferenceID:   event.Payload.PurchaseOrderID,
			Notes:         "stock received",
			ActorID:       "system",
		}

		if _, _, err := l.uc.ApplyMovement(ctx, input); err != nil {
			l.logger.Error("Failed to credit received stock",
				zap.String("purchase_order_id", event.Payload.PurchaseOrderID),
				zap.String("spare_part_id", item.SparePartID),
				zap.Error(err),
			)
		}
	}
}
