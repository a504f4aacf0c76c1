package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/qloteam/Qloset-sub000/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing order lifecycle events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishOrderCreated publishes OrderCreated event
func (ep *EventPublisher) PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderConfirmed publishes OrderConfirmed event
func (ep *EventPublisher) PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishOrderCancelled publishes OrderCancelled event
func (ep *EventPublisher) PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

// PublishReservationExpired publishes ReservationExpired event
func (ep *EventPublisher) PublishReservationExpired(ctx context.Context, event *models.ReservationExpiredEvent) error {
	return ep.producer.PublishEvent(ctx, orderKey(event.OrderID), event)
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order-%d", orderID)
}

// EventHandler routes incoming order events to registered callbacks
type EventHandler struct {
	onOrderEvent func(ctx context.Context, eventType string, items []models.OrderItemData) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnOrderEvent registers a handler receiving every order lifecycle
// event's type and item payload.
func (eh *EventHandler) OnOrderEvent(handler func(ctx context.Context, eventType string, items []models.OrderItemData) error) {
	eh.onOrderEvent = handler
}

// orderEventEnvelope covers the shared shape of all order events so
// one unmarshal serves routing.
type orderEventEnvelope struct {
	models.BaseEvent
	OrderID int64                  `json:"order_id"`
	Items   []models.OrderItemData `json:"items"`
}

// HandleMessage routes messages to the registered handler
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var envelope orderEventEnvelope
	if err := json.Unmarshal(msg.Value, &envelope); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}

	switch envelope.EventType {
	case models.EventTypeOrderCreated,
		models.EventTypeOrderConfirmed,
		models.EventTypeOrderCancelled,
		models.EventTypeReservationExpired:
		if eh.onOrderEvent != nil {
			return eh.onOrderEvent(ctx, envelope.EventType, envelope.Items)
		}
	default:
		log.Printf("Unhandled event type: %s", envelope.EventType)
	}

	return nil
}
