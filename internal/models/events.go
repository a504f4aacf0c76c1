package models

import "time"

// Event types
const (
	EventTypeOrderCreated       = "ORDER_CREATED"
	EventTypeOrderConfirmed     = "ORDER_CONFIRMED"
	EventTypeOrderCancelled     = "ORDER_CANCELLED"
	EventTypeReservationExpired = "RESERVATION_EXPIRED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItemData is the item payload carried on order events
type OrderItemData struct {
	VariantID int64 `json:"variant_id"`
	Qty       int   `json:"qty"`
	Price     int64 `json:"price"`
}

// OrderCreatedEvent published when an order is created with stock reserved
type OrderCreatedEvent struct {
	BaseEvent
	OrderID  int64           `json:"order_id"`
	UserID   int64           `json:"user_id"`
	Subtotal int64           `json:"subtotal"`
	TBYB     bool            `json:"tbyb"`
	Items    []OrderItemData `json:"items"`
}

// OrderConfirmedEvent published when an order moves to CONFIRMED
type OrderConfirmedEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	Items   []OrderItemData `json:"items"`
}

// OrderCancelledEvent published when an order moves to CANCELLED and
// its reserved stock is restored
type OrderCancelledEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	Reason  string          `json:"reason,omitempty"`
	Items   []OrderItemData `json:"items"`
}

// ReservationExpiredEvent published by the sweeper when a hold lapses
// and the owning order is auto-cancelled
type ReservationExpiredEvent struct {
	BaseEvent
	OrderID int64           `json:"order_id"`
	Items   []OrderItemData `json:"items"`
}

// Cancellation reasons
const (
	CancelReasonUser    = "user_requested"
	CancelReasonExpired = "reservation_expired"
)
