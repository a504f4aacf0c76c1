package service

import (
	"context"
	"errors"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/models"
	"github.com/qloteam/Qloset-sub000/internal/store"
	"github.com/qloteam/Qloset-sub000/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the persistence surface the order service needs. WithTx
// runs its closure as one atomic unit of work; the reads outside it
// are plain queries.
type Store interface {
	WithTx(ctx context.Context, fn func(tx store.OrderTx) error) error
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
	GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	ListOrders(ctx context.Context) ([]models.Order, error)
	ExpiredPendingOrderIDs(ctx context.Context, now time.Time) ([]int64, error)
}

// EventPublisher publishes order lifecycle events. Publishing is
// best-effort; a publish failure never fails the order operation.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, event *models.OrderCreatedEvent) error
	PublishOrderConfirmed(ctx context.Context, event *models.OrderConfirmedEvent) error
	PublishOrderCancelled(ctx context.Context, event *models.OrderCancelledEvent) error
	PublishReservationExpired(ctx context.Context, event *models.ReservationExpiredEvent) error
}

// OrderService handles order business logic
type OrderService struct {
	store     Store
	publisher EventPublisher
	admission *Admission
	hold      time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

// NewOrderService creates a new order service. hold is how long a
// stock reservation lives before the sweeper may reclaim it.
func NewOrderService(st Store, publisher EventPublisher, admission *Admission, hold time.Duration) *OrderService {
	return &OrderService{
		store:     st,
		publisher: publisher,
		admission: admission,
		hold:      hold,
		now:       time.Now,
		logger:    util.GetLogger(),
	}
}

// AddressInput is the delivery address submitted with an order
type AddressInput struct {
	Name     string   `json:"name"`
	Phone    string   `json:"phone"`
	Line1    string   `json:"line1"`
	Line2    string   `json:"line2,omitempty"`
	Landmark string   `json:"landmark,omitempty"`
	Pincode  string   `json:"pincode"`
	Lat      *float64 `json:"lat,omitempty"`
	Lng      *float64 `json:"lng,omitempty"`
}

// OrderItemRequest is one cart line
type OrderItemRequest struct {
	VariantID int64 `json:"variantId"`
	Qty       int   `json:"qty"`
}

// CreateOrderRequest represents a request to create an order
type CreateOrderRequest struct {
	UserPhone string             `json:"userPhone,omitempty"`
	TBYB      bool               `json:"tbyb,omitempty"`
	Address   *AddressInput      `json:"address"`
	Items     []OrderItemRequest `json:"items"`
}

// OrderResponse is returned by create, confirm and cancel
type OrderResponse struct {
	OK       bool   `json:"ok"`
	OrderID  int64  `json:"orderId"`
	Subtotal int64  `json:"subtotal,omitempty"`
	Status   string `json:"status"`
}

// CreateOrder validates admission, then creates the order, its items
// and stock reservations in one transaction. Stock is taken with a
// conditional decrement; any shortfall aborts the whole unit of work,
// so either every row lands or none do.
func (s *OrderService) CreateOrder(ctx context.Context, req *CreateOrderRequest) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CreateOrder")
	defer span.End()

	if len(req.Items) == 0 {
		util.OrdersRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}
	for _, it := range req.Items {
		if it.Qty < 1 {
			util.OrdersRejectedTotal.WithLabelValues("invalid_qty").Inc()
			return nil, ErrInvalidQty
		}
	}
	if req.Address == nil || req.Address.Line1 == "" {
		util.OrdersRejectedTotal.WithLabelValues("missing_address").Inc()
		return nil, ErrMissingAddress
	}
	if err := s.admission.Check(req.Address); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("not_serviceable").Inc()
		return nil, err
	}

	phone := req.UserPhone
	if phone == "" {
		phone = models.GuestPhone
	}

	start := time.Now()
	var created models.Order
	var eventItems []models.OrderItemData

	err := s.store.WithTx(ctx, func(tx store.OrderTx) error {
		ids := make([]int64, 0, len(req.Items))
		seen := make(map[int64]bool, len(req.Items))
		for _, it := range req.Items {
			if !seen[it.VariantID] {
				seen[it.VariantID] = true
				ids = append(ids, it.VariantID)
			}
		}

		variants, err := tx.VariantsByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[int64]models.Variant, len(variants))
		for _, v := range variants {
			byID[v.ID] = v
		}

		// price every line from the product's current sale price
		var subtotal int64
		prices := make([]int64, len(req.Items))
		for i, it := range req.Items {
			v, ok := byID[it.VariantID]
			if !ok {
				return ErrUnknownVariant
			}
			prices[i] = v.SalePrice
			subtotal += v.SalePrice * int64(it.Qty)
		}

		// take stock in client-submitted order; a zero-row update is
		// the insufficient-stock (or concurrent-modification) signal
		for _, it := range req.Items {
			ok, err := tx.DecrementStock(ctx, it.VariantID, it.Qty)
			if err != nil {
				return err
			}
			if !ok {
				return ErrInsufficientStock
			}
		}

		userID, err := tx.UpsertUser(ctx, phone)
		if err != nil {
			return err
		}

		addr := &models.Address{
			UserID:   userID,
			Name:     req.Address.Name,
			Phone:    req.Address.Phone,
			Line1:    req.Address.Line1,
			Line2:    req.Address.Line2,
			Landmark: req.Address.Landmark,
			Pincode:  req.Address.Pincode,
			Lat:      req.Address.Lat,
			Lng:      req.Address.Lng,
		}
		if err := tx.CreateAddress(ctx, addr); err != nil {
			return err
		}

		created = models.Order{
			UserID:    userID,
			AddressID: addr.ID,
			Subtotal:  subtotal,
			TBYB:      req.TBYB,
			Status:    models.OrderStatusPending,
		}
		if err := tx.CreateOrder(ctx, &created); err != nil {
			return err
		}

		expiresAt := s.now().Add(s.hold)
		eventItems = eventItems[:0]
		for i, it := range req.Items {
			item := &models.OrderItem{
				OrderID:   created.ID,
				VariantID: it.VariantID,
				Qty:       it.Qty,
				Price:     prices[i],
			}
			if err := tx.CreateOrderItem(ctx, item); err != nil {
				return err
			}
			res := &models.StockReservation{
				OrderID:   created.ID,
				VariantID: it.VariantID,
				Qty:       it.Qty,
				ExpiresAt: expiresAt,
			}
			if err := tx.CreateReservation(ctx, res); err != nil {
				return err
			}
			eventItems = append(eventItems, models.OrderItemData{
				VariantID: it.VariantID,
				Qty:       it.Qty,
				Price:     prices[i],
			})
		}
		return nil
	})
	util.StockDecrementLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		switch {
		case errors.Is(err, ErrUnknownVariant):
			util.OrdersRejectedTotal.WithLabelValues("unknown_variant").Inc()
		case errors.Is(err, ErrInsufficientStock):
			util.OrdersRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		default:
			util.OrdersRejectedTotal.WithLabelValues("internal").Inc()
		}
		return nil, err
	}

	util.OrdersCreatedTotal.Inc()
	s.logger.Info("Order created",
		zap.Int64("order_id", created.ID),
		zap.Int64("subtotal", created.Subtotal),
		zap.Bool("tbyb", created.TBYB))

	s.publish(func() error {
		return s.publisher.PublishOrderCreated(ctx, &models.OrderCreatedEvent{
			BaseEvent: s.baseEvent(models.EventTypeOrderCreated),
			OrderID:   created.ID,
			UserID:    created.UserID,
			Subtotal:  created.Subtotal,
			TBYB:      created.TBYB,
			Items:     eventItems,
		})
	})

	return &OrderResponse{
		OK:       true,
		OrderID:  created.ID,
		Subtotal: created.Subtotal,
		Status:   created.Status,
	}, nil
}

// ConfirmOrder moves a PENDING order to CONFIRMED and clears its
// reservations. Stock stays decremented. Confirming a non-PENDING
// order is rejected.
func (s *OrderService) ConfirmOrder(ctx context.Context, orderID int64) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.ConfirmOrder")
	defer span.End()

	var eventItems []models.OrderItemData
	err := s.store.WithTx(ctx, func(tx store.OrderTx) error {
		if _, err := tx.OrderByID(ctx, orderID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		ok, err := tx.TransitionOrder(ctx, orderID, models.OrderStatusPending, models.OrderStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPending
		}

		items, err := tx.OrderItemsByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, it := range items {
			eventItems = append(eventItems, models.OrderItemData{
				VariantID: it.VariantID, Qty: it.Qty, Price: it.Price,
			})
		}

		return tx.DeleteReservations(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	util.OrdersConfirmedTotal.Inc()
	s.logger.Info("Order confirmed", zap.Int64("order_id", orderID))

	s.publish(func() error {
		return s.publisher.PublishOrderConfirmed(ctx, &models.OrderConfirmedEvent{
			BaseEvent: s.baseEvent(models.EventTypeOrderConfirmed),
			OrderID:   orderID,
			Items:     eventItems,
		})
	})

	return &OrderResponse{OK: true, OrderID: orderID, Status: models.OrderStatusConfirmed}, nil
}

// CancelOrder moves a PENDING order to CANCELLED, restores every
// reserved quantity to its variant and deletes the reservations. The
// PENDING guard makes a second cancel a no-op rejection instead of a
// double stock credit.
func (s *OrderService) CancelOrder(ctx context.Context, orderID int64) (*OrderResponse, error) {
	return s.cancel(ctx, orderID, models.CancelReasonUser)
}

func (s *OrderService) cancel(ctx context.Context, orderID int64, reason string) (*OrderResponse, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.CancelOrder")
	defer span.End()

	var eventItems []models.OrderItemData
	err := s.store.WithTx(ctx, func(tx store.OrderTx) error {
		if _, err := tx.OrderByID(ctx, orderID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrOrderNotFound
			}
			return err
		}

		ok, err := tx.TransitionOrder(ctx, orderID, models.OrderStatusPending, models.OrderStatusCancelled)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotPending
		}

		reservations, err := tx.ReservationsByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if err := tx.IncrementStock(ctx, r.VariantID, r.Qty); err != nil {
				return err
			}
			eventItems = append(eventItems, models.OrderItemData{
				VariantID: r.VariantID, Qty: r.Qty,
			})
		}

		return tx.DeleteReservations(ctx, orderID)
	})
	if err != nil {
		return nil, err
	}

	util.OrdersCancelledTotal.WithLabelValues(reason).Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.String("reason", reason))

	s.publish(func() error {
		return s.publisher.PublishOrderCancelled(ctx, &models.OrderCancelledEvent{
			BaseEvent: s.baseEvent(models.EventTypeOrderCancelled),
			OrderID:   orderID,
			Reason:    reason,
			Items:     eventItems,
		})
	})

	return &OrderResponse{OK: true, OrderID: orderID, Status: models.OrderStatusCancelled}, nil
}

// ReclaimExpired cancels PENDING orders whose reservations have
// lapsed, restoring their stock. Returns how many orders were
// reclaimed. Orders confirmed while the sweep runs are skipped.
func (s *OrderService) ReclaimExpired(ctx context.Context) (int, error) {
	ids, err := s.store.ExpiredPendingOrderIDs(ctx, s.now())
	if err != nil {
		return 0, err
	}

	reclaimed := 0
	for _, id := range ids {
		if _, err := s.cancel(ctx, id, models.CancelReasonExpired); err != nil {
			if errors.Is(err, ErrNotPending) || errors.Is(err, ErrOrderNotFound) {
				continue
			}
			return reclaimed, err
		}
		reclaimed++
		util.ReservationsSweptTotal.Inc()

		s.publish(func() error {
			return s.publisher.PublishReservationExpired(ctx, &models.ReservationExpiredEvent{
				BaseEvent: s.baseEvent(models.EventTypeReservationExpired),
				OrderID:   id,
			})
		})
	}
	return reclaimed, nil
}

// GetOrder retrieves an order with its items
func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Items = items
	return order, nil
}

// ListOrders retrieves all orders with their items, newest first
func (s *OrderService) ListOrders(ctx context.Context) ([]models.Order, error) {
	orders, err := s.store.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		items, err := s.store.GetOrderItems(ctx, orders[i].ID)
		if err != nil {
			return nil, err
		}
		orders[i].Items = items
	}
	return orders, nil
}

func (s *OrderService) baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: s.now(),
	}
}

func (s *OrderService) publish(fn func() error) {
	if s.publisher == nil {
		return
	}
	if err := fn(); err != nil {
		s.logger.Error("Failed to publish event", zap.Error(err))
	}
}
