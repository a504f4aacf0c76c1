package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/qloteam/Qloset-sub000/internal/models"
)

// ErrNotFound is returned for reads of rows that do not exist.
var ErrNotFound = sql.ErrNoRows

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// ListOrders retrieves all orders, newest first
func (s *Store) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// ExpiredPendingOrderIDs returns ids of PENDING orders that still hold
// at least one reservation past its expiry. Feeds the sweeper.
func (s *Store) ExpiredPendingOrderIDs(ctx context.Context, now time.Time) ([]int64, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids, `
		SELECT DISTINCT o.id
		FROM orders o
		JOIN stock_reservations r ON r.order_id = o.id
		WHERE o.status = $1 AND r.expires_at < $2`,
		models.OrderStatusPending, now)
	return ids, err
}
