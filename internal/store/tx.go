package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/qloteam/Qloset-sub000/internal/models"

	"github.com/jmoiron/sqlx"
)

// OrderTx is the mutation surface available inside a unit of work.
// Every method runs on the same database transaction; if the closure
// passed to WithTx returns an error, nothing done through OrderTx
// persists.
type OrderTx interface {
	VariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error)

	// DecrementStock subtracts qty from the variant's stock only if
	// enough is available, reporting whether a row was updated. A
	// false result with nil error is the insufficient-stock signal.
	DecrementStock(ctx context.Context, variantID int64, qty int) (bool, error)
	IncrementStock(ctx context.Context, variantID int64, qty int) error

	UpsertUser(ctx context.Context, phone string) (int64, error)
	CreateAddress(ctx context.Context, addr *models.Address) error
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateOrderItem(ctx context.Context, item *models.OrderItem) error

	CreateReservation(ctx context.Context, res *models.StockReservation) error
	ReservationsByOrder(ctx context.Context, orderID int64) ([]models.StockReservation, error)
	DeleteReservations(ctx context.Context, orderID int64) error

	OrderByID(ctx context.Context, orderID int64) (*models.Order, error)
	OrderItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error)

	// TransitionOrder moves an order between statuses only if it is
	// currently in the from status, reporting whether a row changed.
	TransitionOrder(ctx context.Context, orderID int64, from, to string) (bool, error)

	VariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error)
	SetVariantStock(ctx context.Context, variantID int64, qty int) error
	CreateVariant(ctx context.Context, v *models.Variant) error
	ProductByID(ctx context.Context, productID int64) (*models.Product, error)
}

// WithTx runs fn inside a database transaction. The transaction is
// committed only when fn returns nil; any error (or panic unwinding)
// rolls back every write fn performed.
func (s *Store) WithTx(ctx context.Context, fn func(tx OrderTx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&orderTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

type orderTx struct {
	tx *sqlx.Tx
}

func (t *orderTx) VariantsByIDs(ctx context.Context, ids []int64) ([]models.Variant, error) {
	if len(ids) == 0 {
		return []models.Variant{}, nil
	}

	query, args, err := sqlx.In(
		"SELECT "+variantCols+" FROM variants v JOIN products p ON p.id = v.product_id WHERE v.id IN (?)", ids)
	if err != nil {
		return nil, err
	}
	query = t.tx.Rebind(query)

	var variants []models.Variant
	err = t.tx.SelectContext(ctx, &variants, query, args...)
	return variants, err
}

func (t *orderTx) DecrementStock(ctx context.Context, variantID int64, qty int) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE variants SET stock_qty = stock_qty - $1 WHERE id = $2 AND stock_qty >= $1",
		qty, variantID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *orderTx) IncrementStock(ctx context.Context, variantID int64, qty int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE variants SET stock_qty = stock_qty + $1 WHERE id = $2",
		qty, variantID)
	return err
}

func (t *orderTx) UpsertUser(ctx context.Context, phone string) (int64, error) {
	var id int64
	err := t.tx.GetContext(ctx, &id, `
		INSERT INTO users (phone) VALUES ($1)
		ON CONFLICT (phone) DO UPDATE SET phone = EXCLUDED.phone
		RETURNING id`, phone)
	return id, err
}

func (t *orderTx) CreateAddress(ctx context.Context, addr *models.Address) error {
	return t.tx.GetContext(ctx, &addr.ID, `
		INSERT INTO addresses (user_id, name, phone, line1, line2, landmark, pincode, lat, lng)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		addr.UserID, addr.Name, addr.Phone, addr.Line1, addr.Line2,
		addr.Landmark, addr.Pincode, addr.Lat, addr.Lng)
}

func (t *orderTx) CreateOrder(ctx context.Context, order *models.Order) error {
	return t.tx.QueryRowxContext(ctx, `
		INSERT INTO orders (user_id, address_id, subtotal, tbyb, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.AddressID, order.Subtotal, order.TBYB, order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (t *orderTx) CreateOrderItem(ctx context.Context, item *models.OrderItem) error {
	return t.tx.GetContext(ctx, &item.ID, `
		INSERT INTO order_items (order_id, variant_id, qty, price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		item.OrderID, item.VariantID, item.Qty, item.Price)
}

func (t *orderTx) CreateReservation(ctx context.Context, res *models.StockReservation) error {
	return t.tx.GetContext(ctx, &res.ID, `
		INSERT INTO stock_reservations (order_id, variant_id, qty, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		res.OrderID, res.VariantID, res.Qty, res.ExpiresAt)
}

func (t *orderTx) ReservationsByOrder(ctx context.Context, orderID int64) ([]models.StockReservation, error) {
	var out []models.StockReservation
	err := t.tx.SelectContext(ctx, &out,
		"SELECT * FROM stock_reservations WHERE order_id = $1 ORDER BY id", orderID)
	return out, err
}

func (t *orderTx) DeleteReservations(ctx context.Context, orderID int64) error {
	_, err := t.tx.ExecContext(ctx,
		"DELETE FROM stock_reservations WHERE order_id = $1", orderID)
	return err
}

func (t *orderTx) OrderByID(ctx context.Context, orderID int64) (*models.Order, error) {
	var order models.Order
	err := t.tx.GetContext(ctx, &order,
		"SELECT * FROM orders WHERE id = $1 FOR UPDATE", orderID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (t *orderTx) OrderItemsByOrder(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := t.tx.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

func (t *orderTx) TransitionOrder(ctx context.Context, orderID int64, from, to string) (bool, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (t *orderTx) VariantsByProduct(ctx context.Context, productID int64) ([]models.Variant, error) {
	var variants []models.Variant
	err := t.tx.SelectContext(ctx, &variants, `
		SELECT id, product_id, size, sku, stock_qty FROM variants
		WHERE product_id = $1 ORDER BY id FOR UPDATE`, productID)
	return variants, err
}

func (t *orderTx) SetVariantStock(ctx context.Context, variantID int64, qty int) error {
	_, err := t.tx.ExecContext(ctx,
		"UPDATE variants SET stock_qty = $1 WHERE id = $2", qty, variantID)
	return err
}

func (t *orderTx) CreateVariant(ctx context.Context, v *models.Variant) error {
	return t.tx.GetContext(ctx, &v.ID, `
		INSERT INTO variants (product_id, size, sku, stock_qty)
		VALUES ($1, $2, $3, $4)
		RETURNING id`,
		v.ProductID, v.Size, v.SKU, v.StockQty)
}

func (t *orderTx) ProductByID(ctx context.Context, productID int64) (*models.Product, error) {
	var product models.Product
	err := t.tx.GetContext(ctx, &product,
		"SELECT * FROM products WHERE id = $1", productID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}
