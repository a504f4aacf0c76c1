package models

import "time"

// Product represents a catalog entry
type Product struct {
	ID          int64     `db:"id" json:"id"`
	Title       string    `db:"title" json:"title"`
	Slug        string    `db:"slug" json:"slug"`
	Description string    `db:"description" json:"description,omitempty"`
	Brand       string    `db:"brand" json:"brand,omitempty"`
	Color       string    `db:"color" json:"color,omitempty"`
	PriceMRP    int64     `db:"price_mrp" json:"price_mrp"`
	PriceSale   int64     `db:"price_sale" json:"price_sale"`
	Active      bool      `db:"active" json:"active"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`

	Variants []Variant `db:"-" json:"variants,omitempty"`
}

// Variant is a sellable size/SKU unit of a product. SalePrice carries
// the owning product's current sale price, joined in on read.
type Variant struct {
	ID        int64  `db:"id" json:"id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Size      string `db:"size" json:"size"`
	SKU       string `db:"sku" json:"sku"`
	StockQty  int    `db:"stock_qty" json:"stock_qty"`
	SalePrice int64  `db:"price_sale" json:"price_sale,omitempty"`
}

// User is a minimal identity keyed by phone
type User struct {
	ID        int64     `db:"id" json:"id"`
	Phone     string    `db:"phone" json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// GuestPhone is the sentinel identity for anonymous orders.
const GuestPhone = "guest"

// Address is a delivery address snapshot. Immutable once created;
// each order references exactly one snapshot.
type Address struct {
	ID       int64    `db:"id" json:"id"`
	UserID   int64    `db:"user_id" json:"user_id"`
	Name     string   `db:"name" json:"name"`
	Phone    string   `db:"phone" json:"phone"`
	Line1    string   `db:"line1" json:"line1"`
	Line2    string   `db:"line2" json:"line2,omitempty"`
	Landmark string   `db:"landmark" json:"landmark,omitempty"`
	Pincode  string   `db:"pincode" json:"pincode"`
	Lat      *float64 `db:"lat" json:"lat,omitempty"`
	Lng      *float64 `db:"lng" json:"lng,omitempty"`
}

// Order is the aggregate root
type Order struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	AddressID int64     `db:"address_id" json:"address_id"`
	Subtotal  int64     `db:"subtotal" json:"subtotal"`
	TBYB      bool      `db:"tbyb" json:"tbyb"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`

	Items []OrderItem `db:"-" json:"items,omitempty"`
}

// OrderItem is a line item with the price captured at order time
type OrderItem struct {
	ID        int64 `db:"id" json:"id"`
	OrderID   int64 `db:"order_id" json:"order_id"`
	VariantID int64 `db:"variant_id" json:"variant_id"`
	Qty       int   `db:"qty" json:"qty"`
	Price     int64 `db:"price" json:"price"`
}

// StockReservation is a time-limited hold on variant stock tied to a
// PENDING order. Deleted on confirm or cancel.
type StockReservation struct {
	ID        int64     `db:"id" json:"id"`
	OrderID   int64     `db:"order_id" json:"order_id"`
	VariantID int64     `db:"variant_id" json:"variant_id"`
	Qty       int       `db:"qty" json:"qty"`
	ExpiresAt time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Order statuses. PENDING is the only non-terminal state: it may move
// to CONFIRMED or CANCELLED, both terminal.
const (
	OrderStatusPending   = "PENDING"
	OrderStatusConfirmed = "CONFIRMED"
	OrderStatusCancelled = "CANCELLED"
)

// CanTransition reports whether an order may move between the two
// statuses. Only PENDING has outgoing edges.
func CanTransition(from, to string) bool {
	if from != OrderStatusPending {
		return false
	}
	return to == OrderStatusConfirmed || to == OrderStatusCancelled
}
