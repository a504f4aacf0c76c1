package service

import "errors"

// Domain errors surfaced to clients. The text is the user-facing
// message; the HTTP layer picks the status code. Internal causes
// (database errors, geometry faults) are never wrapped into these.
var (
	ErrEmptyCart          = errors.New("Cart is empty")
	ErrInvalidQty         = errors.New("Invalid quantity in cart")
	ErrMissingAddress     = errors.New("Delivery address is required")
	ErrBadPincode         = errors.New("Invalid pincode")
	ErrOutsideServiceArea = errors.New("Address is outside our service area")
	ErrUnknownVariant     = errors.New("Invalid variant in cart")
	ErrInsufficientStock  = errors.New("Insufficient stock for one or more items")
	ErrOrderNotFound      = errors.New("Order not found")
	ErrProductNotFound    = errors.New("Product not found")
	ErrNotPending         = errors.New("Order is no longer pending")
	ErrInvalidStockTarget = errors.New("Stock target must be zero or more")
)
