package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by lookups that may legitimately miss.
var ErrNotFound = errors.New("not found")

// EmptyCartError is returned when checkout finds no lines to convert.
type EmptyCartError struct {
	CartID string
}

func (e *EmptyCartError) Error() string {
	return "cart is empty"
}

// InsufficientStockError names the product whose stock cannot cover the request.
// InCart is the quantity already held in the cart when the request was an add.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
	InCart      int
}

func (e *InsufficientStockError) Error() string {
	if e.InCart > 0 {
		return fmt.Sprintf("insufficient stock for %q: %d in cart, %d requested, %d available",
			e.ProductName, e.InCart, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %q: %d requested, %d available",
		e.ProductName, e.Requested, e.Available)
}

// InvalidQuantityError rejects non-positive or non-numeric quantities.
type InvalidQuantityError struct {
	Input string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %q: must be a positive whole number", e.Input)
}

// PermissionError is returned when an actor touches a resource it does not own.
type PermissionError struct {
	Resource string
	ID       string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied on %s %s", e.Resource, e.ID)
}

// StockRaceError means the guarded decrement found less stock than validation saw,
// i.e. a concurrent sale won. The caller should prompt a retry.
type StockRaceError struct {
	ProductID   int64
	ProductName string
	Requested   int
}

func (e *StockRaceError) Error() string {
	return fmt.Sprintf("stock for %q changed during checkout", e.ProductName)
}

// InvalidStatusError rejects an order item transition the state machine does not allow.
type InvalidStatusError struct {
	From ItemStatus
	To   ItemStatus
}

func (e *InvalidStatusError) Error() string {
	if e.From == "" {
		return fmt.Sprintf("invalid item status %q", e.To)
	}
	return fmt.Sprintf("cannot move item from %s to %s", e.From, e.To)
}

// IsStockError reports whether err is a stock shortfall of either kind.
func IsStockError(err error) bool {
	var ise *InsufficientStockError
	var sre *StockRaceError
	return errors.As(err, &ise) || errors.As(err, &sre)
}

// ValidationError reports a rejected form field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
