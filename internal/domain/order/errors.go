package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for order operations. Typed errors below match them with
// errors.Is.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrCutoffExceeded    = errors.New("order cutoff time exceeded")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrInvalidPayment    = errors.New("invalid payment selection")
	ErrInvalidCustomer   = errors.New("customer email is required")
	ErrNotFound          = errors.New("order not found")
	ErrConflict          = errors.New("order was modified concurrently")
	ErrForbidden         = errors.New("operation not permitted")
	ErrItemNotFound      = errors.New("menu item not found")
	ErrItemUnavailable   = errors.New("menu item unavailable")
)

// CutoffExceededError reports a placement or edit after the day's cutoff.
type CutoffExceededError struct {
	Cutoff time.Time
}

func (e *CutoffExceededError) Error() string {
	return fmt.Sprintf("orders closed at %s", e.Cutoff.Format("2006-01-02 15:04"))
}

func (e *CutoffExceededError) Is(target error) bool { return target == ErrCutoffExceeded }

// InvalidTransitionError reports a lifecycle operation that is not legal from
// the order's current state.
type InvalidTransitionError struct {
	From       State
	Transition Transition
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot %s order in state %s", e.Transition, e.From)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// ItemNotFoundError indicates a selected item is not on the menu.
type ItemNotFoundError struct {
	ItemID string
}

func (e *ItemNotFoundError) Error() string {
	return fmt.Sprintf("menu item %s not found", e.ItemID)
}

func (e *ItemNotFoundError) Is(target error) bool { return target == ErrItemNotFound }

// ItemUnavailableError indicates the kitchen cannot serve the requested quantity.
type ItemUnavailableError struct {
	ItemID    string
	Requested int
	Available int
}

func (e *ItemUnavailableError) Error() string {
	return fmt.Sprintf("menu item %s: requested %d, available %d", e.ItemID, e.Requested, e.Available)
}

func (e *ItemUnavailableError) Is(target error) bool { return target == ErrItemUnavailable }

// Kind returns a stable machine-readable name for err.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrCutoffExceeded):
		return "cutoff_exceeded"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrInvalidPayment):
		return "invalid_payment"
	case errors.Is(err, ErrInvalidCustomer):
		return "invalid_customer"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrItemNotFound):
		return "item_not_found"
	case errors.Is(err, ErrItemUnavailable):
		return "item_unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "internal"
	}
}
