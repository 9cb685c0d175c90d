package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Status is the fulfilment status of an order.
type Status int

const (
	StatusPending Status = iota + 1
	StatusCompleted
	StatusCancelled
)

// String returns the canonical status name used in storage and archives.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s >= StatusPending && s <= StatusCancelled
}

// ParseStatus parses a canonical status name.
func ParseStatus(v string) (Status, error) {
	switch v {
	case "pending":
		return StatusPending, nil
	case "completed":
		return StatusCompleted, nil
	case "cancelled":
		return StatusCancelled, nil
	default:
		return 0, errors.Errorf("unknown order status %q", v)
	}
}

// PaymentMethod is how the customer pays.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "CASH"
	PaymentMobileWallet PaymentMethod = "MOMO"
	PaymentBankTransfer PaymentMethod = "BANK"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentMobileWallet, PaymentBankTransfer:
		return true
	}
	return false
}

// PaymentTiming is when the customer pays relative to delivery.
type PaymentTiming string

const (
	PaymentPrepaid  PaymentTiming = "PREPAID"
	PaymentPostpaid PaymentTiming = "POSTPAID"
)

// Valid reports whether t is a supported payment timing.
func (t PaymentTiming) Valid() bool {
	return t == PaymentPrepaid || t == PaymentPostpaid
}

// Customer is the identity copied into an order at creation time.
type Customer struct {
	Name  string
	Phone string
	Email string
}

// Key returns the normalised email used to identify a customer.
func (c Customer) Key() string {
	return strings.ToLower(strings.TrimSpace(c.Email))
}

// Line is a snapshot of a menu item at the time it was ordered.
type Line struct {
	ItemID    string `json:"itemId"`
	Name      string `json:"name"`
	UnitPrice int64  `json:"unitPrice"`
	Quantity  int    `json:"quantity"`
}

// Subtotal returns unit price times quantity.
func (l Line) Subtotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// Order is a placed customer order.
type Order struct {
	ID            string
	Customer      Customer
	Lines         []Line
	Status        Status
	IsPaid        bool
	PaymentMethod PaymentMethod
	PaymentTiming PaymentTiming
	Note          string
	CreatedAt     time.Time
}

// TotalPrice sums the order lines. It is recomputed on every call and
// never stored.
func (o *Order) TotalPrice() int64 {
	var total int64
	for _, l := range o.Lines {
		total += l.Subtotal()
	}
	return total
}

// TotalQuantity sums line quantities.
func (o *Order) TotalQuantity() int {
	var n int
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// State returns the lifecycle state of the order.
func (o *Order) State() State {
	return State{Status: o.Status, IsPaid: o.IsPaid}
}

func (o *Order) setState(s State) {
	o.Status = s.Status
	o.IsPaid = s.IsPaid
}

// Criteria filters order searches. Zero values are unbounded. CustomerName
// matches a case-insensitive substring, CustomerEmail the normalised email.
// From is inclusive, To is exclusive.
type Criteria struct {
	CustomerName  string
	CustomerEmail string
	From          time.Time
	To            time.Time
}

// Repository defines persistence operations for orders.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// Get returns ErrNotFound when no order has the given id.
	Get(ctx context.Context, id string) (*Order, error)
	// Search returns matching orders sorted by creation time.
	Search(ctx context.Context, c Criteria) ([]Order, error)
	// Update stores o if the persisted state still equals expected and
	// returns ErrConflict otherwise.
	Update(ctx context.Context, o *Order, expected State) error
}
