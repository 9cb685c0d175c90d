// Package order implements the order lifecycle: placement from a cart, the
// daily cutoff gate for customer edits, and the status/payment state machine.
package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/bistro/internal/domain/cart"
	"github.com/xenking/bistro/internal/domain/catalog"
)

// PlaceOrderRequest holds the input for placing an order.
type PlaceOrderRequest struct {
	Customer      Customer
	Cart          *cart.Cart
	PaymentMethod PaymentMethod
	PaymentTiming PaymentTiming
	Note          string
}

// Edit describes a customer change to a pending order. Nil fields are kept.
type Edit struct {
	Cart          *cart.Cart
	Note          *string
	PaymentMethod *PaymentMethod
	PaymentTiming *PaymentTiming
}

// Service encapsulates order lifecycle business logic. It decides whether
// an operation is legal; atomic application is left to the Repository.
type Service struct {
	orders Repository
	menu   catalog.Repository
	cutoff Cutoff
	now    func() time.Time
	newID  func() string

	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(fn func() string) Option {
	return func(s *Service) { s.newID = fn }
}

// WithMeterProvider records placement and rejection counters.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(s *Service) {
		meter := mp.Meter("github.com/xenking/bistro/internal/domain/order")
		if c, err := meter.Int64Counter("bistro.orders.placed",
			metric.WithDescription("Orders successfully placed"),
		); err == nil {
			s.placed = c
		}
		if c, err := meter.Int64Counter("bistro.orders.rejected",
			metric.WithDescription("Order operations rejected by lifecycle rules"),
		); err == nil {
			s.rejected = c
		}
	}
}

// NewService creates an order Service.
func NewService(orders Repository, menu catalog.Repository, cutoff Cutoff, opts ...Option) *Service {
	s := &Service{
		orders:   orders,
		menu:     menu,
		cutoff:   cutoff,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
		placed:   noop.Int64Counter{},
		rejected: noop.Int64Counter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Cutoff returns the configured daily cutoff.
func (s *Service) Cutoff() Cutoff {
	return s.cutoff
}

// PlaceOrder validates the cart against the cutoff and the menu, snapshots
// names and prices into order lines, persists the order and clears the cart.
func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*Order, error) {
	if req.Cart == nil || req.Cart.Len() == 0 {
		return nil, s.reject(ctx, "place", ErrEmptyCart)
	}

	now := s.now()
	if !s.cutoff.Allows(now, now) {
		return nil, s.reject(ctx, "place", &CutoffExceededError{Cutoff: s.cutoff.On(now)})
	}

	if !req.PaymentMethod.Valid() || !req.PaymentTiming.Valid() {
		return nil, s.reject(ctx, "place", ErrInvalidPayment)
	}
	if req.Customer.Key() == "" {
		return nil, s.reject(ctx, "place", ErrInvalidCustomer)
	}

	lines, err := s.snapshot(ctx, req.Cart, nil)
	if err != nil {
		return nil, s.reject(ctx, "place", err)
	}

	o := &Order{
		ID:            s.newID(),
		Customer:      req.Customer,
		Lines:         lines,
		Status:        Initial.Status,
		IsPaid:        Initial.IsPaid,
		PaymentMethod: req.PaymentMethod,
		PaymentTiming: req.PaymentTiming,
		Note:          req.Note,
		CreatedAt:     now,
	}
	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	req.Cart.Clear()
	s.placed.Add(ctx, 1, metric.WithAttributes(
		attribute.String("payment_method", string(o.PaymentMethod)),
	))
	return o, nil
}

// EditOrder applies a customer edit. Edits are only legal for pending
// orders and only before the cutoff of the order's creation day.
func (s *Service) EditOrder(ctx context.Context, actor Actor, id string, edit Edit) (*Order, error) {
	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	expected := o.State()
	if _, err := Next(expected, TransitionEdit); err != nil {
		return nil, s.reject(ctx, "edit", err)
	}
	if !s.cutoff.Allows(o.CreatedAt, s.now()) {
		return nil, s.reject(ctx, "edit", &CutoffExceededError{Cutoff: s.cutoff.On(o.CreatedAt)})
	}

	if edit.Cart != nil {
		if edit.Cart.Len() == 0 {
			return nil, s.reject(ctx, "edit", ErrEmptyCart)
		}
		frozen := make(map[string]Line, len(o.Lines))
		for _, l := range o.Lines {
			frozen[l.ItemID] = l
		}
		lines, err := s.snapshot(ctx, edit.Cart, frozen)
		if err != nil {
			return nil, s.reject(ctx, "edit", err)
		}
		o.Lines = lines
	}
	if edit.Note != nil {
		o.Note = *edit.Note
	}
	if edit.PaymentMethod != nil {
		if !edit.PaymentMethod.Valid() {
			return nil, s.reject(ctx, "edit", ErrInvalidPayment)
		}
		o.PaymentMethod = *edit.PaymentMethod
	}
	if edit.PaymentTiming != nil {
		if !edit.PaymentTiming.Valid() {
			return nil, s.reject(ctx, "edit", ErrInvalidPayment)
		}
		o.PaymentTiming = *edit.PaymentTiming
	}

	if err := s.orders.Update(ctx, o, expected); err != nil {
		return nil, errors.Wrapf(err, "update order %s", id)
	}
	if edit.Cart != nil {
		edit.Cart.Clear()
	}
	return o, nil
}

// Complete marks a pending order as served. Admin only.
func (s *Service) Complete(ctx context.Context, actor Actor, id string) (*Order, error) {
	return s.transition(ctx, actor, id, TransitionComplete)
}

// MarkPaid records payment. Admin only.
func (s *Service) MarkPaid(ctx context.Context, actor Actor, id string) (*Order, error) {
	return s.transition(ctx, actor, id, TransitionMarkPaid)
}

// Cancel cancels an unpaid pending order. Customers may only cancel their
// own orders before the cutoff; admins are not gated.
func (s *Service) Cancel(ctx context.Context, actor Actor, id string) (*Order, error) {
	return s.transition(ctx, actor, id, TransitionCancel)
}

func (s *Service) transition(ctx context.Context, actor Actor, id string, t Transition) (*Order, error) {
	if t != TransitionCancel && !actor.IsAdmin() {
		return nil, s.reject(ctx, string(t), ErrForbidden)
	}

	o, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	from := o.State()
	next, err := Next(from, t)
	if err != nil {
		return nil, s.reject(ctx, string(t), err)
	}
	if !actor.IsAdmin() && !s.cutoff.Allows(o.CreatedAt, s.now()) {
		return nil, s.reject(ctx, string(t), &CutoffExceededError{Cutoff: s.cutoff.On(o.CreatedAt)})
	}

	o.setState(next)
	if err := s.orders.Update(ctx, o, from); err != nil {
		return nil, errors.Wrapf(err, "%s order %s", t, id)
	}
	return o, nil
}

// Get returns an order visible to actor.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*Order, error) {
	return s.load(ctx, actor, id)
}

// Search returns orders matching c. Customers are restricted to their own
// orders regardless of c.
func (s *Service) Search(ctx context.Context, actor Actor, c Criteria) ([]Order, error) {
	if !actor.IsAdmin() {
		key := actor.Customer.Key()
		if key == "" {
			return nil, ErrForbidden
		}
		c.CustomerEmail = key
	}
	orders, err := s.orders.Search(ctx, c)
	if err != nil {
		return nil, errors.Wrap(err, "search orders")
	}
	return orders, nil
}

func (s *Service) load(ctx context.Context, actor Actor, id string) (*Order, error) {
	o, err := s.orders.Get(ctx, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %s", id)
	}
	// Foreign orders look missing to customers.
	if !actor.Owns(o) {
		return nil, ErrNotFound
	}
	return o, nil
}

// snapshot converts cart lines into order lines priced from the menu in a
// single batch. Items present in frozen keep their original name and price.
func (s *Service) snapshot(ctx context.Context, c *cart.Cart, frozen map[string]Line) ([]Line, error) {
	selected := c.Lines()

	var ids []string
	for _, sel := range selected {
		if _, ok := frozen[sel.Item.ID]; !ok {
			ids = append(ids, sel.Item.ID)
		}
	}

	menu := make(map[string]catalog.MenuItem, len(ids))
	if len(ids) > 0 {
		items, err := s.menu.GetByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "get menu items")
		}
		for _, it := range items {
			menu[it.ID] = it
		}
	}

	lines := make([]Line, 0, len(selected))
	for _, sel := range selected {
		if f, ok := frozen[sel.Item.ID]; ok {
			f.Quantity = sel.Quantity
			lines = append(lines, f)
			continue
		}
		it, ok := menu[sel.Item.ID]
		if !ok {
			return nil, &ItemNotFoundError{ItemID: sel.Item.ID}
		}
		if !it.InStock(sel.Quantity) {
			return nil, &ItemUnavailableError{ItemID: it.ID, Requested: sel.Quantity, Available: it.Available}
		}
		lines = append(lines, Line{
			ItemID:    it.ID,
			Name:      it.Name,
			UnitPrice: it.UnitPrice,
			Quantity:  sel.Quantity,
		})
	}
	return lines, nil
}

func (s *Service) reject(ctx context.Context, op string, err error) error {
	s.rejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("operation", op),
		attribute.String("kind", Kind(err)),
	))
	return err
}
