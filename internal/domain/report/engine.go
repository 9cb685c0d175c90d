// Package report rolls raw orders into daily, monthly and yearly summaries
// and customer rankings.
//
// All aggregation is recomputed from the order list on every call; nothing
// is cached between calls. Inputs are sorted by creation time (then id)
// before folding, so results never depend on the order the caller supplies.
// Orders missing required fields are logged and left out of every aggregate.
package report

import (
	"context"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"

	"github.com/xenking/bistro/internal/domain/order"
)

// Default limits, matching what the dashboards request.
const (
	DefaultTopCustomers = 10
	DefaultRecentOrders = 10
	DefaultStatsDays    = 30
)

// Engine aggregates orders. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	loc          *time.Location
	now          func() time.Time
	lg           *zap.Logger
	topCustomers int
	recentOrders int
	statsDays    int
	anomalies    metric.Int64Counter
}

// Option configures an Engine.
type Option func(*Engine)

// WithLocation sets the time zone calendar days are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(e *Engine) {
		if loc != nil {
			e.loc = loc
		}
	}
}

// WithClock overrides the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger anomalies are reported to.
func WithLogger(lg *zap.Logger) Option {
	return func(e *Engine) { e.lg = lg }
}

// WithTopCustomers sets how many customers monthly summaries rank.
func WithTopCustomers(n int) Option {
	return func(e *Engine) { e.topCustomers = n }
}

// WithRecentOrders sets how many orders the orders overview lists.
func WithRecentOrders(n int) Option {
	return func(e *Engine) { e.recentOrders = n }
}

// WithStatsDays sets the trailing window of per-day statistics.
func WithStatsDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.statsDays = n
		}
	}
}

// WithMeterProvider counts excluded orders.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(e *Engine) {
		c, err := mp.Meter("github.com/xenking/bistro/internal/domain/report").Int64Counter(
			"bistro.report.anomalies",
			metric.WithDescription("Orders excluded from aggregation because of missing fields"),
		)
		if err == nil {
			e.anomalies = c
		}
	}
}

// NewEngine creates an Engine. Without options it uses UTC and time.Now.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		loc:          time.UTC,
		now:          time.Now,
		lg:           zap.NewNop(),
		topCustomers: DefaultTopCustomers,
		recentOrders: DefaultRecentOrders,
		statsDays:    DefaultStatsDays,
		anomalies:    noop.Int64Counter{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Location returns the configured time zone.
func (e *Engine) Location() *time.Location {
	return e.loc
}

// prepare drops anomalous orders and returns the rest in canonical order.
// The input slice is not modified.
func (e *Engine) prepare(orders []order.Order) []order.Order {
	out := make([]order.Order, 0, len(orders))
	for i := range orders {
		if err := validate(&orders[i]); err != nil {
			e.anomalies.Add(context.Background(), 1, metric.WithAttributes(
				attribute.String("reason", err.Reason),
			))
			e.lg.Warn("Aggregation anomaly, order excluded",
				zap.String("order_id", err.OrderID),
				zap.String("reason", err.Reason),
			)
			continue
		}
		out = append(out, orders[i])
	}
	slices.SortStableFunc(out, func(a, b order.Order) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

// date is a calendar day in the engine's location.
type date struct {
	year  int
	month time.Month
	day   int
}

func (e *Engine) dateOf(t time.Time) date {
	y, m, d := t.In(e.loc).Date()
	return date{year: y, month: m, day: d}
}

func (e *Engine) startOf(d date) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, e.loc)
}

func filter(orders []order.Order, keep func(o *order.Order) bool) []order.Order {
	var out []order.Order
	for i := range orders {
		if keep(&orders[i]) {
			out = append(out, orders[i])
		}
	}
	return out
}

func totals(orders []order.Order) (count, dishes int, spending int64) {
	for i := range orders {
		dishes += orders[i].TotalQuantity()
		spending += orders[i].TotalPrice()
	}
	return len(orders), dishes, spending
}
