package report

import (
	"context"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/xenking/bistro/internal/domain/order"
)

// Service loads a snapshot of orders and runs one aggregation over it.
type Service struct {
	orders order.Repository
	engine *Engine
	tracer trace.Tracer
}

// NewService creates a report Service. A nil tracer provider disables
// tracing.
func NewService(orders order.Repository, engine *Engine, tp trace.TracerProvider) *Service {
	if tp == nil {
		tp = noop.NewTracerProvider()
	}
	return &Service{
		orders: orders,
		engine: engine,
		tracer: tp.Tracer("github.com/xenking/bistro/internal/domain/report"),
	}
}

// Summary returns today's orders, the dish breakdown of today and all
// yearly summaries.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	var out Summary
	err := s.run(ctx, "report.Summary", func(orders []order.Order) {
		out = s.engine.Aggregate(orders)
	})
	return out, err
}

// Orders returns the admin orders overview.
func (s *Service) Orders(ctx context.Context) (OrdersOverview, error) {
	var out OrdersOverview
	err := s.run(ctx, "report.Orders", func(orders []order.Order) {
		out = s.engine.OrdersOverview(orders)
	})
	return out, err
}

// Customers returns the admin customers overview.
func (s *Service) Customers(ctx context.Context) (CustomersOverview, error) {
	var out CustomersOverview
	err := s.run(ctx, "report.Customers", func(orders []order.Order) {
		out = s.engine.CustomersOverview(orders)
	})
	return out, err
}

// Billing returns the admin billing overview.
func (s *Service) Billing(ctx context.Context) (BillingOverview, error) {
	var out BillingOverview
	err := s.run(ctx, "report.Billing", func(orders []order.Order) {
		out = s.engine.BillingOverview(orders)
	})
	return out, err
}

func (s *Service) run(ctx context.Context, name string, fn func([]order.Order)) error {
	ctx, span := s.tracer.Start(ctx, name)
	defer span.End()

	orders, err := s.orders.Search(ctx, order.Criteria{})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load orders")
		return errors.Wrap(err, "load orders")
	}
	span.SetAttributes(attribute.Int("orders.count", len(orders)))
	fn(orders)
	return nil
}
