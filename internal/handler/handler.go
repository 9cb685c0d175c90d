// Package handler exposes the order and report services over HTTP.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/domain/report"
	"github.com/xenking/bistro/internal/wire"
	"github.com/xenking/bistro/pkg/httpmiddleware"
)

// DefaultMaxBodyBytes limits request bodies when Config.MaxBodyBytes is zero.
const DefaultMaxBodyBytes = 64 << 10

// OrderService is the order lifecycle used by the handler.
type OrderService interface {
	PlaceOrder(ctx context.Context, req order.PlaceOrderRequest) (*order.Order, error)
	EditOrder(ctx context.Context, actor order.Actor, id string, edit order.Edit) (*order.Order, error)
	Complete(ctx context.Context, actor order.Actor, id string) (*order.Order, error)
	MarkPaid(ctx context.Context, actor order.Actor, id string) (*order.Order, error)
	Cancel(ctx context.Context, actor order.Actor, id string) (*order.Order, error)
	Get(ctx context.Context, actor order.Actor, id string) (*order.Order, error)
	Search(ctx context.Context, actor order.Actor, c order.Criteria) ([]order.Order, error)
}

// ReportService computes report documents.
type ReportService interface {
	Summary(ctx context.Context) (report.Summary, error)
	Orders(ctx context.Context) (report.OrdersOverview, error)
	Customers(ctx context.Context) (report.CustomersOverview, error)
	Billing(ctx context.Context) (report.BillingOverview, error)
}

// Identifier resolves the caller of a request.
type Identifier interface {
	Identify(r *http.Request) (order.Actor, error)
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	StatusCodes wire.StatusCodes
	Settings    wire.Settings
	// Location interprets search dates. Defaults to UTC.
	Location     *time.Location
	MaxBodyBytes int64
	// PlaceLimiter throttles order placement per customer. Nil disables it.
	PlaceLimiter *httpmiddleware.Limiter
	// Now overrides the clock used for response timestamps.
	Now func() time.Time
}

// Handler serves the HTTP API.
type Handler struct {
	menu    catalog.Repository
	orders  OrderService
	reports ReportService
	auth    Identifier

	codes        wire.StatusCodes
	settings     wire.Settings
	loc          *time.Location
	maxBodyBytes int64
	limiter      *httpmiddleware.Limiter
	now          func() time.Time
}

// New constructs a Handler.
func New(
	cfg Config,
	menu catalog.Repository,
	orders OrderService,
	reports ReportService,
	auth Identifier,
) *Handler {
	h := &Handler{
		menu:         menu,
		orders:       orders,
		reports:      reports,
		auth:         auth,
		codes:        cfg.StatusCodes,
		settings:     cfg.Settings,
		loc:          cfg.Location,
		maxBodyBytes: cfg.MaxBodyBytes,
		limiter:      cfg.PlaceLimiter,
		now:          cfg.Now,
	}
	if h.loc == nil {
		h.loc = time.UTC
	}
	if h.maxBodyBytes <= 0 {
		h.maxBodyBytes = DefaultMaxBodyBytes
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// Routes registers the API under /api/v1 on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

// Register adds the API routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	const p = "/api/v1"

	mux.HandleFunc("GET "+p+"/menu", h.ListMenu)
	mux.HandleFunc("GET "+p+"/settings", h.GetSettings)

	mux.Handle("POST "+p+"/orders/place", h.authed(h.placeLimited(h.PlaceOrder)))
	mux.Handle("GET "+p+"/orders/search", h.authed(h.SearchOrders))
	mux.Handle("GET "+p+"/orders/summary", h.authed(h.OrderSummary))
	mux.Handle("PUT "+p+"/orders/delete/{id}", h.authed(h.CancelOrder))
	mux.Handle("GET "+p+"/orders/{id}", h.authed(h.GetOrder))
	mux.Handle("PUT "+p+"/orders/{id}", h.authed(h.EditOrder))

	mux.Handle("GET "+p+"/admin/orders/summary", h.admin(h.OrdersOverview))
	mux.Handle("PUT "+p+"/admin/orders/confirm/{id}", h.admin(h.ConfirmOrder))
	mux.Handle("PUT "+p+"/admin/orders/complete/{id}", h.admin(h.CompleteOrder))
	mux.Handle("PUT "+p+"/admin/orders/cancel/{id}", h.admin(h.CancelOrder))
	mux.Handle("GET "+p+"/admin/customers/summary", h.admin(h.CustomersOverview))
	mux.Handle("GET "+p+"/admin/billing/summary", h.admin(h.BillingOverview))
}

type actorKey struct{}

func withActor(ctx context.Context, a order.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// actorFrom returns the actor stored by authed or admin.
func actorFrom(ctx context.Context) order.Actor {
	a, _ := ctx.Value(actorKey{}).(order.Actor)
	return a
}

func (h *Handler) authed(fn http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, err := h.auth.Identify(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		fn(w, r.WithContext(withActor(r.Context(), actor)))
	})
}

func (h *Handler) admin(fn http.HandlerFunc) http.Handler {
	return h.authed(func(w http.ResponseWriter, r *http.Request) {
		if !actorFrom(r.Context()).IsAdmin() {
			h.writeError(w, r, order.ErrForbidden)
			return
		}
		fn(w, r)
	})
}

func (h *Handler) placeLimited(fn http.HandlerFunc) http.HandlerFunc {
	if h.limiter == nil {
		return fn
	}
	return httpmiddleware.RateLimit(httpmiddleware.RateLimitConfig{
		Limiter: h.limiter,
		Key:     placeKey,
		Reject: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h.writeError(w, r, errRateLimited)
		}),
	})(fn).ServeHTTP
}

// placeKey throttles by the identified customer, or by client address for
// an admin acting without a customer.
func placeKey(r *http.Request) string {
	if key := actorFrom(r.Context()).Customer.Key(); key != "" {
		return "customer:" + key
	}
	return "ip:" + httpmiddleware.ClientIP(r)
}
