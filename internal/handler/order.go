package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/cart"
	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/wire"
)

const dateLayout = "2006-01-02"

// ListMenu returns the menu catalog.
func (h *Handler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menu.List(r.Context())
	if err != nil {
		h.writeError(w, r, errors.Wrap(err, "list menu"))
		return
	}
	var e jx.Encoder
	wire.EncodeMenu(&e, items)
	writeBody(w, http.StatusOK, e.Bytes())
}

// GetSettings returns the client-visible settings.
func (h *Handler) GetSettings(w http.ResponseWriter, _ *http.Request) {
	var e jx.Encoder
	wire.EncodeSettings(&e, &h.settings)
	writeBody(w, http.StatusOK, e.Bytes())
}

// PlaceOrder creates an order for the calling customer.
func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := wire.DecodePlaceRequest(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	placed, err := h.orders.PlaceOrder(r.Context(), order.PlaceOrderRequest{
		Customer:      actorFrom(r.Context()).Customer,
		Cart:          cartOf(req.Items),
		PaymentMethod: req.PaymentMethodValue(),
		PaymentTiming: req.PaymentTimingValue(),
		Note:          req.Note,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusCreated, placed)
}

// EditOrder changes the items, note or payment of a pending order.
func (h *Handler) EditOrder(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	req, err := wire.DecodeEditRequest(body)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	edit := order.Edit{Note: req.Note}
	if req.Items != nil {
		edit.Cart = cartOf(req.Items)
	}
	if req.PaymentMethod != nil {
		m := order.PaymentMethod(*req.PaymentMethod)
		edit.PaymentMethod = &m
	}
	if req.PaymentType != nil {
		t := order.PaymentTiming(*req.PaymentType)
		edit.PaymentTiming = &t
	}

	edited, err := h.orders.EditOrder(r.Context(), actorFrom(r.Context()), r.PathValue("id"), edit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, edited)
}

// GetOrder returns a single order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), actorFrom(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeOrder(w, http.StatusOK, o)
}

// SearchOrders filters orders by customer name and an inclusive date range.
func (h *Handler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	c, err := h.criteria(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	orders, err := h.orders.Search(r.Context(), actorFrom(r.Context()), c)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeOrders(&e, orders, h.codes)
	writeBody(w, http.StatusOK, e.Bytes())
}

// CancelOrder cancels an order. Customers are held to the cutoff.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Order cancelled", h.orders.Cancel)
}

// ConfirmOrder records payment.
func (h *Handler) ConfirmOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Order payment confirmed", h.orders.MarkPaid)
}

// CompleteOrder marks an order as served.
func (h *Handler) CompleteOrder(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "Order completed", h.orders.Complete)
}

type transitionFunc func(ctx context.Context, actor order.Actor, id string) (*order.Order, error)

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, message string, fn transitionFunc) {
	if _, err := fn(r.Context(), actorFrom(r.Context()), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeSuccess(&e, message, h.now())
	writeBody(w, http.StatusOK, e.Bytes())
}

func (h *Handler) writeOrder(w http.ResponseWriter, status int, o *order.Order) {
	var e jx.Encoder
	wire.EncodeOrder(&e, o, h.codes)
	writeBody(w, status, e.Bytes())
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		return nil, &wire.RequestError{Err: errors.Wrap(err, "read body")}
	}
	return body, nil
}

// criteria parses search parameters. Dates are calendar days in the
// configured zone; toDate includes the whole day.
func (h *Handler) criteria(r *http.Request) (order.Criteria, error) {
	q := r.URL.Query()
	c := order.Criteria{CustomerName: q.Get("customerName")}
	if v := q.Get("fromDate"); v != "" {
		from, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			return c, &wire.RequestError{Err: errors.Wrap(err, "fromDate")}
		}
		c.From = from
	}
	if v := q.Get("toDate"); v != "" {
		to, err := time.ParseInLocation(dateLayout, v, h.loc)
		if err != nil {
			return c, &wire.RequestError{Err: errors.Wrap(err, "toDate")}
		}
		c.To = to.AddDate(0, 0, 1)
	}
	if !c.From.IsZero() && !c.To.IsZero() && !c.From.Before(c.To) {
		return c, &wire.RequestError{Err: errors.New("fromDate is after toDate")}
	}
	return c, nil
}

func cartOf(items []wire.ItemRequest) *cart.Cart {
	c := cart.New()
	for _, it := range items {
		c.AddQuantity(catalog.MenuItem{ID: it.ID}, it.Quantity)
	}
	return c
}
