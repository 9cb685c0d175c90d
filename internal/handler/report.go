package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/wire"
)

// OrderSummary returns the shared order board grouped by year and month.
func (h *Handler) OrderSummary(w http.ResponseWriter, r *http.Request) {
	s, err := h.reports.Summary(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeSummary(&e, &s, h.codes)
	writeBody(w, http.StatusOK, e.Bytes())
}

// OrdersOverview returns the admin order statistics.
func (h *Handler) OrdersOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reports.Orders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeOrdersOverview(&e, &ov, h.codes)
	writeBody(w, http.StatusOK, e.Bytes())
}

// CustomersOverview returns the admin customer ranking.
func (h *Handler) CustomersOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.reports.Customers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeCustomersOverview(&e, &ov)
	writeBody(w, http.StatusOK, e.Bytes())
}

// BillingOverview returns the admin revenue statistics.
func (h *Handler) BillingOverview(w http.ResponseWriter, r *http.Request) {
	bo, err := h.reports.Billing(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var e jx.Encoder
	wire.EncodeBillingOverview(&e, &bo, h.codes)
	writeBody(w, http.StatusOK, e.Bytes())
}
