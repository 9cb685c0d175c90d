package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/bistro/internal/domain/order"
	"github.com/xenking/bistro/internal/wire"
)

var errRateLimited = errors.New("too many orders, try again later")

// classify returns the HTTP status and error kind of err.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, wire.ErrInvalidRequest):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	}

	kind := order.Kind(err)
	switch kind {
	case "empty_cart", "invalid_payment", "invalid_customer":
		return http.StatusBadRequest, kind
	case "cutoff_exceeded", "item_not_found", "item_unavailable":
		return http.StatusUnprocessableEntity, kind
	case "invalid_transition", "conflict":
		return http.StatusConflict, kind
	case "not_found":
		return http.StatusNotFound, kind
	case "forbidden":
		return http.StatusForbidden, kind
	case "timeout":
		return http.StatusGatewayTimeout, kind
	case "canceled":
		return http.StatusServiceUnavailable, kind
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// writeError maps err to an error document. Internal errors are logged and
// their message is not exposed.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, kind := classify(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.String("kind", kind),
			zap.Error(err),
		)
		msg = http.StatusText(status)
	}

	var e jx.Encoder
	wire.EncodeError(&e, &wire.APIError{
		Path:    r.URL.Path,
		Status:  status,
		Message: msg,
		Time:    h.now(),
		Kind:    kind,
		Err:     err,
	})
	writeBody(w, status, e.Bytes())
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
