package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/catalog"
	"github.com/xenking/bistro/internal/domain/order"
)

// EncodeMenu writes menu items as an array.
func EncodeMenu(e *jx.Encoder, items []catalog.MenuItem) {
	e.ArrStart()
	for _, it := range items {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(it.ID)
		e.FieldStart("name")
		e.Str(it.Name)
		e.FieldStart("price")
		e.Int64(it.UnitPrice)
		e.FieldStart("description")
		e.Str(it.Description)
		e.FieldStart("imageUrl")
		e.Str(it.ImageURL)
		e.FieldStart("available")
		e.Int(it.Available)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// Settings are the client-visible service settings.
type Settings struct {
	OrderCutoffTime  string
	TimeZone         string
	Currency         string
	CurrencyExponent int32
	StatusCodes      StatusCodes
}

// EncodeSettings writes the settings document.
func EncodeSettings(e *jx.Encoder, s *Settings) {
	e.ObjStart()
	e.FieldStart("orderCutoffTime")
	e.Str(s.OrderCutoffTime)
	e.FieldStart("timeZone")
	e.Str(s.TimeZone)
	e.FieldStart("currency")
	e.Str(s.Currency)
	e.FieldStart("currencyExponent")
	e.Int32(s.CurrencyExponent)
	e.FieldStart("statusCodes")
	e.ObjStart()
	e.FieldStart("pending")
	e.Str(s.StatusCodes.Pending)
	e.FieldStart("completed")
	e.Str(s.StatusCodes.Completed)
	e.FieldStart("cancelled")
	e.Str(s.StatusCodes.Cancelled)
	e.ObjEnd()
	e.ObjEnd()
}

// EncodeSuccess writes a transition acknowledgement.
func EncodeSuccess(e *jx.Encoder, message string, at time.Time) {
	e.ObjStart()
	e.FieldStart("message")
	e.Str(message)
	e.FieldStart("timestamp")
	e.Str(at.Format(time.RFC3339))
	e.ObjEnd()
}

// APIError is an error response document.
type APIError struct {
	Path    string
	Status  int
	Message string
	Time    time.Time
	Kind    string
	// Err supplies detail fields for known domain errors. May be nil.
	Err error
}

// EncodeError writes an error response document.
func EncodeError(e *jx.Encoder, a *APIError) {
	e.ObjStart()
	e.FieldStart("apiPath")
	e.Str(a.Path)
	e.FieldStart("errorStatus")
	e.Int(a.Status)
	e.FieldStart("errorMessage")
	e.Str(a.Message)
	e.FieldStart("errorTime")
	e.Str(a.Time.Format(time.RFC3339))
	e.FieldStart("errorData")
	e.ObjStart()
	e.FieldStart("kind")
	e.Str(a.Kind)
	encodeErrorDetails(e, a.Err)
	e.ObjEnd()
	e.ObjEnd()
}

func encodeErrorDetails(e *jx.Encoder, err error) {
	var (
		cutoffErr      *order.CutoffExceededError
		transitionErr  *order.InvalidTransitionError
		notFoundErr    *order.ItemNotFoundError
		unavailableErr *order.ItemUnavailableError
	)
	switch {
	case err == nil:
	case errors.As(err, &cutoffErr):
		e.FieldStart("cutoff")
		e.Str(cutoffErr.Cutoff.Format(time.RFC3339))
	case errors.As(err, &transitionErr):
		e.FieldStart("from")
		e.Str(transitionErr.From.String())
		e.FieldStart("transition")
		e.Str(string(transitionErr.Transition))
	case errors.As(err, &notFoundErr):
		e.FieldStart("itemId")
		e.Str(notFoundErr.ItemID)
	case errors.As(err, &unavailableErr):
		e.FieldStart("itemId")
		e.Str(unavailableErr.ItemID)
		e.FieldStart("requested")
		e.Int(unavailableErr.Requested)
		e.FieldStart("available")
		e.Int(unavailableErr.Available)
	}
}
