package wire

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-playground/validator/v10"

	"github.com/xenking/bistro/internal/domain/order"
)

// ErrInvalidRequest is returned for malformed or invalid request bodies.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError describes why a request body was rejected.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return "invalid request: " + e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func (e *RequestError) Is(target error) bool { return target == ErrInvalidRequest }

var validate = validator.New(validator.WithRequiredStructEnabled())

// ItemRequest selects a menu item and quantity. Names and prices sent by
// the client are ignored.
type ItemRequest struct {
	ID       string `validate:"required,max=64"`
	Quantity int    `validate:"gte=1,lte=1000"`
}

// PlaceRequest is the body of an order placement. An empty item list skips
// field validation so the order service rejects it as an empty cart.
type PlaceRequest struct {
	Items         []ItemRequest `validate:"dive"`
	Note          string        `validate:"max=500"`
	PaymentMethod string        `validate:"required,oneof=CASH MOMO BANK"`
	PaymentType   string        `validate:"required,oneof=PREPAID POSTPAID"`
}

// EditRequest is the body of an order edit. Nil fields are left unchanged;
// a present but empty item list empties the order and is rejected.
type EditRequest struct {
	Items         []ItemRequest `validate:"omitempty,dive"`
	Note          *string       `validate:"omitnil,max=500"`
	PaymentMethod *string       `validate:"omitnil,oneof=CASH MOMO BANK"`
	PaymentType   *string       `validate:"omitnil,oneof=PREPAID POSTPAID"`
}

// PaymentMethodValue returns the payment method as a domain value.
func (r *PlaceRequest) PaymentMethodValue() order.PaymentMethod {
	return order.PaymentMethod(r.PaymentMethod)
}

// PaymentTimingValue returns the payment timing as a domain value.
func (r *PlaceRequest) PaymentTimingValue() order.PaymentTiming {
	return order.PaymentTiming(r.PaymentType)
}

// DecodePlaceRequest parses and validates an order placement body.
func DecodePlaceRequest(data []byte) (*PlaceRequest, error) {
	var r PlaceRequest
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "orderDetails":
			r.Items, err = decodeItems(d)
		case "note":
			r.Note, err = optStr(d)
		case "paymentMethod":
			r.PaymentMethod, err = optStr(d)
		case "paymentType":
			r.PaymentType, err = optStr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if len(r.Items) == 0 {
		return &r, nil
	}
	if err := validate.Struct(&r); err != nil {
		return nil, &RequestError{Err: err}
	}
	return &r, nil
}

// DecodeEditRequest parses and validates an order edit body.
func DecodeEditRequest(data []byte) (*EditRequest, error) {
	var r EditRequest
	err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "orderDetails":
			r.Items, err = decodeItems(d)
		case "note":
			r.Note, err = strPtr(d)
		case "paymentMethod":
			r.PaymentMethod, err = strPtr(d)
		case "paymentType":
			r.PaymentType, err = strPtr(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return nil, &RequestError{Err: err}
	}
	if err := validate.Struct(&r); err != nil {
		return nil, &RequestError{Err: err}
	}
	return &r, nil
}

func decodeItems(d *jx.Decoder) ([]ItemRequest, error) {
	items := []ItemRequest{}
	err := d.Arr(func(d *jx.Decoder) error {
		var it ItemRequest
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				it.ID, err = d.Str()
			case "quantity":
				it.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		items = append(items, it)
		return nil
	})
	return items, err
}

func strPtr(d *jx.Decoder) (*string, error) {
	v, err := d.Str()
	if err != nil {
		return nil, err
	}
	return &v, nil
}
