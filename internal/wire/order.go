package wire

import (
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/order"
)

// EncodeOrder writes o as an order document.
func EncodeOrder(e *jx.Encoder, o *order.Order, codes StatusCodes) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(o.ID)
	e.FieldStart("customerName")
	e.Str(o.Customer.Name)
	e.FieldStart("customerPhone")
	e.Str(o.Customer.Phone)
	e.FieldStart("customerEmail")
	e.Str(o.Customer.Email)
	e.FieldStart("orderDetails")
	e.ArrStart()
	for _, l := range o.Lines {
		e.ObjStart()
		e.FieldStart("id")
		e.Str(l.ItemID)
		e.FieldStart("name")
		e.Str(l.Name)
		e.FieldStart("price")
		e.Int64(l.UnitPrice)
		e.FieldStart("quantity")
		e.Int(l.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("status")
	e.Str(codes.Code(o.Status))
	e.FieldStart("totalPrice")
	e.Int64(o.TotalPrice())
	e.FieldStart("createdAt")
	e.Int64(o.CreatedAt.UnixMilli())
	e.FieldStart("note")
	e.Str(o.Note)
	e.FieldStart("paymentMethod")
	e.Str(string(o.PaymentMethod))
	e.FieldStart("paymentType")
	e.Str(string(o.PaymentTiming))
	e.FieldStart("isPaid")
	e.Bool(o.IsPaid)
	e.ObjEnd()
}

// EncodeOrders writes orders as an array. A nil slice is written as [].
func EncodeOrders(e *jx.Encoder, orders []order.Order, codes StatusCodes) {
	e.ArrStart()
	for i := range orders {
		EncodeOrder(e, &orders[i], codes)
	}
	e.ArrEnd()
}

// DecodeOrder reads a full order document. totalPrice is ignored since it
// is derived from the lines.
func DecodeOrder(d *jx.Decoder, codes StatusCodes) (order.Order, error) {
	var o order.Order
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			o.ID, err = optStr(d)
		case "customerName":
			o.Customer.Name, err = optStr(d)
		case "customerPhone":
			o.Customer.Phone, err = optStr(d)
		case "customerEmail":
			o.Customer.Email, err = optStr(d)
		case "orderDetails":
			o.Lines, err = decodeLines(d)
		case "status":
			var code string
			if code, err = d.Str(); err != nil {
				return err
			}
			o.Status, err = codes.Parse(code)
		case "createdAt":
			var ms int64
			if ms, err = d.Int64(); err != nil {
				return err
			}
			o.CreatedAt = time.UnixMilli(ms).UTC()
		case "note":
			o.Note, err = optStr(d)
		case "paymentMethod":
			var v string
			v, err = optStr(d)
			o.PaymentMethod = order.PaymentMethod(v)
		case "paymentType":
			var v string
			v, err = optStr(d)
			o.PaymentTiming = order.PaymentTiming(v)
		case "isPaid":
			o.IsPaid, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "field %q", key)
		}
		return nil
	})
	if err != nil {
		return order.Order{}, errors.Wrap(err, "decode order")
	}
	return o, nil
}

func decodeLines(d *jx.Decoder) ([]order.Line, error) {
	var lines []order.Line
	err := d.Arr(func(d *jx.Decoder) error {
		var l order.Line
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			var err error
			switch key {
			case "id":
				l.ItemID, err = d.Str()
			case "name":
				l.Name, err = optStr(d)
			case "price":
				l.UnitPrice, err = d.Int64()
			case "quantity":
				l.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			return err
		}); err != nil {
			return err
		}
		lines = append(lines, l)
		return nil
	})
	return lines, err
}

// optStr reads a string that may be null.
func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}
