package report

import (
	"fmt"

	"github.com/go-faster/errors"

	"github.com/xenking/bistro/internal/domain/order"
)

// ErrAggregationAnomaly matches every *AnomalyError.
var ErrAggregationAnomaly = errors.New("aggregation anomaly")

// AnomalyError describes why an order cannot take part in aggregation.
type AnomalyError struct {
	OrderID string
	Reason  string
}

func (e *AnomalyError) Error() string {
	return fmt.Sprintf("order %q: %s", e.OrderID, e.Reason)
}

func (e *AnomalyError) Is(target error) bool { return target == ErrAggregationAnomaly }

// validate returns nil for orders that can be aggregated.
func validate(o *order.Order) *AnomalyError {
	reason := ""
	switch {
	case o.ID == "":
		reason = "missing id"
	case o.CreatedAt.IsZero():
		reason = "missing creation time"
	case o.Customer.Key() == "":
		reason = "missing customer email"
	case !o.Status.Valid():
		reason = "unknown status"
	case len(o.Lines) == 0:
		reason = "no lines"
	}
	for i, l := range o.Lines {
		if reason != "" {
			break
		}
		switch {
		case l.Name == "":
			reason = fmt.Sprintf("line %d: missing dish name", i)
		case l.Quantity <= 0:
			reason = fmt.Sprintf("line %d: non-positive quantity %d", i, l.Quantity)
		case l.UnitPrice < 0:
			reason = fmt.Sprintf("line %d: negative unit price %d", i, l.UnitPrice)
		}
	}
	if reason == "" {
		return nil
	}
	return &AnomalyError{OrderID: o.ID, Reason: reason}
}
