// Package wire encodes and decodes the JSON documents exchanged with API
// clients and stored in order archives.
package wire

import (
	"github.com/go-faster/errors"

	"github.com/xenking/bistro/internal/domain/order"
)

// StatusCodes maps order statuses to the codes written on the wire.
type StatusCodes struct {
	Pending   string `yaml:"pending" default:"P"`
	Completed string `yaml:"completed" default:"S"`
	Cancelled string `yaml:"cancelled" default:"C"`
}

// DefaultStatusCodes are the codes API clients expect.
var DefaultStatusCodes = StatusCodes{Pending: "P", Completed: "S", Cancelled: "C"}

// CanonicalStatusCodes use the status names and are used by archives.
var CanonicalStatusCodes = StatusCodes{
	Pending:   order.StatusPending.String(),
	Completed: order.StatusCompleted.String(),
	Cancelled: order.StatusCancelled.String(),
}

// Code returns the wire code of s.
func (c StatusCodes) Code(s order.Status) string {
	switch s {
	case order.StatusPending:
		return c.Pending
	case order.StatusCompleted:
		return c.Completed
	case order.StatusCancelled:
		return c.Cancelled
	default:
		return ""
	}
}

// Parse returns the status with the given wire code.
func (c StatusCodes) Parse(code string) (order.Status, error) {
	switch code {
	case c.Pending:
		return order.StatusPending, nil
	case c.Completed:
		return order.StatusCompleted, nil
	case c.Cancelled:
		return order.StatusCancelled, nil
	default:
		return 0, errors.Errorf("unknown status code %q", code)
	}
}

// Validate checks that codes are non-empty and distinct.
func (c StatusCodes) Validate() error {
	if c.Pending == "" || c.Completed == "" || c.Cancelled == "" {
		return errors.New("status codes must not be empty")
	}
	if c.Pending == c.Completed || c.Pending == c.Cancelled || c.Completed == c.Cancelled {
		return errors.New("status codes must be distinct")
	}
	return nil
}
