package order

import (
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Cutoff is the daily time of day after which customers can no longer place
// or edit orders for that day.
type Cutoff struct {
	hour   int
	minute int
	loc    *time.Location
}

// ParseCutoff parses an "HH:mm" time of day evaluated in loc. A nil loc
// means UTC.
func ParseCutoff(value string, loc *time.Location) (Cutoff, error) {
	t, err := time.Parse("15:04", value)
	if err != nil {
		return Cutoff{}, errors.Wrapf(err, "parse cutoff %q", value)
	}
	if loc == nil {
		loc = time.UTC
	}
	return Cutoff{hour: t.Hour(), minute: t.Minute(), loc: loc}, nil
}

// MustParseCutoff is like ParseCutoff but panics on error.
func MustParseCutoff(value string, loc *time.Location) Cutoff {
	c, err := ParseCutoff(value, loc)
	if err != nil {
		panic(err)
	}
	return c
}

// On returns the cutoff instant on the calendar day of ref.
func (c Cutoff) On(ref time.Time) time.Time {
	loc := c.Location()
	r := ref.In(loc)
	return time.Date(r.Year(), r.Month(), r.Day(), c.hour, c.minute, 0, 0, loc)
}

// Allows reports whether now is strictly before the cutoff of ref's day.
func (c Cutoff) Allows(ref, now time.Time) bool {
	return now.Before(c.On(ref))
}

// Location returns the time zone the cutoff is evaluated in.
func (c Cutoff) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func (c Cutoff) String() string {
	return fmt.Sprintf("%02d:%02d", c.hour, c.minute)
}
