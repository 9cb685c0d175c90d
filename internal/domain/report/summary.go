package report

import (
	"time"

	"go.uber.org/zap"

	"github.com/xenking/bistro/internal/domain/order"
)

// DishBreakdown is the per-dish total for one day.
type DishBreakdown struct {
	DishName string
	Quantity int
	// UnitPrice is the price of the first occurrence of the dish that day.
	UnitPrice int64
	SumPrice  int64
	// PriceDiverged is set when the dish was sold at more than one price.
	PriceDiverged bool
}

// MonthlySummary aggregates the orders of one calendar month.
type MonthlySummary struct {
	Year          int
	Month         time.Month
	TotalOrders   int
	TotalDish     int
	TotalSpending int64
	Orders        []order.Order
	TopCustomers  []CustomerStats
}

// YearlySummary aggregates one calendar year and holds all 12 months.
type YearlySummary struct {
	Year          int
	TotalOrders   int
	TotalDish     int
	TotalSpending int64
	Months        []MonthlySummary
}

// Summary is the full report served to order summary views.
type Summary struct {
	TodayOrders  []order.Order
	DailyOrders  []DishBreakdown
	YearlyOrders []YearlySummary
}

// Aggregate computes today's orders and dish breakdown and a yearly summary
// for every year present in orders, newest first.
func (e *Engine) Aggregate(orders []order.Order) Summary {
	prepared := e.prepare(orders)
	now := e.now()

	var years []int
	seen := make(map[int]bool)
	for i := len(prepared) - 1; i >= 0; i-- {
		y := e.dateOf(prepared[i].CreatedAt).year
		if !seen[y] {
			seen[y] = true
			years = append(years, y)
		}
	}

	yearly := make([]YearlySummary, 0, len(years))
	for _, y := range years {
		yearly = append(yearly, e.yearly(prepared, y))
	}

	return Summary{
		TodayOrders:  e.onDay(prepared, now),
		DailyOrders:  e.daily(prepared, now),
		YearlyOrders: yearly,
	}
}

// DailyBreakdown groups the lines of all orders created on day by dish name.
// Entries appear in order of first sale.
func (e *Engine) DailyBreakdown(orders []order.Order, day time.Time) []DishBreakdown {
	return e.daily(e.prepare(orders), day)
}

func (e *Engine) daily(prepared []order.Order, day time.Time) []DishBreakdown {
	var (
		out   []DishBreakdown
		index = make(map[string]int)
	)
	for _, o := range e.onDay(prepared, day) {
		for _, l := range o.Lines {
			i, ok := index[l.Name]
			if !ok {
				index[l.Name] = len(out)
				out = append(out, DishBreakdown{DishName: l.Name, UnitPrice: l.UnitPrice})
				i = len(out) - 1
			}
			b := &out[i]
			if b.UnitPrice != l.UnitPrice && !b.PriceDiverged {
				b.PriceDiverged = true
				e.lg.Warn("Dish sold at different prices on the same day",
					zap.String("dish", l.Name),
					zap.Int64("first_price", b.UnitPrice),
					zap.Int64("price", l.UnitPrice),
					zap.String("order_id", o.ID),
				)
			}
			b.Quantity += l.Quantity
			b.SumPrice += l.Subtotal()
		}
	}
	return out
}

// MonthlySummary aggregates orders created in the given month.
func (e *Engine) MonthlySummary(orders []order.Order, year int, month time.Month) MonthlySummary {
	return e.monthly(e.prepare(orders), year, month)
}

func (e *Engine) monthly(prepared []order.Order, year int, month time.Month) MonthlySummary {
	matching := filter(prepared, func(o *order.Order) bool {
		d := e.dateOf(o.CreatedAt)
		return d.year == year && d.month == month
	})
	count, dishes, spending := totals(matching)
	return MonthlySummary{
		Year:          year,
		Month:         month,
		TotalOrders:   count,
		TotalDish:     dishes,
		TotalSpending: spending,
		Orders:        matching,
		TopCustomers:  topCustomers(matching, e.topCustomers),
	}
}

// YearlySummary aggregates orders created in year, with one child per month.
func (e *Engine) YearlySummary(orders []order.Order, year int) YearlySummary {
	return e.yearly(e.prepare(orders), year)
}

func (e *Engine) yearly(prepared []order.Order, year int) YearlySummary {
	inYear := filter(prepared, func(o *order.Order) bool {
		return e.dateOf(o.CreatedAt).year == year
	})
	y := YearlySummary{
		Year:   year,
		Months: make([]MonthlySummary, 0, 12),
	}
	for m := time.January; m <= time.December; m++ {
		ms := e.monthly(inYear, year, m)
		y.TotalOrders += ms.TotalOrders
		y.TotalDish += ms.TotalDish
		y.TotalSpending += ms.TotalSpending
		y.Months = append(y.Months, ms)
	}
	return y
}

// TodayOrders returns the orders created on the current calendar day.
func (e *Engine) TodayOrders(orders []order.Order) []order.Order {
	return e.onDay(e.prepare(orders), e.now())
}

// RevenueToday sums the totals of today's orders.
func (e *Engine) RevenueToday(orders []order.Order) int64 {
	_, _, spending := totals(e.TodayOrders(orders))
	return spending
}

func (e *Engine) onDay(prepared []order.Order, day time.Time) []order.Order {
	want := e.dateOf(day)
	return filter(prepared, func(o *order.Order) bool {
		return e.dateOf(o.CreatedAt) == want
	})
}
