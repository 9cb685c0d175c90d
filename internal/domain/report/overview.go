package report

import (
	"slices"
	"time"

	"github.com/xenking/bistro/internal/domain/order"
)

// DayStat is the order count and amount of one calendar day.
type DayStat struct {
	Date       time.Time
	OrderCount int
	Amount     int64
}

// OrdersOverview is the admin order dashboard.
type OrdersOverview struct {
	TotalOrders int
	Pending     int
	Completed   int
	Cancelled   int
	// Daily covers the trailing stats window ending today, oldest first.
	Daily []DayStat
	// Recent holds the newest orders first.
	Recent []order.Order
}

// BillingOverview is the admin revenue dashboard.
type BillingOverview struct {
	TotalRevenue int64
	RevenueToday int64
	RevenueMonth int64
	RevenueYear  int64
	PaidAmount   int64
	UnpaidAmount int64
	Daily        []DayStat
	// Unpaid lists orders awaiting payment, oldest first. Cancelled orders
	// are never awaiting payment.
	Unpaid []order.Order
}

// OrdersOverview counts orders by status and lists the most recent ones.
func (e *Engine) OrdersOverview(orders []order.Order) OrdersOverview {
	prepared := e.prepare(orders)
	ov := OrdersOverview{
		TotalOrders: len(prepared),
		Daily:       e.dailyStats(prepared),
	}
	for i := range prepared {
		switch prepared[i].Status {
		case order.StatusPending:
			ov.Pending++
		case order.StatusCompleted:
			ov.Completed++
		case order.StatusCancelled:
			ov.Cancelled++
		}
	}

	recent := slices.Clone(prepared)
	slices.Reverse(recent)
	if e.recentOrders > 0 && len(recent) > e.recentOrders {
		recent = recent[:e.recentOrders]
	}
	ov.Recent = recent
	return ov
}

// BillingOverview sums revenue for the current day, month and year.
func (e *Engine) BillingOverview(orders []order.Order) BillingOverview {
	prepared := e.prepare(orders)
	today := e.dateOf(e.now())
	bo := BillingOverview{Daily: e.dailyStats(prepared)}

	for i := range prepared {
		o := &prepared[i]
		total := o.TotalPrice()
		d := e.dateOf(o.CreatedAt)

		bo.TotalRevenue += total
		if d.year == today.year {
			bo.RevenueYear += total
			if d.month == today.month {
				bo.RevenueMonth += total
				if d.day == today.day {
					bo.RevenueToday += total
				}
			}
		}

		switch {
		case o.IsPaid:
			bo.PaidAmount += total
		case o.Status != order.StatusCancelled:
			bo.UnpaidAmount += total
			bo.Unpaid = append(bo.Unpaid, *o)
		}
	}
	return bo
}

// dailyStats returns one zero-filled entry per day of the stats window.
func (e *Engine) dailyStats(prepared []order.Order) []DayStat {
	today := e.startOf(e.dateOf(e.now()))
	first := today.AddDate(0, 0, -(e.statsDays - 1))

	stats := make([]DayStat, e.statsDays)
	index := make(map[date]int, e.statsDays)
	for i := range stats {
		day := first.AddDate(0, 0, i)
		stats[i].Date = day
		index[e.dateOf(day)] = i
	}
	for i := range prepared {
		j, ok := index[e.dateOf(prepared[i].CreatedAt)]
		if !ok {
			continue
		}
		stats[j].OrderCount++
		stats[j].Amount += prepared[i].TotalPrice()
	}
	return stats
}
