package report

import (
	"slices"

	"github.com/xenking/bistro/internal/domain/order"
)

// CustomerStats is the spending of one customer, keyed by email.
type CustomerStats struct {
	Name          string
	Phone         string
	Email         string
	TotalOrders   int
	TotalDishes   int
	TotalSpending int64
}

// CustomersOverview is the admin customer report.
type CustomersOverview struct {
	TotalCustomers int
	TopCustomers   []CustomerStats
	// Customers lists every distinct customer in order of first appearance.
	Customers []CustomerStats
}

// TopCustomers ranks customers by total spending, highest first. Customers
// with equal spending keep the order of their first order. A limit <= 0
// returns every customer.
func (e *Engine) TopCustomers(orders []order.Order, limit int) []CustomerStats {
	return topCustomers(e.prepare(orders), limit)
}

// CustomersOverview ranks all customers and lists them.
func (e *Engine) CustomersOverview(orders []order.Order) CustomersOverview {
	all := byCustomer(e.prepare(orders))
	ranked := rank(slices.Clone(all), e.topCustomers)
	return CustomersOverview{
		TotalCustomers: len(all),
		TopCustomers:   ranked,
		Customers:      all,
	}
}

func topCustomers(prepared []order.Order, limit int) []CustomerStats {
	return rank(byCustomer(prepared), limit)
}

// byCustomer groups orders by customer email in order of first appearance.
// The name and phone of the first order win.
func byCustomer(prepared []order.Order) []CustomerStats {
	var (
		out   []CustomerStats
		index = make(map[string]int)
	)
	for i := range prepared {
		o := &prepared[i]
		key := o.Customer.Key()
		j, ok := index[key]
		if !ok {
			j = len(out)
			index[key] = j
			out = append(out, CustomerStats{Name: o.Customer.Name, Phone: o.Customer.Phone, Email: key})
		}
		s := &out[j]
		s.TotalOrders++
		s.TotalDishes += o.TotalQuantity()
		s.TotalSpending += o.TotalPrice()
	}
	return out
}

func rank(stats []CustomerStats, limit int) []CustomerStats {
	slices.SortStableFunc(stats, func(a, b CustomerStats) int {
		switch {
		case a.TotalSpending > b.TotalSpending:
			return -1
		case a.TotalSpending < b.TotalSpending:
			return 1
		}
		return 0
	})
	if limit > 0 && len(stats) > limit {
		stats = stats[:limit]
	}
	return stats
}
