package wire

import (
	"fmt"
	"strconv"

	"github.com/go-faster/jx"

	"github.com/xenking/bistro/internal/domain/report"
)

const dateLayout = "2006-01-02"

// EncodeSummary writes the order summary document.
func EncodeSummary(e *jx.Encoder, s *report.Summary, codes StatusCodes) {
	e.ObjStart()
	e.FieldStart("todayOrders")
	EncodeOrders(e, s.TodayOrders, codes)
	e.FieldStart("dailyOrders")
	e.ArrStart()
	for _, d := range s.DailyOrders {
		e.ObjStart()
		e.FieldStart("dishName")
		e.Str(d.DishName)
		e.FieldStart("quantity")
		e.Int(d.Quantity)
		e.FieldStart("sumPrice")
		e.Int64(d.SumPrice)
		e.FieldStart("unitPrice")
		e.Int64(d.UnitPrice)
		e.FieldStart("priceDiverged")
		e.Bool(d.PriceDiverged)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("yearlyOrders")
	e.ArrStart()
	for i := range s.YearlyOrders {
		encodeYearly(e, &s.YearlyOrders[i], codes)
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeYearly(e *jx.Encoder, y *report.YearlySummary, codes StatusCodes) {
	e.ObjStart()
	e.FieldStart("year")
	e.Str(strconv.Itoa(y.Year))
	e.FieldStart("totalSpending")
	e.Int64(y.TotalSpending)
	e.FieldStart("totalDish")
	e.Int(y.TotalDish)
	e.FieldStart("totalOrders")
	e.Int(y.TotalOrders)
	e.FieldStart("monthlyOrderSummary")
	e.ArrStart()
	for i := range y.Months {
		m := &y.Months[i]
		e.ObjStart()
		e.FieldStart("month")
		e.Str(fmt.Sprintf("%02d", int(m.Month)))
		e.FieldStart("totalSpending")
		e.Int64(m.TotalSpending)
		e.FieldStart("totalDish")
		e.Int(m.TotalDish)
		e.FieldStart("totalOrders")
		e.Int(m.TotalOrders)
		e.FieldStart("orderList")
		EncodeOrders(e, m.Orders, codes)
		e.FieldStart("topCustomer")
		encodeTopCustomers(e, m.TopCustomers)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeTopCustomers(e *jx.Encoder, stats []report.CustomerStats) {
	e.ArrStart()
	for _, s := range stats {
		e.ObjStart()
		e.FieldStart("customerName")
		e.Str(s.Name)
		e.FieldStart("customerEmail")
		e.Str(s.Email)
		e.FieldStart("totalOrders")
		e.Int(s.TotalOrders)
		e.FieldStart("totalDishes")
		e.Int(s.TotalDishes)
		e.FieldStart("totalSpending")
		e.Int64(s.TotalSpending)
		e.ObjEnd()
	}
	e.ArrEnd()
}

// EncodeOrdersOverview writes the admin order summary document.
func EncodeOrdersOverview(e *jx.Encoder, ov *report.OrdersOverview, codes StatusCodes) {
	e.ObjStart()
	e.FieldStart("totalOrders")
	e.Int(ov.TotalOrders)
	e.FieldStart("pendingOrders")
	e.Int(ov.Pending)
	e.FieldStart("completedOrders")
	e.Int(ov.Completed)
	e.FieldStart("cancelledOrders")
	e.Int(ov.Cancelled)
	e.FieldStart("dailyOrderStats")
	e.ArrStart()
	for _, d := range ov.Daily {
		e.ObjStart()
		e.FieldStart("date")
		e.Str(d.Date.Format(dateLayout))
		e.FieldStart("orderCount")
		e.Int(d.OrderCount)
		e.FieldStart("totalAmount")
		e.Int64(d.Amount)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("recentOrders")
	EncodeOrders(e, ov.Recent, codes)
	e.ObjEnd()
}

// EncodeCustomersOverview writes the admin customer summary document.
func EncodeCustomersOverview(e *jx.Encoder, ov *report.CustomersOverview) {
	e.ObjStart()
	e.FieldStart("totalCustomers")
	e.Int(ov.TotalCustomers)
	e.FieldStart("topCustomers")
	encodeTopCustomers(e, ov.TopCustomers)
	e.FieldStart("customerInfos")
	e.ArrStart()
	for _, c := range ov.Customers {
		e.ObjStart()
		e.FieldStart("customerName")
		e.Str(c.Name)
		e.FieldStart("customerPhone")
		e.Str(c.Phone)
		e.FieldStart("customerEmail")
		e.Str(c.Email)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

// EncodeBillingOverview writes the admin billing summary document.
func EncodeBillingOverview(e *jx.Encoder, bo *report.BillingOverview, codes StatusCodes) {
	e.ObjStart()
	e.FieldStart("totalRevenue")
	e.Int64(bo.TotalRevenue)
	e.FieldStart("dailyRevenue")
	e.Int64(bo.RevenueToday)
	e.FieldStart("monthlyRevenue")
	e.Int64(bo.RevenueMonth)
	e.FieldStart("yearlyRevenue")
	e.Int64(bo.RevenueYear)
	e.FieldStart("paidAmount")
	e.Int64(bo.PaidAmount)
	e.FieldStart("unpaidAmount")
	e.Int64(bo.UnpaidAmount)
	e.FieldStart("revenueStats")
	e.ArrStart()
	for _, d := range bo.Daily {
		e.ObjStart()
		e.FieldStart("date")
		e.Str(d.Date.Format(dateLayout))
		e.FieldStart("revenue")
		e.Int64(d.Amount)
		e.FieldStart("orderCount")
		e.Int(d.OrderCount)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.FieldStart("unpaidOrders")
	EncodeOrders(e, bo.Unpaid, codes)
	e.ObjEnd()
}
