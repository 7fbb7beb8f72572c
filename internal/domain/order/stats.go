package order

import (
	"handicraft-store/internal/pkg/money"

	"github.com/shopspring/decimal"
)

// StatusTotal is the count and summed total of orders sharing one status.
type StatusTotal struct {
	Status  Status
	Count   int
	Revenue decimal.Decimal
}

type Stats struct {
	TotalOrders       int
	TotalRevenue      decimal.Decimal
	AverageOrderValue decimal.Decimal
	OrdersByStatus    map[Status]int
}

// Summarize computes stats over every order, cancelled ones included.
func Summarize(orders []*Order) Stats {
	buckets := make(map[Status]*StatusTotal, len(Statuses))
	for _, o := range orders {
		b, ok := buckets[o.status]
		if !ok {
			b = &StatusTotal{Status: o.status, Revenue: decimal.Zero}
			buckets[o.status] = b
		}
		b.Count++
		b.Revenue = b.Revenue.Add(o.pricing.Total)
	}
	totals := make([]StatusTotal, 0, len(buckets))
	for _, s := range Statuses {
		if b, ok := buckets[s]; ok {
			totals = append(totals, *b)
		}
	}
	return FromTotals(totals)
}

// FromTotals builds stats from per-status aggregates. Every status appears in
// OrdersByStatus, with zero when absent.
func FromTotals(totals []StatusTotal) Stats {
	st := Stats{
		TotalRevenue:      decimal.Zero,
		AverageOrderValue: decimal.Zero,
		OrdersByStatus:    make(map[Status]int, len(Statuses)),
	}
	for _, s := range Statuses {
		st.OrdersByStatus[s] = 0
	}
	for _, t := range totals {
		st.OrdersByStatus[t.Status] += t.Count
		st.TotalOrders += t.Count
		st.TotalRevenue = st.TotalRevenue.Add(t.Revenue)
	}
	st.TotalRevenue = money.Round(st.TotalRevenue)
	if st.TotalOrders > 0 {
		st.AverageOrderValue = money.Round(st.TotalRevenue.Div(decimal.NewFromInt(int64(st.TotalOrders))))
	}
	return st
}
