package risk

import (
	"fmt"
	"time"
)

const (
	rapidOrderWindow       = time.Hour
	minOrdersForHistory    = 2
	highCancellationRate   = 0.5
	highValueOrderAmount   = 5000
	maxOrdersForFirstOrder = 1
)

// CheckRapidOrders counts the user's other orders placed within an hour of the current one.
// Orders with a zero timestamp are ignored.
func CheckRapidOrders(userOrders []Order, current *Order) RapidOrderResult {
	if current == nil || current.CreatedAt.IsZero() || len(userOrders) < minOrdersForHistory {
		return RapidOrderResult{}
	}

	count := 0
	for _, o := range userOrders {
		if o.ID == current.ID || o.CreatedAt.IsZero() {
			continue
		}
		diff := o.CreatedAt.Sub(current.CreatedAt)
		if diff < 0 {
			diff = -diff
		}
		if diff < rapidOrderWindow {
			count++
		}
	}

	if count == 0 {
		return RapidOrderResult{}
	}

	return RapidOrderResult{
		IsRapid: true,
		Count:   count,
		Reason:  fmt.Sprintf("%d other order(s) placed within 1 hour of this order", count),
	}
}

// CheckCancellationRate reports the share of the user's orders that were cancelled or rejected
func CheckCancellationRate(userOrders []Order) CancellationResult {
	total := len(userOrders)
	if total < minOrdersForHistory {
		return CancellationResult{}
	}

	cancelled := 0
	for _, o := range userOrders {
		if o.Status == OrderStatusCancelled || o.Status == OrderStatusRejected {
			cancelled++
		}
	}

	rate := float64(cancelled) / float64(total)
	if rate <= highCancellationRate {
		return CancellationResult{Rate: rate}
	}

	return CancellationResult{
		IsHigh: true,
		Rate:   rate,
		Reason: fmt.Sprintf("%.0f%% of orders cancelled or rejected (%d of %d)", rate*100, cancelled, total),
	}
}
