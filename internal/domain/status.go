package domain

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderShipped    OrderStatus = "shipped"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderShipped, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

type ItemStatus string

const (
	ItemPending   ItemStatus = "pending"
	ItemShipped   ItemStatus = "shipped"
	ItemCompleted ItemStatus = "completed"
	ItemCancelled ItemStatus = "cancelled"
)

func (s ItemStatus) Valid() bool {
	switch s {
	case ItemPending, ItemShipped, ItemCompleted, ItemCancelled:
		return true
	}
	return false
}

var itemTransitions = map[ItemStatus][]ItemStatus{
	ItemPending: {ItemShipped, ItemCancelled},
	ItemShipped: {ItemCompleted, ItemCancelled},
}

// CanTransition allows pending -> shipped -> completed, and cancelled from
// pending or shipped. Staying in the same state is allowed.
func CanTransition(from, to ItemStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, next := range itemTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DeriveOrderStatus aggregates item statuses:
//   - no items, or every live item pending: pending
//   - every item cancelled: cancelled
//   - every live item completed: completed
//   - every live item shipped or completed: shipped
//   - otherwise (some live items moved, some pending): processing
//
// Cancelled items are ignored once at least one item is live.
func DeriveOrderStatus(items []ItemStatus) OrderStatus {
	var live, shipped, completed int
	for _, s := range items {
		switch s {
		case ItemCancelled:
			continue
		case ItemShipped:
			shipped++
		case ItemCompleted:
			completed++
		}
		live++
	}
	switch {
	case len(items) == 0:
		return OrderPending
	case live == 0:
		return OrderCancelled
	case completed == live:
		return OrderCompleted
	case shipped+completed == live:
		return OrderShipped
	case shipped+completed > 0:
		return OrderProcessing
	default:
		return OrderPending
	}
}
