package orders

import "github.com/nikhilmenon/campusbite-backend/pkg/enums"

// transitionTable lists the allowed next statuses for each non-terminal
// status. Completed and cancelled are terminal and have no entry.
var transitionTable = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:            {enums.OrderStatusPreparing, enums.OrderStatusCancelled},
	enums.OrderStatusPreparing:          {enums.OrderStatusReady, enums.OrderStatusCancelled},
	enums.OrderStatusReady:              {enums.OrderStatusPartiallyDelivered, enums.OrderStatusCompleted, enums.OrderStatusCancelled},
	enums.OrderStatusPartiallyDelivered: {enums.OrderStatusCompleted, enums.OrderStatusCancelled},
}

// CanTransition reports whether from -> to is a legal move.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, next := range transitionTable[from] {
		if next == to {
			return true
		}
	}
	return false
}

// timestampColumn maps a target status to the column stamped on entry.
func timestampColumn(to enums.OrderStatus) string {
	switch to {
	case enums.OrderStatusPreparing:
		return "preparing_at"
	case enums.OrderStatusReady:
		return "ready_at"
	case enums.OrderStatusPartiallyDelivered:
		return "partial_at"
	case enums.OrderStatusCompleted:
		return "completed_at"
	case enums.OrderStatusCancelled:
		return "cancelled_at"
	}
	return ""
}
