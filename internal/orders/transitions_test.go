package orders

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusPending, enums.OrderStatusPreparing},
		{enums.OrderStatusPending, enums.OrderStatusCancelled},
		{enums.OrderStatusPreparing, enums.OrderStatusReady},
		{enums.OrderStatusPreparing, enums.OrderStatusCancelled},
		{enums.OrderStatusReady, enums.OrderStatusPartiallyDelivered},
		{enums.OrderStatusReady, enums.OrderStatusCompleted},
		{enums.OrderStatusReady, enums.OrderStatusCancelled},
		{enums.OrderStatusPartiallyDelivered, enums.OrderStatusCompleted},
		{enums.OrderStatusPartiallyDelivered, enums.OrderStatusCancelled},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to enums.OrderStatus }{
		{enums.OrderStatusPending, enums.OrderStatusReady},
		{enums.OrderStatusPending, enums.OrderStatusCompleted},
		{enums.OrderStatusPreparing, enums.OrderStatusPending},
		{enums.OrderStatusPreparing, enums.OrderStatusCompleted},
		{enums.OrderStatusReady, enums.OrderStatusPending},
		{enums.OrderStatusCompleted, enums.OrderStatusCancelled},
		{enums.OrderStatusCompleted, enums.OrderStatusReady},
		{enums.OrderStatusCancelled, enums.OrderStatusPending},
		{enums.OrderStatusCancelled, enums.OrderStatusCompleted},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestTimestampColumn(t *testing.T) {
	assert.Equal(t, "preparing_at", timestampColumn(enums.OrderStatusPreparing))
	assert.Equal(t, "ready_at", timestampColumn(enums.OrderStatusReady))
	assert.Equal(t, "partial_at", timestampColumn(enums.OrderStatusPartiallyDelivered))
	assert.Equal(t, "completed_at", timestampColumn(enums.OrderStatusCompleted))
	assert.Equal(t, "cancelled_at", timestampColumn(enums.OrderStatusCancelled))
	assert.Empty(t, timestampColumn(enums.OrderStatusPending))
}
