package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActorRef identifies who produced the event.
type ActorRef struct {
	UserID uuid.UUID  `json:"userId"`
	ShopID *uuid.UUID `json:"shopId,omitempty"`
	Role   string     `json:"role,omitempty"`
}

// PayloadEnvelope is the stable payload structure stored in outbox_events.
type PayloadEnvelope struct {
	Version    int             `json:"version"`
	EventID    string          `json:"eventId"`
	OccurredAt time.Time       `json:"occurredAt"`
	Actor      *ActorRef       `json:"actor,omitempty"`
	Data       json.RawMessage `json:"data"`
}

// OrderEventData is the Data payload for order lifecycle events. UserID and
// ShopID let the notify worker resolve fan-out channels without a DB read.
type OrderEventData struct {
	OrderID     uuid.UUID `json:"orderId"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userId"`
	ShopID      uuid.UUID `json:"shopId"`
	Status      string    `json:"status"`
	TotalCents  int       `json:"totalCents,omitempty"`
}

// PaymentEventData is the Data payload for payment request events.
type PaymentEventData struct {
	RequestID   uuid.UUID `json:"requestId"`
	Title       string    `json:"title"`
	AmountCents int       `json:"amountCents"`
	StudentID   uuid.UUID `json:"studentId,omitempty"`
	Status      string    `json:"status,omitempty"`
}
