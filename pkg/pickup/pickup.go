// Package pickup implements the QR handoff payload used at the counter.
// The client renders the payload as a QR code; shop staff scan it and post
// the raw string back for verification. The payload is plain base64 JSON,
// not a credential: possession of the QR alone is never enough, the server
// re-checks the token, shop and order state on every scan.
package pickup

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
)

const tokenAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Payload is the decoded contents of a scanned pickup QR.
type Payload struct {
	OrderID     uuid.UUID `json:"order_id"`
	PickupToken string    `json:"pickup_token"`
	ShopID      uuid.UUID `json:"shop_id"`
	Timestamp   int64     `json:"timestamp"`
}

// NewToken generates an unguessable pickup token of n characters drawn
// from an unambiguous alphabet (no 0/O, 1/I).
func NewToken(n int) (string, error) {
	if n <= 0 {
		n = 8
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	for i, b := range buf {
		buf[i] = tokenAlphabet[int(b)%len(tokenAlphabet)]
	}
	return string(buf), nil
}

// Encode serializes a payload for QR rendering.
func Encode(orderID, shopID uuid.UUID, token string, at time.Time) string {
	p := Payload{
		OrderID:     orderID,
		PickupToken: token,
		ShopID:      shopID,
		Timestamp:   at.Unix(),
	}
	raw, _ := json.Marshal(p)
	return base64.StdEncoding.EncodeToString(raw)
}

// Decode parses a scanned QR string. Malformed input of any kind, bad
// base64, bad JSON or a missing order id, yields nil so callers can map
// every garbage scan to the same validation failure.
func Decode(raw string) *Payload {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil
	}
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	if p.OrderID == uuid.Nil || p.PickupToken == "" {
		return nil
	}
	return &p
}

// OrderState is the slice of an order Verify needs.
type OrderState struct {
	OrderID     uuid.UUID
	ShopID      uuid.UUID
	PickupToken string
	Status      enums.OrderStatus
}

// Verify checks a decoded payload against the order it claims to belong to
// and the shop presenting it. Read-only: the caller issues the completion
// separately, so staff can inspect before any charge is posted.
func Verify(p *Payload, state OrderState, presentingShopID uuid.UUID) error {
	if p == nil {
		return apperrors.New(apperrors.CodeValidation, "malformed pickup payload")
	}
	if p.ShopID != presentingShopID {
		return apperrors.New(apperrors.CodeShopMismatch, "pickup payload belongs to another shop")
	}
	if p.PickupToken != state.PickupToken {
		return apperrors.New(apperrors.CodeTokenMismatch, "pickup token does not match the order")
	}
	if state.Status != enums.OrderStatusReady {
		return apperrors.New(apperrors.CodeNotReady, "order is not ready for pickup")
	}
	return nil
}
