package pickup

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	orderID := uuid.New()
	shopID := uuid.New()
	at := time.Date(2026, 3, 14, 12, 30, 0, 0, time.UTC)

	raw := Encode(orderID, shopID, "WXYZ2345", at)
	p := Decode(raw)

	require.NotNil(t, p)
	assert.Equal(t, orderID, p.OrderID)
	assert.Equal(t, shopID, p.ShopID)
	assert.Equal(t, "WXYZ2345", p.PickupToken)
	assert.Equal(t, at.Unix(), p.Timestamp)
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not base64", raw: "%%%not-base64%%%"},
		{name: "base64 but not json", raw: base64.StdEncoding.EncodeToString([]byte("hello"))},
		{name: "json missing order id", raw: base64.StdEncoding.EncodeToString([]byte(`{"pickup_token":"ABCD"}`))},
		{name: "json missing token", raw: base64.StdEncoding.EncodeToString([]byte(`{"order_id":"` + uuid.NewString() + `"}`))},
		{name: "empty string", raw: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Nil(t, Decode(tt.raw))
		})
	}
}

func TestVerify(t *testing.T) {
	orderID := uuid.New()
	shopID := uuid.New()
	otherShop := uuid.New()

	state := OrderState{
		OrderID:     orderID,
		ShopID:      shopID,
		PickupToken: "WXYZ2345",
		Status:      enums.OrderStatusReady,
	}
	payload := &Payload{OrderID: orderID, ShopID: shopID, PickupToken: "WXYZ2345"}

	tests := []struct {
		name     string
		payload  *Payload
		state    OrderState
		shopID   uuid.UUID
		wantCode apperrors.Code
	}{
		{name: "valid", payload: payload, state: state, shopID: shopID},
		{name: "nil payload", payload: nil, state: state, shopID: shopID, wantCode: apperrors.CodeValidation},
		{
			name:     "wrong shop",
			payload:  payload,
			state:    state,
			shopID:   otherShop,
			wantCode: apperrors.CodeShopMismatch,
		},
		{
			name:     "wrong token",
			payload:  &Payload{OrderID: orderID, ShopID: shopID, PickupToken: "AAAA2222"},
			state:    state,
			shopID:   shopID,
			wantCode: apperrors.CodeTokenMismatch,
		},
		{
			name:     "order not ready",
			payload:  payload,
			state:    OrderState{OrderID: orderID, ShopID: shopID, PickupToken: "WXYZ2345", Status: enums.OrderStatusPreparing},
			shopID:   shopID,
			wantCode: apperrors.CodeNotReady,
		},
		{
			name:     "completed order not verifiable again",
			payload:  payload,
			state:    OrderState{OrderID: orderID, ShopID: shopID, PickupToken: "WXYZ2345", Status: enums.OrderStatusCompleted},
			shopID:   shopID,
			wantCode: apperrors.CodeNotReady,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(tt.payload, tt.state, tt.shopID)
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.wantCode))
		})
	}
}

func TestNewToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		tok, err := NewToken(8)
		require.NoError(t, err)
		require.Len(t, tok, 8)
		for _, c := range tok {
			assert.Contains(t, tokenAlphabet, string(c))
		}
		assert.False(t, seen[tok], "token collision")
		seen[tok] = true
	}
}

func TestNewTokenDefaultsLength(t *testing.T) {
	tok, err := NewToken(0)
	require.NoError(t, err)
	assert.Len(t, tok, 8)
}
