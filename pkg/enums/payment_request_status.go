package enums

import "fmt"

// PaymentRequestStatus tracks the lifecycle of an ad-hoc billing event.
type PaymentRequestStatus string

const (
	PaymentRequestStatusActive    PaymentRequestStatus = "active"
	PaymentRequestStatusClosed    PaymentRequestStatus = "closed"
	PaymentRequestStatusCancelled PaymentRequestStatus = "cancelled"
)

var validPaymentRequestStatuses = []PaymentRequestStatus{
	PaymentRequestStatusActive,
	PaymentRequestStatusClosed,
	PaymentRequestStatusCancelled,
}

// String implements fmt.Stringer.
func (p PaymentRequestStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentRequestStatus.
func (p PaymentRequestStatus) IsValid() bool {
	for _, candidate := range validPaymentRequestStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentRequestStatus converts raw input into a PaymentRequestStatus.
func ParsePaymentRequestStatus(value string) (PaymentRequestStatus, error) {
	for _, candidate := range validPaymentRequestStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment request status %q", value)
}
