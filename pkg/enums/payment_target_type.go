package enums

import "fmt"

// PaymentTargetType selects the audience of an ad-hoc payment request.
type PaymentTargetType string

const (
	PaymentTargetAll        PaymentTargetType = "all"
	PaymentTargetStudents   PaymentTargetType = "students"
	PaymentTargetDepartment PaymentTargetType = "department"
	PaymentTargetYear       PaymentTargetType = "year"
)

var validPaymentTargetTypes = []PaymentTargetType{
	PaymentTargetAll,
	PaymentTargetStudents,
	PaymentTargetDepartment,
	PaymentTargetYear,
}

// String implements fmt.Stringer.
func (p PaymentTargetType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentTargetType.
func (p PaymentTargetType) IsValid() bool {
	for _, candidate := range validPaymentTargetTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentTargetType converts raw input into a PaymentTargetType.
func ParsePaymentTargetType(value string) (PaymentTargetType, error) {
	for _, candidate := range validPaymentTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment target type %q", value)
}
