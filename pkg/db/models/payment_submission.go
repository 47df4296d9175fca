package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// PaymentSubmission is one student's obligation under a payment request.
// The (request_id, student_id) pair is unique, which is what makes a
// retried Pay fail ALREADY_PAID instead of double-charging.
type PaymentSubmission struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID     uuid.UUID           `gorm:"column:request_id;type:uuid;not null;uniqueIndex:ux_payment_submissions_request_student"`
	StudentID     uuid.UUID           `gorm:"column:student_id;type:uuid;not null;uniqueIndex:ux_payment_submissions_request_student"`
	Status        enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	AmountCents   int                 `gorm:"column:amount_cents;not null"`
	TransactionID *uuid.UUID          `gorm:"column:transaction_id;type:uuid"`
	PaidAt        *time.Time          `gorm:"column:paid_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
