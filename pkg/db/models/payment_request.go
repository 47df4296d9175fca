package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// PaymentRequest is an admin-initiated bulk billing event. The counters are
// a denormalized cache over payment_submissions, maintained only by the
// dispatcher's Pay and Close paths.
type PaymentRequest struct {
	ID                  uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title               string                     `gorm:"column:title;type:text;not null"`
	Description         *string                    `gorm:"column:description"`
	AmountCents         int                        `gorm:"column:amount_cents;not null"`
	TargetType          enums.PaymentTargetType    `gorm:"column:target_type;type:text;not null"`
	TargetStudentIDs    []uuid.UUID                `gorm:"column:target_student_ids;type:jsonb;serializer:json"`
	TargetDepartment    *string                    `gorm:"column:target_department"`
	TargetYear          *int                       `gorm:"column:target_year"`
	Status              enums.PaymentRequestStatus `gorm:"column:status;type:text;not null;default:'active'"`
	TotalTargetCount    int                        `gorm:"column:total_target_count;not null;default:0"`
	PaidCount           int                        `gorm:"column:paid_count;not null;default:0"`
	TotalCollectedCents int                        `gorm:"column:total_collected_cents;not null;default:0"`
	CreatedBy           uuid.UUID                  `gorm:"column:created_by;type:uuid;not null"`
	DueDate             *time.Time                 `gorm:"column:due_date"`
	ShowOnDashboard     bool                       `gorm:"column:show_on_dashboard;not null;default:true"`
	ClosedAt            *time.Time                 `gorm:"column:closed_at"`
	CreatedAt           time.Time                  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time                  `gorm:"column:updated_at;autoUpdateTime"`
}
