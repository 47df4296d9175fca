package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	"github.com/nikhilmenon/campusbite-backend/pkg/types"
)

// Order is one purchase or service request by a student against a shop.
// TotalCents is frozen at creation as the sum of item subtotals.
type Order struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber    string                `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	UserID         uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	ShopID         uuid.UUID             `gorm:"column:shop_id;type:uuid;not null;index"`
	Status         enums.OrderStatus     `gorm:"column:status;type:text;not null;default:'pending'"`
	PaymentStatus  enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	ServiceType    enums.ServiceType     `gorm:"column:service_type;type:text;not null;default:'food'"`
	ServiceDetails *types.ServiceDetails `gorm:"column:service_details;type:jsonb;serializer:json"`
	TotalCents     int                   `gorm:"column:total_cents;not null"`
	Notes          *string               `gorm:"column:notes"`
	PickupToken    string                `gorm:"column:pickup_token;type:text;not null"`
	HandledBy      *uuid.UUID            `gorm:"column:handled_by;type:uuid"`
	CancelReason   *string               `gorm:"column:cancel_reason"`
	PreparingAt    *time.Time            `gorm:"column:preparing_at"`
	ReadyAt        *time.Time            `gorm:"column:ready_at"`
	PartialAt      *time.Time            `gorm:"column:partial_at"`
	CompletedAt    *time.Time            `gorm:"column:completed_at"`
	CancelledAt    *time.Time            `gorm:"column:cancelled_at"`
	PaidAt         *time.Time            `gorm:"column:paid_at"`
	Items          []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
