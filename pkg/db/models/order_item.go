package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is the immutable snapshot of one ordered catalog line.
type OrderItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	MenuItemID      uuid.UUID `gorm:"column:menu_item_id;type:uuid;not null"`
	Name            string    `gorm:"column:name;type:text;not null"`
	UnitPriceCents  int       `gorm:"column:unit_price_cents;not null"`
	OfferPriceCents *int      `gorm:"column:offer_price_cents"`
	Qty             int       `gorm:"column:qty;not null"`
	SubtotalCents   int       `gorm:"column:subtotal_cents;not null"`
	ImageURL        *string   `gorm:"column:image_url"`
	Delivered       bool      `gorm:"column:delivered;not null;default:false"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
