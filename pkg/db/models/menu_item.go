package models

import (
	"time"

	"github.com/google/uuid"
)

// MenuItem is a catalog entry owned by a shop. Orders snapshot its name and
// price at creation time; later edits never touch existing orders.
type MenuItem struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID          uuid.UUID `gorm:"column:shop_id;type:uuid;not null;index"`
	Name            string    `gorm:"column:name;type:text;not null"`
	Description     *string   `gorm:"column:description"`
	Category        *string   `gorm:"column:category"`
	PriceCents      int       `gorm:"column:price_cents;not null"`
	OfferPriceCents *int      `gorm:"column:offer_price_cents"`
	ImageURL        *string   `gorm:"column:image_url"`
	IsAvailable     bool      `gorm:"column:is_available;not null;default:true"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// EffectivePriceCents returns the active offer price when present.
func (m MenuItem) EffectivePriceCents() int {
	if m.OfferPriceCents != nil {
		return *m.OfferPriceCents
	}
	return m.PriceCents
}
