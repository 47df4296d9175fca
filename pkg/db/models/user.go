package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// User represents the canonical identity entity. BalanceCents is the cached,
// authoritative wallet balance; it is written only inside a transaction that
// also appends a justifying ledger entry.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RegNumber    string         `gorm:"column:reg_number;type:text;not null;uniqueIndex"`
	Email        string         `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'student'"`
	Department   *string        `gorm:"column:department"`
	Year         *int           `gorm:"column:year"`
	ShopID       *uuid.UUID     `gorm:"column:shop_id;type:uuid"`
	BalanceCents int            `gorm:"column:balance_cents;not null;default:0"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	IsApproved   bool           `gorm:"column:is_approved;not null;default:false"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
