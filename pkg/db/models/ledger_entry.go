package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	"github.com/nikhilmenon/campusbite-backend/pkg/types"
)

// LedgerEntry is an immutable record of one wallet balance change.
// Entries live in monthly partition tables (transactions_<year>_<month>),
// so the struct carries no fixed table name; repositories bind it with
// Table(partition) per call. BalanceBefore/After snapshot the cached user
// balance inside the same transaction that created the entry.
type LedgerEntry struct {
	ID                 uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID             uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	Type               enums.LedgerEntryType `gorm:"column:type;type:text;not null"`
	AmountCents        int                   `gorm:"column:amount_cents;not null"`
	BalanceBeforeCents int                   `gorm:"column:balance_before_cents;not null"`
	BalanceAfterCents  int                   `gorm:"column:balance_after_cents;not null"`
	Description        string                `gorm:"column:description;type:text;not null"`
	OrderID            *uuid.UUID            `gorm:"column:order_id;type:uuid"`
	ActorID            *uuid.UUID            `gorm:"column:actor_id;type:uuid"`
	Source             string                `gorm:"column:source;type:text;not null;default:'system'"`
	Metadata           types.JSONMap         `gorm:"column:metadata;type:jsonb;serializer:json"`
	CreatedAt          time.Time             `gorm:"column:created_at;autoCreateTime"`
}
