package wallet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// Repository manages persistence for wallet balances and ledger partitions.
// Entry operations take the partition table name explicitly; callers derive
// it with PartitionFor.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	// AdjustBalance applies deltaCents to the cached user balance. It
	// refuses to drive the balance negative: applied is false when the
	// user is missing or the guard rejects the delta.
	AdjustBalance(ctx context.Context, userID uuid.UUID, deltaCents int) (afterCents int, applied bool, err error)
	InsertEntry(ctx context.Context, partition string, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, partition string, userID uuid.UUID, entryType *enums.LedgerEntryType, limit, offset int) ([]models.LedgerEntry, error)
	CountEntries(ctx context.Context, partition string, userID uuid.UUID, entryType *enums.LedgerEntryType) (int64, error)
	// NetSum returns the signed sum of entries in one partition, credits
	// and refunds positive, debits negative.
	NetSum(ctx context.Context, partition string, userID uuid.UUID) (int64, error)
	EnsurePartition(ctx context.Context, partition string) error
	// ForgetPartition drops the cached knowledge that a partition exists.
	ForgetPartition(partition string)
	// ListPartitions returns every existing ledger partition table for the
	// prefix, newest first.
	ListPartitions(ctx context.Context, prefix string) ([]string, error)
}

type repository struct {
	db       *gorm.DB
	registry *Registry
}

// NewRepository returns a wallet repository bound to the provided database.
func NewRepository(db *gorm.DB, registry *Registry) Repository {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	return &repository{db: db, registry: registry}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx, registry: r.registry}
}

func (r *repository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) AdjustBalance(ctx context.Context, userID uuid.UUID, deltaCents int) (int, bool, error) {
	var after []int
	res := r.db.WithContext(ctx).Raw(
		`UPDATE users
		    SET balance_cents = balance_cents + ?, updated_at = ?
		  WHERE id = ? AND balance_cents + ? >= 0
		RETURNING balance_cents`,
		deltaCents, time.Now(), userID, deltaCents,
	).Scan(&after)
	if res.Error != nil {
		return 0, false, res.Error
	}
	if len(after) == 0 {
		return 0, false, nil
	}
	return after[0], true, nil
}

func (r *repository) InsertEntry(ctx context.Context, partition string, entry *models.LedgerEntry) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	return r.db.WithContext(ctx).Table(partition).Create(entry).Error
}

func (r *repository) ListEntries(ctx context.Context, partition string, userID uuid.UUID, entryType *enums.LedgerEntryType, limit, offset int) ([]models.LedgerEntry, error) {
	query := r.db.WithContext(ctx).
		Table(partition).
		Where("user_id = ?", userID)
	if entryType != nil {
		query = query.Where("type = ?", *entryType)
	}
	var entries []models.LedgerEntry
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *repository) CountEntries(ctx context.Context, partition string, userID uuid.UUID, entryType *enums.LedgerEntryType) (int64, error) {
	query := r.db.WithContext(ctx).
		Table(partition).
		Where("user_id = ?", userID)
	if entryType != nil {
		query = query.Where("type = ?", *entryType)
	}
	var count int64
	err := query.Count(&count).Error
	return count, err
}

func (r *repository) NetSum(ctx context.Context, partition string, userID uuid.UUID) (int64, error) {
	var sum []int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(CASE WHEN type = 'debit' THEN -amount_cents ELSE amount_cents END), 0)
		   FROM `+partition+` WHERE user_id = ?`,
		userID,
	).Scan(&sum).Error
	if err != nil {
		return 0, err
	}
	if len(sum) == 0 {
		return 0, nil
	}
	return sum[0], nil
}

func (r *repository) EnsurePartition(ctx context.Context, partition string) error {
	return r.registry.Ensure(ctx, r.db, partition)
}

func (r *repository) ForgetPartition(partition string) {
	r.registry.Forget(partition)
}

func (r *repository) ListPartitions(ctx context.Context, prefix string) ([]string, error) {
	pattern := strings.ReplaceAll(prefix, "_", `\_`) + `\_%`
	var (
		names []string
		err   error
	)
	switch r.db.Dialector.Name() {
	case "sqlite":
		err = r.db.WithContext(ctx).Raw(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE ? ESCAPE '\' ORDER BY name DESC`,
			pattern,
		).Scan(&names).Error
	default:
		err = r.db.WithContext(ctx).Raw(
			`SELECT tablename FROM pg_tables WHERE schemaname = current_schema() AND tablename LIKE ? ESCAPE '\' ORDER BY tablename DESC`,
			pattern,
		).Scan(&names).Error
	}
	return names, err
}
