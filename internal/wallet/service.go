package wallet

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/pkg/config"
	"github.com/nikhilmenon/campusbite-backend/pkg/db"
	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
	"github.com/nikhilmenon/campusbite-backend/pkg/types"
)

// Service defines the wallet ledger operations. Every balance change goes
// through PostEntry or PostEntryTx; nothing else writes users.balance_cents.
type Service interface {
	PostEntry(ctx context.Context, input PostEntryInput) (*models.LedgerEntry, error)
	// PostEntryTx applies the entry inside the caller's transaction so an
	// order transition and its wallet movement commit atomically.
	PostEntryTx(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.LedgerEntry, error)
	Balance(ctx context.Context, userID uuid.UUID) (int, error)
	ListEntries(ctx context.Context, q EntriesQuery) ([]models.LedgerEntry, int64, error)
	// Reconcile replays every existing ledger partition against the cached
	// balance; a zero from/to means the full history.
	Reconcile(ctx context.Context, userID uuid.UUID, from, to time.Time) (*ReconcileReport, error)
}

// PostEntryInput captures one wallet movement. AmountCents is always
// positive; the entry type determines the direction.
type PostEntryInput struct {
	UserID      uuid.UUID
	Type        enums.LedgerEntryType
	AmountCents int
	Description string
	OrderID     *uuid.UUID
	ActorID     *uuid.UUID
	Source      string
	Metadata    types.JSONMap
	OccurredAt  time.Time
}

// EntriesQuery selects a user's ledger rows across a month range. A nil
// Type matches every entry kind.
type EntriesQuery struct {
	UserID uuid.UUID
	Type   *enums.LedgerEntryType
	From   time.Time
	To     time.Time
	Page   pagination.Page
}

// ReconcileReport compares the cached balance against the replayed ledger.
type ReconcileReport struct {
	UserID        uuid.UUID `json:"user_id"`
	CachedCents   int       `json:"cached_cents"`
	ComputedCents int64     `json:"computed_cents"`
	DriftCents    int64     `json:"drift_cents"`
	Partitions    []string  `json:"partitions"`
}

const ledgerInsertSavepoint = "ledger_insert"

type service struct {
	client *db.Client
	repo   Repository
	cfg    config.WalletConfig
	logg   *logger.Logger
}

// NewService wires a wallet service with the provided dependencies.
func NewService(client *db.Client, repo Repository, cfg config.WalletConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("wallet repository required")
	}
	if cfg.PartitionPrefix == "" {
		return nil, fmt.Errorf("wallet partition prefix required")
	}
	return &service{client: client, repo: repo, cfg: cfg, logg: logg}, nil
}

func (s *service) PostEntry(ctx context.Context, input PostEntryInput) (*models.LedgerEntry, error) {
	var entry *models.LedgerEntry
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		var txErr error
		entry, txErr = s.PostEntryTx(ctx, tx, input)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *service) PostEntryTx(ctx context.Context, tx *gorm.DB, input PostEntryInput) (*models.LedgerEntry, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction required")
	}
	if input.UserID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if !input.Type.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", input.Type))
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	if input.Description == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "description is required")
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	source := input.Source
	if source == "" {
		source = "system"
	}

	repo := s.repo.WithTx(tx)
	delta := input.Type.Sign() * input.AmountCents

	after, applied, err := repo.AdjustBalance(ctx, input.UserID, delta)
	if err != nil {
		return nil, err
	}
	if !applied {
		if _, err := repo.GetUser(ctx, input.UserID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
			}
			return nil, err
		}
		return nil, apperrors.New(apperrors.CodeInsufficientBalance, "insufficient wallet balance")
	}

	partition := PartitionFor(s.cfg.PartitionPrefix, occurredAt)
	if err := repo.EnsurePartition(ctx, partition); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		UserID:             input.UserID,
		Type:               input.Type,
		AmountCents:        input.AmountCents,
		BalanceBeforeCents: after - delta,
		BalanceAfterCents:  after,
		Description:        input.Description,
		OrderID:            input.OrderID,
		ActorID:            input.ActorID,
		Source:             source,
		Metadata:           input.Metadata,
		CreatedAt:          occurredAt,
	}
	// The partition DDL may have run inside an earlier transaction that
	// rolled back, leaving the registry cache claiming a table that no
	// longer exists. The savepoint lets the insert fail without aborting
	// the caller's transaction, so the partition can be recreated and the
	// insert retried once.
	if err := tx.SavePoint(ledgerInsertSavepoint).Error; err != nil {
		return nil, err
	}
	if err := repo.InsertEntry(ctx, partition, entry); err != nil {
		if !db.IsUndefinedTable(err) {
			return nil, err
		}
		if rbErr := tx.RollbackTo(ledgerInsertSavepoint).Error; rbErr != nil {
			return nil, rbErr
		}
		repo.ForgetPartition(partition)
		if err := repo.EnsurePartition(ctx, partition); err != nil {
			return nil, err
		}
		if err := repo.InsertEntry(ctx, partition, entry); err != nil {
			return nil, err
		}
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"user_id":       input.UserID.String(),
			"entry_type":    input.Type,
			"amount":        input.AmountCents,
			"balance_after": after,
			"partition":     partition,
		})
		s.logg.Info(logCtx, "ledger entry posted")
	}
	return entry, nil
}

func (s *service) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return 0, err
	}
	return user.BalanceCents, nil
}

func (s *service) ListEntries(ctx context.Context, q EntriesQuery) ([]models.LedgerEntry, int64, error) {
	if q.UserID == uuid.Nil {
		return nil, 0, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	if q.Type != nil && !q.Type.IsValid() {
		return nil, 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid ledger entry type %q", *q.Type))
	}
	from, to := s.clampRange(q.From, q.To)
	partitions := PartitionsBetween(s.cfg.PartitionPrefix, from, to)

	limit := q.Page.Limit
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	offset := q.Page.Offset
	if offset < 0 {
		offset = 0
	}

	var (
		entries []models.LedgerEntry
		total   int64
	)
	remaining := limit
	skip := offset
	// Partitions are ordered newest first, so a page walks backwards in
	// time the same way the per-partition DESC sort does.
	for _, partition := range partitions {
		count, err := s.repo.CountEntries(ctx, partition, q.UserID, q.Type)
		if err != nil {
			if db.IsUndefinedTable(err) {
				continue
			}
			return nil, 0, err
		}
		total += count

		if remaining <= 0 {
			continue
		}
		if skip >= int(count) {
			skip -= int(count)
			continue
		}
		rows, err := s.repo.ListEntries(ctx, partition, q.UserID, q.Type, remaining, skip)
		if err != nil {
			if db.IsUndefinedTable(err) {
				continue
			}
			return nil, 0, err
		}
		skip = 0
		remaining -= len(rows)
		entries = append(entries, rows...)
	}
	return entries, total, nil
}

func (s *service) Reconcile(ctx context.Context, userID uuid.UUID, from, to time.Time) (*ReconcileReport, error) {
	if userID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "user id is required")
	}
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return nil, err
	}

	// Reconcile is the audit path, so it replays every partition that
	// exists rather than the clamped query window. An explicit from/to
	// narrows the replay for spot checks.
	partitions, err := s.repo.ListPartitions(ctx, s.cfg.PartitionPrefix)
	if err != nil {
		return nil, err
	}
	partitions = filterPartitions(partitions, s.cfg.PartitionPrefix, from, to)

	var (
		computed int64
		scanErr  error
		scanned  []string
	)
	for _, partition := range partitions {
		sum, err := s.repo.NetSum(ctx, partition, userID)
		if err != nil {
			if db.IsUndefinedTable(err) {
				continue
			}
			scanErr = multierr.Append(scanErr, fmt.Errorf("partition %s: %w", partition, err))
			continue
		}
		computed += sum
		scanned = append(scanned, partition)
	}
	if scanErr != nil {
		return nil, scanErr
	}

	return &ReconcileReport{
		UserID:        userID,
		CachedCents:   user.BalanceCents,
		ComputedCents: computed,
		DriftCents:    int64(user.BalanceCents) - computed,
		Partitions:    scanned,
	}, nil
}

// filterPartitions keeps the partition names inside the optional window.
// Names are zero padded, so lexical order matches chronological order.
func filterPartitions(names []string, prefix string, from, to time.Time) []string {
	if from.IsZero() && to.IsZero() {
		return names
	}
	var lower, upper string
	if !from.IsZero() {
		lower = PartitionFor(prefix, from)
	}
	if !to.IsZero() {
		upper = PartitionFor(prefix, to)
	}
	kept := names[:0]
	for _, name := range names {
		if lower != "" && name < lower {
			continue
		}
		if upper != "" && name > upper {
			continue
		}
		kept = append(kept, name)
	}
	return kept
}

func (s *service) clampRange(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now()
	}
	maxMonths := s.cfg.QueryMaxMonths
	if maxMonths <= 0 {
		maxMonths = 24
	}
	floor := monthStart(to).AddDate(0, -(maxMonths - 1), 0)
	if from.IsZero() || from.Before(floor) {
		from = floor
	}
	return from, to
}
