package wallet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"
)

// PartitionFor returns the ledger table name holding entries for the calendar
// month of t, e.g. transactions_2026_08. Partitioning is by wall-clock month
// in the server's configured location.
func PartitionFor(prefix string, t time.Time) string {
	return fmt.Sprintf("%s_%04d_%02d", prefix, t.Year(), int(t.Month()))
}

// PartitionsBetween returns the partition names covering the months from
// "from" through "to" inclusive, newest first. An inverted range yields nil.
func PartitionsBetween(prefix string, from, to time.Time) []string {
	from = monthStart(from)
	to = monthStart(to)
	if from.After(to) {
		return nil
	}
	var names []string
	for cur := to; !cur.Before(from); cur = cur.AddDate(0, -1, 0) {
		names = append(names, PartitionFor(prefix, cur))
	}
	return names
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// Registry lazily creates monthly partition tables and remembers which ones
// exist so the common path costs one map lookup. The DDL is idempotent, so a
// race between two processes creating the same month is harmless.
type Registry struct {
	mu      sync.Mutex
	ensured map[string]bool
	ddl     func(table string) []string
}

// NewRegistry builds a registry using the given DDL generator. Passing nil
// selects the Postgres statements.
func NewRegistry(ddl func(table string) []string) *Registry {
	if ddl == nil {
		ddl = PostgresPartitionDDL
	}
	return &Registry{ensured: make(map[string]bool), ddl: ddl}
}

// Ensure creates the partition table if this registry has not seen it yet.
// Safe to call inside the transaction that will insert into the partition,
// with one caveat: if that transaction rolls back, the DDL rolls back with
// it and the cache goes stale. Callers recover with Forget.
func (g *Registry) Ensure(ctx context.Context, tx *gorm.DB, table string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ensured[table] {
		return nil
	}
	for _, stmt := range g.ddl(table) {
		if err := tx.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensuring partition %s: %w", table, err)
		}
	}
	g.ensured[table] = true
	return nil
}

// Forget drops a table from the cache so the next Ensure re-runs the DDL.
// Used when the transaction that ran the DDL rolled back, taking the table
// with it.
func (g *Registry) Forget(table string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.ensured, table)
}

// PostgresPartitionDDL returns the statements creating one monthly ledger
// partition on Postgres.
func PostgresPartitionDDL(table string) []string {
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL,
    type TEXT NOT NULL,
    amount_cents BIGINT NOT NULL CHECK (amount_cents > 0),
    balance_before_cents BIGINT NOT NULL,
    balance_after_cents BIGINT NOT NULL,
    description TEXT NOT NULL,
    order_id UUID,
    actor_id UUID,
    source TEXT NOT NULL DEFAULT 'system',
    metadata JSONB,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`, table),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS ix_%s_user_created ON %s (user_id, created_at DESC)`, table, table),
	}
}
