package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
)

type analyticsTestEnv struct {
	svc   Service
	conn  *gorm.DB
	shop  uuid.UUID
	staff authz.Actor
}

func setupAnalyticsTest(t *testing.T) *analyticsTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  order_number TEXT NOT NULL,
  user_id TEXT NOT NULL,
  shop_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  payment_status TEXT NOT NULL DEFAULT 'pending',
  total_cents INTEGER NOT NULL,
  created_at DATETIME,
  completed_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  menu_item_id TEXT NOT NULL,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  subtotal_cents INTEGER NOT NULL
)`,
	}
	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	svc, err := NewService(NewRepository(conn), authz.New(), nil)
	require.NoError(t, err)

	shopID := uuid.New()
	staff := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleShopStaff, ShopID: &shopID}
	return &analyticsTestEnv{svc: svc, conn: conn, shop: shopID, staff: staff}
}

func (e *analyticsTestEnv) seedOrder(t *testing.T, status enums.OrderStatus, totalCents int, createdAt time.Time, items map[string]int) uuid.UUID {
	t.Helper()
	orderID := uuid.New()
	var completedAt *time.Time
	if status == enums.OrderStatusCompleted {
		completedAt = &createdAt
	}
	err := e.conn.Exec(
		`INSERT INTO orders (id, order_number, user_id, shop_id, status, total_cents, created_at, completed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		orderID.String(), "ORD-TEST", uuid.New().String(), e.shop.String(), status, totalCents, createdAt, completedAt,
	).Error
	require.NoError(t, err)

	for name, qty := range items {
		unit := totalCents / max(qty, 1)
		err := e.conn.Exec(
			`INSERT INTO order_items (id, order_id, menu_item_id, name, unit_price_cents, qty, subtotal_cents)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.New().String(), orderID.String(), uuid.New().String(), name, unit, qty, unit*qty,
		).Error
		require.NoError(t, err)
	}
	return orderID
}

func TestShopSummary(t *testing.T) {
	env := setupAnalyticsTest(t)
	ctx := context.Background()

	monday := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	env.seedOrder(t, enums.OrderStatusCompleted, 30000, monday, map[string]int{"Masala Dosa": 3})
	env.seedOrder(t, enums.OrderStatusCompleted, 12000, monday.Add(2*time.Hour), map[string]int{"Filter Coffee": 5})
	env.seedOrder(t, enums.OrderStatusCompleted, 10000, tuesday, map[string]int{"Masala Dosa": 1})
	env.seedOrder(t, enums.OrderStatusCancelled, 5000, monday, map[string]int{"Masala Dosa": 1})
	env.seedOrder(t, enums.OrderStatusPending, 4000, tuesday, nil)

	summary, err := env.svc.ShopSummary(ctx, SummaryInput{
		Actor:  env.staff,
		ShopID: env.shop,
		From:   monday.AddDate(0, 0, -1),
		To:     tuesday.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, summary.CompletedOrders)
	assert.Equal(t, 52000, summary.RevenueCents)
	assert.True(t, summary.Revenue.Equal(decimal.NewFromInt(520)), "revenue should be 520.00, got %s", summary.Revenue)

	assert.Equal(t, int64(3), summary.CountsByStatus[enums.OrderStatusCompleted])
	assert.Equal(t, int64(1), summary.CountsByStatus[enums.OrderStatusCancelled])
	assert.Equal(t, int64(1), summary.CountsByStatus[enums.OrderStatusPending])

	require.Len(t, summary.DailySeries, 2)
	assert.Equal(t, "2026-03-02", summary.DailySeries[0].Day)
	assert.Equal(t, 2, summary.DailySeries[0].Orders)
	assert.Equal(t, 42000, summary.DailySeries[0].RevenueCents)
	assert.Equal(t, "2026-03-03", summary.DailySeries[1].Day)
	assert.Equal(t, 10000, summary.DailySeries[1].RevenueCents)

	require.Len(t, summary.TopItems, 2)
	assert.Equal(t, "Filter Coffee", summary.TopItems[0].Name, "most units sold ranks first")
	assert.Equal(t, 5, summary.TopItems[0].QtySold)
	assert.Equal(t, "Masala Dosa", summary.TopItems[1].Name)
	assert.Equal(t, 4, summary.TopItems[1].QtySold, "cancelled order items excluded")
}

func TestShopSummary_EmptyWindow(t *testing.T) {
	env := setupAnalyticsTest(t)

	summary, err := env.svc.ShopSummary(context.Background(), SummaryInput{
		Actor:  env.staff,
		ShopID: env.shop,
	})
	require.NoError(t, err)
	assert.Zero(t, summary.CompletedOrders)
	assert.Zero(t, summary.RevenueCents)
	assert.Empty(t, summary.DailySeries)
	assert.Empty(t, summary.TopItems)
	assert.True(t, summary.Revenue.IsZero())
}

func TestShopSummary_Authorization(t *testing.T) {
	env := setupAnalyticsTest(t)
	ctx := context.Background()

	otherShop := uuid.New()
	outsider := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleShopStaff, ShopID: &otherShop}
	_, err := env.svc.ShopSummary(ctx, SummaryInput{Actor: outsider, ShopID: env.shop})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	student := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleStudent}
	_, err = env.svc.ShopSummary(ctx, SummaryInput{Actor: student, ShopID: env.shop})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	_, err = env.svc.ShopSummary(ctx, SummaryInput{Actor: admin, ShopID: env.shop})
	require.NoError(t, err)
}

func TestShopSummary_InvalidWindow(t *testing.T) {
	env := setupAnalyticsTest(t)

	now := time.Now()
	_, err := env.svc.ShopSummary(context.Background(), SummaryInput{
		Actor:  env.staff,
		ShopID: env.shop,
		From:   now,
		To:     now.Add(-time.Hour),
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
