package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

type statusCountRow struct {
	Status enums.OrderStatus
	Count  int64
}

type completedOrderRow struct {
	CompletedAt time.Time
	TotalCents  int
}

type topItemRow struct {
	Name         string
	QtySold      int
	RevenueCents int
}

// Repository exposes the read-only order rollup queries behind the
// shop summary. All windows are half-open: [from, to).
type Repository interface {
	CountByStatus(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]statusCountRow, error)
	CompletedOrders(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]completedOrderRow, error)
	TopItems(ctx context.Context, shopID uuid.UUID, from, to time.Time, limit int) ([]topItemRow, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an analytics repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) CountByStatus(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]statusCountRow, error) {
	var rows []statusCountRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("status, COUNT(*) AS count").
		Where("shop_id = ? AND created_at >= ? AND created_at < ?", shopID, from, to).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) CompletedOrders(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]completedOrderRow, error) {
	var rows []completedOrderRow
	err := r.db.WithContext(ctx).
		Table("orders").
		Select("completed_at, total_cents").
		Where("shop_id = ? AND status = ? AND completed_at >= ? AND completed_at < ?",
			shopID, enums.OrderStatusCompleted, from, to).
		Order("completed_at ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) TopItems(ctx context.Context, shopID uuid.UUID, from, to time.Time, limit int) ([]topItemRow, error) {
	var rows []topItemRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select("order_items.name AS name, SUM(order_items.qty) AS qty_sold, SUM(order_items.subtotal_cents) AS revenue_cents").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.shop_id = ? AND orders.status = ? AND orders.completed_at >= ? AND orders.completed_at < ?",
			shopID, enums.OrderStatusCompleted, from, to).
		Group("order_items.name").
		Order("qty_sold DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
