package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// Repository manages persistence for orders and their counters.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error)
	GetMenuItems(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) ([]models.MenuItem, error)
	// NextOrderNumber atomically increments and returns the daily sequence
	// for the given YYYYMMDD day key.
	NextOrderNumber(ctx context.Context, day string) (int, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	// UpdateStatusGuarded applies updates only while the order still holds
	// the expected status. Returns false when another writer won the race.
	UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error)
	ListForShop(ctx context.Context, shopID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an orders repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repository) GetShop(ctx context.Context, shopID uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", shopID).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *repository) GetMenuItems(ctx context.Context, shopID uuid.UUID, itemIDs []uuid.UUID) ([]models.MenuItem, error) {
	var items []models.MenuItem
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND id IN ?", shopID, itemIDs).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) NextOrderNumber(ctx context.Context, day string) (int, error) {
	var seq []int
	err := r.db.WithContext(ctx).Raw(
		`INSERT INTO order_counters (day, seq) VALUES (?, 1)
		 ON CONFLICT (day) DO UPDATE SET seq = order_counters.seq + 1
		 RETURNING seq`,
		day,
	).Scan(&seq).Error
	if err != nil {
		return 0, err
	}
	if len(seq) == 0 {
		return 0, gorm.ErrRecordNotFound
	}
	return seq[0], nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	for i := range order.Items {
		if order.Items[i].ID == uuid.Nil {
			order.Items[i].ID = uuid.New()
		}
		order.Items[i].OrderID = order.ID
	}
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) GetOrder(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&order, "id = ?", orderID).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) UpdateStatusGuarded(ctx context.Context, orderID uuid.UUID, expected enums.OrderStatus, updates map[string]any) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, expected).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Order, int64, error) {
	var total int64
	base := r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListForShop(ctx context.Context, shopID uuid.UUID, status *enums.OrderStatus, limit, offset int) ([]models.Order, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Order{}).Where("shop_id = ?", shopID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	list := r.db.WithContext(ctx).Preload("Items").Where("shop_id = ?", shopID)
	if status != nil {
		list = list.Where("status = ?", *status)
	}
	var rows []models.Order
	if err := list.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
