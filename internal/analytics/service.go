package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
)

const (
	defaultWindowDays = 30
	topItemLimit      = 10
)

// Service provides read-only order rollups for a shop.
type Service interface {
	ShopSummary(ctx context.Context, input SummaryInput) (*ShopSummary, error)
}

// SummaryInput selects the shop and reporting window. A zero window
// defaults to the trailing 30 days.
type SummaryInput struct {
	Actor  authz.Actor
	ShopID uuid.UUID
	From   time.Time
	To     time.Time
}

// TopItem is an item ranked by units sold across completed orders.
type TopItem struct {
	Name         string          `json:"name"`
	QtySold      int             `json:"qtySold"`
	RevenueCents int             `json:"revenueCents"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// DailyPoint is one day of completed-order revenue.
type DailyPoint struct {
	Day          string `json:"day"`
	Orders       int    `json:"orders"`
	RevenueCents int    `json:"revenueCents"`
}

// ShopSummary is the aggregate report returned to shop staff. Revenue
// figures only count completed orders; the status breakdown covers every
// order created in the window.
type ShopSummary struct {
	ShopID          uuid.UUID                   `json:"shopId"`
	From            time.Time                   `json:"from"`
	To              time.Time                   `json:"to"`
	CompletedOrders int                         `json:"completedOrders"`
	RevenueCents    int                         `json:"revenueCents"`
	Revenue         decimal.Decimal             `json:"revenue"`
	CountsByStatus  map[enums.OrderStatus]int64 `json:"countsByStatus"`
	TopItems        []TopItem                   `json:"topItems"`
	DailySeries     []DailyPoint                `json:"dailySeries"`
}

type service struct {
	repo  Repository
	authz authz.Authorizer
	logg  *logger.Logger
}

// NewService wires the analytics service with the provided dependencies.
func NewService(repo Repository, az authz.Authorizer, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("analytics repository required")
	}
	if az == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{repo: repo, authz: az, logg: logg}, nil
}

func (s *service) ShopSummary(ctx context.Context, input SummaryInput) (*ShopSummary, error) {
	if err := s.authz.CanViewShopAnalytics(input.Actor, input.ShopID); err != nil {
		return nil, err
	}
	if input.ShopID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "shop id is required")
	}

	from, to := input.From, input.To
	if to.IsZero() {
		to = time.Now()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -defaultWindowDays)
	}
	if !to.After(from) {
		return nil, apperrors.New(apperrors.CodeValidation, "window end must be after window start")
	}

	statusRows, err := s.repo.CountByStatus(ctx, input.ShopID, from, to)
	if err != nil {
		return nil, err
	}
	completed, err := s.repo.CompletedOrders(ctx, input.ShopID, from, to)
	if err != nil {
		return nil, err
	}
	itemRows, err := s.repo.TopItems(ctx, input.ShopID, from, to, topItemLimit)
	if err != nil {
		return nil, err
	}

	summary := &ShopSummary{
		ShopID:         input.ShopID,
		From:           from,
		To:             to,
		CountsByStatus: make(map[enums.OrderStatus]int64, len(statusRows)),
	}
	for _, row := range statusRows {
		summary.CountsByStatus[row.Status] = row.Count
	}

	daily := make(map[string]*DailyPoint)
	var days []string
	for _, order := range completed {
		summary.CompletedOrders++
		summary.RevenueCents += order.TotalCents

		day := order.CompletedAt.Format("2006-01-02")
		point, ok := daily[day]
		if !ok {
			point = &DailyPoint{Day: day}
			daily[day] = point
			days = append(days, day)
		}
		point.Orders++
		point.RevenueCents += order.TotalCents
	}
	summary.Revenue = decimal.NewFromInt(int64(summary.RevenueCents)).Shift(-2)

	summary.DailySeries = make([]DailyPoint, 0, len(days))
	for _, day := range days {
		summary.DailySeries = append(summary.DailySeries, *daily[day])
	}

	summary.TopItems = make([]TopItem, 0, len(itemRows))
	for _, row := range itemRows {
		summary.TopItems = append(summary.TopItems, TopItem{
			Name:         row.Name,
			QtySold:      row.QtySold,
			RevenueCents: row.RevenueCents,
			Revenue:      decimal.NewFromInt(int64(row.RevenueCents)).Shift(-2),
		})
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"shop_id":          input.ShopID.String(),
			"completed_orders": summary.CompletedOrders,
			"revenue_cents":    summary.RevenueCents,
		})
		s.logg.Info(logCtx, "shop summary computed")
	}
	return summary, nil
}
