package orders

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/internal/wallet"
	"github.com/nikhilmenon/campusbite-backend/pkg/config"
	"github.com/nikhilmenon/campusbite-backend/pkg/db"
	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
	"github.com/nikhilmenon/campusbite-backend/pkg/outbox"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
	"github.com/nikhilmenon/campusbite-backend/pkg/pickup"
	"github.com/nikhilmenon/campusbite-backend/pkg/types"
)

// Service drives the order lifecycle: creation, the status state machine,
// and the transactional coupling between order state and wallet postings.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*CreateResult, error)
	Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error)
	ListForUser(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.Order, int64, error)
	ListForShop(ctx context.Context, actor authz.Actor, shopID uuid.UUID, status *enums.OrderStatus, page pagination.Page) ([]models.Order, int64, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelByOwner(ctx context.Context, input CancelInput) (*models.Order, error)
	// VerifyPickup is read-only: staff inspect the scanned payload before
	// issuing the separate completion call that posts the charge.
	VerifyPickup(ctx context.Context, input VerifyPickupInput) (*models.Order, error)
}

// CreateInput captures a student's order request.
type CreateInput struct {
	Actor          authz.Actor
	ShopID         uuid.UUID
	Items          []CreateItemInput
	Notes          *string
	ServiceDetails *types.ServiceDetails
}

// CreateItemInput is one requested catalog line.
type CreateItemInput struct {
	MenuItemID uuid.UUID
	Qty        int
}

// CreateResult returns the stored order plus the opaque payload the client
// renders as a pickup QR.
type CreateResult struct {
	Order         *models.Order
	PickupPayload string
}

// UpdateStatusInput advances an order through the state machine.
type UpdateStatusInput struct {
	Actor     authz.Actor
	OrderID   uuid.UUID
	NewStatus enums.OrderStatus
	Reason    *string
}

// CancelInput is the owner's cancel request, permitted only while pending.
type CancelInput struct {
	Actor   authz.Actor
	OrderID uuid.UUID
	Reason  *string
}

// VerifyPickupInput carries the raw scanned QR string.
type VerifyPickupInput struct {
	Actor      authz.Actor
	RawPayload string
}

type service struct {
	client *db.Client
	repo   Repository
	wallet wallet.Service
	events *outbox.Service
	authz  authz.Authorizer
	cfg    config.OrdersConfig
	logg   *logger.Logger
}

// NewService wires an orders service with the provided dependencies.
func NewService(client *db.Client, repo Repository, walletSvc wallet.Service, events *outbox.Service, az authz.Authorizer, cfg config.OrdersConfig, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if walletSvc == nil {
		return nil, fmt.Errorf("wallet service required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	if az == nil {
		return nil, fmt.Errorf("authorizer required")
	}
	return &service{client: client, repo: repo, wallet: walletSvc, events: events, authz: az, cfg: cfg, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*CreateResult, error) {
	if err := s.authz.CanCreateOrder(input.Actor); err != nil {
		return nil, err
	}
	if input.ShopID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "shop id is required")
	}
	if len(input.Items) == 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "order needs at least one item")
	}
	for _, item := range input.Items {
		if item.MenuItemID == uuid.Nil || item.Qty <= 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "each item needs a menu item id and a positive quantity")
		}
	}

	var result *CreateResult
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		user, err := repo.GetUser(ctx, input.Actor.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "user not found")
			}
			return err
		}
		if !user.IsActive {
			return apperrors.New(apperrors.CodeNotFound, "user account is inactive")
		}

		shop, err := repo.GetShop(ctx, input.ShopID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "shop not found")
			}
			return err
		}
		if !shop.IsActive {
			return apperrors.New(apperrors.CodeNotFound, "shop is not accepting orders")
		}

		snapshots, total, err := s.snapshotItems(ctx, repo, shop.ID, input.Items)
		if err != nil {
			return err
		}

		// Advisory check only: the wallet is charged at completion, and
		// the balance is re-checked inside that transaction.
		if user.BalanceCents < total {
			return apperrors.New(apperrors.CodeInsufficientBalance, "wallet balance does not cover the order total")
		}

		now := time.Now()
		day := now.Format("20060102")
		seq, err := repo.NextOrderNumber(ctx, day)
		if err != nil {
			return err
		}
		token, err := pickup.NewToken(s.cfg.PickupTokenLength)
		if err != nil {
			return err
		}

		order := &models.Order{
			OrderNumber:    fmt.Sprintf("%s-%s-%04d", s.cfg.NumberPrefix, day, seq),
			UserID:         user.ID,
			ShopID:         shop.ID,
			Status:         enums.OrderStatusPending,
			PaymentStatus:  enums.PaymentStatusPending,
			ServiceType:    shop.ServiceType,
			ServiceDetails: input.ServiceDetails,
			TotalCents:     total,
			Notes:          input.Notes,
			PickupToken:    token,
			Items:          snapshots,
			CreatedAt:      now,
		}
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}

		if err := s.emit(ctx, tx, enums.EventOrderCreated, order, input.Actor); err != nil {
			return err
		}

		result = &CreateResult{
			Order:         order,
			PickupPayload: pickup.Encode(order.ID, shop.ID, token, now),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"order_id":     result.Order.ID.String(),
			"order_number": result.Order.OrderNumber,
			"shop_id":      result.Order.ShopID.String(),
			"total_cents":  result.Order.TotalCents,
		})
		s.logg.Info(logCtx, "order created")
	}
	return result, nil
}

// snapshotItems resolves requested lines against the catalog, freezing name
// and effective price into the order. Later catalog edits never touch them.
func (s *service) snapshotItems(ctx context.Context, repo Repository, shopID uuid.UUID, requested []CreateItemInput) ([]models.OrderItem, int, error) {
	ids := make([]uuid.UUID, 0, len(requested))
	for _, item := range requested {
		ids = append(ids, item.MenuItemID)
	}
	catalog, err := repo.GetMenuItems(ctx, shopID, ids)
	if err != nil {
		return nil, 0, err
	}
	byID := make(map[uuid.UUID]models.MenuItem, len(catalog))
	for _, item := range catalog {
		byID[item.ID] = item
	}

	var unavailable []string
	snapshots := make([]models.OrderItem, 0, len(requested))
	total := 0
	for _, req := range requested {
		item, ok := byID[req.MenuItemID]
		if !ok {
			unavailable = append(unavailable, req.MenuItemID.String())
			continue
		}
		if !item.IsAvailable {
			unavailable = append(unavailable, item.Name)
			continue
		}
		unit := item.EffectivePriceCents()
		subtotal := unit * req.Qty
		total += subtotal
		snapshots = append(snapshots, models.OrderItem{
			MenuItemID:      item.ID,
			Name:            item.Name,
			UnitPriceCents:  item.PriceCents,
			OfferPriceCents: item.OfferPriceCents,
			Qty:             req.Qty,
			SubtotalCents:   subtotal,
			ImageURL:        item.ImageURL,
		})
	}
	if len(unavailable) > 0 {
		return nil, 0, apperrors.New(apperrors.CodeItemsUnavailable, "some items are unavailable").
			WithDetails(map[string]any{"items": unavailable})
	}
	return snapshots, total, nil
}

func (s *service) Get(ctx context.Context, actor authz.Actor, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.GetOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	if err := s.authz.CanViewOrder(actor, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ListForUser(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.Order, int64, error) {
	return s.repo.ListForUser(ctx, actor.UserID, page.Limit, page.Offset)
}

func (s *service) ListForShop(ctx context.Context, actor authz.Actor, shopID uuid.UUID, status *enums.OrderStatus, page pagination.Page) ([]models.Order, int64, error) {
	if err := s.authz.CanViewShopAnalytics(actor, shopID); err != nil {
		return nil, 0, err
	}
	if status != nil && !status.IsValid() {
		return nil, 0, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	return s.repo.ListForShop(ctx, shopID, status, page.Limit, page.Offset)
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	var updated *models.Order
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "order not found")
			}
			return err
		}
		if err := s.authz.CanManageOrder(input.Actor, order); err != nil {
			return err
		}
		staffID := input.Actor.UserID
		updated, err = s.applyTransition(ctx, tx, repo, order, input.NewStatus, &staffID, input.Reason, input.Actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) CancelByOwner(ctx context.Context, input CancelInput) (*models.Order, error) {
	var updated *models.Order
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.GetOrder(ctx, input.OrderID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "order not found")
			}
			return err
		}
		if order.UserID != input.Actor.UserID {
			return apperrors.New(apperrors.CodeForbidden, "order belongs to another user")
		}
		if order.Status != enums.OrderStatusPending {
			return apperrors.New(apperrors.CodePrecondition, "only pending orders can be cancelled by their owner")
		}
		updated, err = s.applyTransition(ctx, tx, repo, order, enums.OrderStatusCancelled, nil, input.Reason, input.Actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) VerifyPickup(ctx context.Context, input VerifyPickupInput) (*models.Order, error) {
	if err := s.authz.CanVerifyPickup(input.Actor); err != nil {
		return nil, err
	}
	payload := pickup.Decode(input.RawPayload)
	if payload == nil {
		return nil, apperrors.New(apperrors.CodeValidation, "malformed pickup payload")
	}
	order, err := s.repo.GetOrder(ctx, payload.OrderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "order not found")
		}
		return nil, err
	}
	presentingShop := order.ShopID
	if input.Actor.Role == enums.UserRoleShopStaff {
		presentingShop = *input.Actor.ShopID
	}
	state := pickup.OrderState{
		OrderID:     order.ID,
		ShopID:      order.ShopID,
		PickupToken: order.PickupToken,
		Status:      order.Status,
	}
	if err := pickup.Verify(payload, state, presentingShop); err != nil {
		return nil, err
	}
	return order, nil
}

// applyTransition performs one state-machine move plus its wallet effects
// as a single atomic unit inside the caller's transaction.
func (s *service) applyTransition(ctx context.Context, tx *gorm.DB, repo Repository, order *models.Order, to enums.OrderStatus, staffID *uuid.UUID, reason *string, actor authz.Actor) (*models.Order, error) {
	if !to.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid order status %q", to))
	}
	if !CanTransition(order.Status, to) {
		return nil, apperrors.New(apperrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, to))
	}

	now := time.Now()
	updates := map[string]any{"status": to}
	if col := timestampColumn(to); col != "" {
		updates[col] = now
	}
	if staffID != nil {
		updates["handled_by"] = *staffID
	}
	if reason != nil {
		updates["cancel_reason"] = *reason
	}

	switch {
	case to == enums.OrderStatusCompleted && order.PaymentStatus != enums.PaymentStatusPaid:
		if order.TotalCents > 0 {
			_, err := s.wallet.PostEntryTx(ctx, tx, wallet.PostEntryInput{
				UserID:      order.UserID,
				Type:        enums.LedgerEntryTypeDebit,
				AmountCents: order.TotalCents,
				Description: fmt.Sprintf("payment for order %s", order.OrderNumber),
				OrderID:     &order.ID,
				ActorID:     staffID,
				Source:      "order",
			})
			if err != nil {
				// The balance may have dropped since creation; the order
				// stays in its prior state.
				if apperrors.HasCode(err, apperrors.CodeInsufficientBalance) {
					return nil, apperrors.New(apperrors.CodeInsufficientOnCompletion,
						"wallet balance no longer covers the order total")
				}
				return nil, err
			}
		}
		updates["payment_status"] = enums.PaymentStatusPaid
		updates["paid_at"] = now

	case to == enums.OrderStatusCancelled && order.PaymentStatus == enums.PaymentStatusPaid:
		if order.TotalCents > 0 {
			_, err := s.wallet.PostEntryTx(ctx, tx, wallet.PostEntryInput{
				UserID:      order.UserID,
				Type:        enums.LedgerEntryTypeRefund,
				AmountCents: order.TotalCents,
				Description: fmt.Sprintf("refund for order %s", order.OrderNumber),
				OrderID:     &order.ID,
				ActorID:     staffID,
				Source:      "order",
			})
			if err != nil {
				return nil, err
			}
		}
		updates["payment_status"] = enums.PaymentStatusRefunded
	}

	applied, err := repo.UpdateStatusGuarded(ctx, order.ID, order.Status, updates)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.New(apperrors.CodeStateConflict, "order was modified concurrently")
	}

	eventType := enums.EventOrderStatusChanged
	switch to {
	case enums.OrderStatusReady:
		eventType = enums.EventOrderReady
	case enums.OrderStatusCancelled:
		eventType = enums.EventOrderCancelled
	}
	refreshed, err := repo.GetOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if err := s.emit(ctx, tx, eventType, refreshed, actor); err != nil {
		return nil, err
	}
	return refreshed, nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, order *models.Order, actor authz.Actor) error {
	return s.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor: &outbox.ActorRef{
			UserID: actor.UserID,
			ShopID: actor.ShopID,
			Role:   string(actor.Role),
		},
		Data: outbox.OrderEventData{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
			UserID:      order.UserID,
			ShopID:      order.ShopID,
			Status:      string(order.Status),
			TotalCents:  order.TotalCents,
		},
		Version: 1,
	})
}
