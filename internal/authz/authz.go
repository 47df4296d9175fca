// Package authz holds the capability checks domain services call out to.
// Services never inspect roles directly; they ask the Authorizer whether
// the acting identity may perform the operation on the given resource.
package authz

import (
	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
)

// Actor is the authenticated identity the upstream layer supplies.
type Actor struct {
	UserID uuid.UUID
	Role   enums.UserRole
	ShopID *uuid.UUID
}

// IsStaffOf reports whether the actor is staff assigned to the shop.
func (a Actor) IsStaffOf(shopID uuid.UUID) bool {
	return a.Role == enums.UserRoleShopStaff && a.ShopID != nil && *a.ShopID == shopID
}

// Authorizer is the capability surface the services depend on.
type Authorizer interface {
	CanCreateOrder(actor Actor) error
	CanViewOrder(actor Actor, order *models.Order) error
	CanManageOrder(actor Actor, order *models.Order) error
	CanVerifyPickup(actor Actor) error
	CanViewWallet(actor Actor, userID uuid.UUID) error
	CanManagePayments(actor Actor) error
	CanViewShopAnalytics(actor Actor, shopID uuid.UUID) error
}

type authorizer struct{}

// New returns the default role/shop-scope authorizer.
func New() Authorizer {
	return authorizer{}
}

func (authorizer) CanCreateOrder(actor Actor) error {
	if actor.Role == enums.UserRoleStudent {
		return nil
	}
	return forbidden("only students place orders")
}

func (authorizer) CanViewOrder(actor Actor, order *models.Order) error {
	switch {
	case actor.Role == enums.UserRoleAdmin:
		return nil
	case actor.UserID == order.UserID:
		return nil
	case actor.IsStaffOf(order.ShopID):
		return nil
	}
	return forbidden("order belongs to another user")
}

func (authorizer) CanManageOrder(actor Actor, order *models.Order) error {
	if actor.Role == enums.UserRoleAdmin || actor.IsStaffOf(order.ShopID) {
		return nil
	}
	return forbidden("only the shop's staff manage its orders")
}

func (authorizer) CanVerifyPickup(actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	if actor.Role == enums.UserRoleShopStaff && actor.ShopID != nil {
		return nil
	}
	return forbidden("pickup verification requires shop staff")
}

func (authorizer) CanViewWallet(actor Actor, userID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin || actor.UserID == userID {
		return nil
	}
	return forbidden("wallet belongs to another user")
}

func (authorizer) CanManagePayments(actor Actor) error {
	if actor.Role == enums.UserRoleAdmin {
		return nil
	}
	return forbidden("payment requests require admin")
}

func (authorizer) CanViewShopAnalytics(actor Actor, shopID uuid.UUID) error {
	if actor.Role == enums.UserRoleAdmin || actor.IsStaffOf(shopID) {
		return nil
	}
	return forbidden("analytics require the shop's staff")
}

func forbidden(msg string) error {
	return apperrors.New(apperrors.CodeForbidden, msg)
}
