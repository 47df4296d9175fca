package authz

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
)

func TestCapabilities(t *testing.T) {
	shopID := uuid.New()
	otherShopID := uuid.New()
	studentID := uuid.New()

	student := Actor{UserID: studentID, Role: enums.UserRoleStudent}
	staff := Actor{UserID: uuid.New(), Role: enums.UserRoleShopStaff, ShopID: &shopID}
	otherStaff := Actor{UserID: uuid.New(), Role: enums.UserRoleShopStaff, ShopID: &otherShopID}
	admin := Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}

	order := &models.Order{ID: uuid.New(), UserID: studentID, ShopID: shopID}
	az := New()

	tests := []struct {
		name    string
		err     error
		allowed bool
	}{
		{name: "student creates orders", err: az.CanCreateOrder(student), allowed: true},
		{name: "staff cannot create orders", err: az.CanCreateOrder(staff), allowed: false},
		{name: "owner views own order", err: az.CanViewOrder(student, order), allowed: true},
		{name: "other student cannot view", err: az.CanViewOrder(Actor{UserID: uuid.New(), Role: enums.UserRoleStudent}, order), allowed: false},
		{name: "shop staff views shop order", err: az.CanViewOrder(staff, order), allowed: true},
		{name: "staff of other shop cannot manage", err: az.CanManageOrder(otherStaff, order), allowed: false},
		{name: "shop staff manages shop order", err: az.CanManageOrder(staff, order), allowed: true},
		{name: "admin manages any order", err: az.CanManageOrder(admin, order), allowed: true},
		{name: "owner cannot manage transitions", err: az.CanManageOrder(student, order), allowed: false},
		{name: "staff verifies pickup", err: az.CanVerifyPickup(staff), allowed: true},
		{name: "student cannot verify pickup", err: az.CanVerifyPickup(student), allowed: false},
		{name: "self views wallet", err: az.CanViewWallet(student, studentID), allowed: true},
		{name: "staff cannot view student wallet", err: az.CanViewWallet(staff, studentID), allowed: false},
		{name: "admin manages payments", err: az.CanManagePayments(admin), allowed: true},
		{name: "staff cannot manage payments", err: az.CanManagePayments(staff), allowed: false},
		{name: "staff views own shop analytics", err: az.CanViewShopAnalytics(staff, shopID), allowed: true},
		{name: "staff cannot view other shop analytics", err: az.CanViewShopAnalytics(staff, otherShopID), allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.allowed {
				assert.NoError(t, tt.err)
			} else {
				assert.True(t, apperrors.HasCode(tt.err, apperrors.CodeForbidden))
			}
		})
	}
}
