package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	pkgAuth "github.com/nikhilmenon/campusbite-backend/pkg/auth"
	"github.com/nikhilmenon/campusbite-backend/pkg/config"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

var testJWTConfig = config.JWTConfig{
	Secret:            "test-secret",
	Issuer:            "campusbite-test",
	ExpirationMinutes: 15,
}

func TestAuth(t *testing.T) {
	shopID := uuid.New()
	userID := uuid.New()

	token, err := pkgAuth.MintAccessToken(testJWTConfig, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: userID,
		Role:   enums.UserRoleShopStaff,
		ShopID: &shopID,
	})
	require.NoError(t, err)

	var seen authz.Actor
	var seenOK bool
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, seenOK = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})
	handler := Auth(testJWTConfig, nil)(next)

	t.Run("valid bearer token seeds actor", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		require.True(t, seenOK)
		assert.Equal(t, userID, seen.UserID)
		assert.Equal(t, enums.UserRoleShopStaff, seen.Role)
		require.NotNil(t, seen.ShopID)
		assert.Equal(t, shopID, *seen.ShopID)
	})

	t.Run("missing header rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		forged, err := pkgAuth.MintAccessToken(config.JWTConfig{
			Secret:            "other-secret",
			Issuer:            testJWTConfig.Issuer,
			ExpirationMinutes: 15,
		}, time.Now(), pkgAuth.AccessTokenPayload{UserID: userID, Role: enums.UserRoleStudent})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+forged)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := RequireRole(nil, enums.UserRoleAdmin)(next)

	t.Run("admin passes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("student refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithActor(req.Context(), authz.Actor{UserID: uuid.New(), Role: enums.UserRoleStudent}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unauthenticated refused", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
