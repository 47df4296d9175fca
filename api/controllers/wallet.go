package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/api/middleware"
	"github.com/nikhilmenon/campusbite-backend/api/responses"
	"github.com/nikhilmenon/campusbite-backend/api/validators"
	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/internal/wallet"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	pkgerrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
)

// WalletBalance returns the actor's cached balance.
func WalletBalance(svc wallet.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		balance, err := svc.Balance(r.Context(), actor.UserID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"balance_cents": balance})
	}
}

// WalletEntries pages the actor's own ledger across month partitions.
// Optional from/to query params bound the window; type narrows the
// listing to one entry kind.
func WalletEntries(svc wallet.Service, az authz.Authorizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		userID := actor.UserID
		if raw := r.URL.Query().Get("user_id"); raw != "" {
			parsed, err := parseQueryUUID(r, "user_id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			userID = parsed
		}
		if err := az.CanViewWallet(actor, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var entryType *enums.LedgerEntryType
		if raw := r.URL.Query().Get("type"); raw != "" {
			parsed, err := enums.ParseLedgerEntryType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entry type"))
				return
			}
			entryType = &parsed
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.FromRequest(r)
		entries, total, err := svc.ListEntries(r.Context(), wallet.EntriesQuery{
			UserID: userID,
			Type:   entryType,
			From:   from,
			To:     to,
			Page:   page,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"entries": entries,
			"meta":    pagination.MetaFor(page, total),
		})
	}
}

// WalletReconcile replays a user's ledger and reports drift against the
// cached balance. Admin-only via CanViewWallet on an arbitrary user.
func WalletReconcile(svc wallet.Service, az authz.Authorizer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		userID, err := parseIDParam(r, "userId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := az.CanViewWallet(actor, userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		from, err := validators.ParseQueryTime(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := validators.ParseQueryTime(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		report, err := svc.Reconcile(r.Context(), userID, from, to)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, report)
	}
}

func parseQueryUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"field": key})
	}
	return id, nil
}
