package controllers

import (
	"net/http"

	"github.com/nikhilmenon/campusbite-backend/api/middleware"
	"github.com/nikhilmenon/campusbite-backend/api/responses"
	"github.com/nikhilmenon/campusbite-backend/api/validators"
	"github.com/nikhilmenon/campusbite-backend/internal/analytics"
	pkgerrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
)

// ShopSummary returns the shop's order rollups for the requested window.
func ShopSummary(svc analytics.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		shopID, err := parseIDParam(r, "shopId")
		if err != nil {
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

		summary, err := svc.ShopSummary(r.Context(), analytics.SummaryInput{
			Actor:  actor,
			ShopID: shopID,
			From:   from,
			To:     to,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, summary)
	}
}
