package controllers

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/nikhilmenon/campusbite-backend/api/middleware"
	"github.com/nikhilmenon/campusbite-backend/api/responses"
	"github.com/nikhilmenon/campusbite-backend/api/validators"
	"github.com/nikhilmenon/campusbite-backend/internal/payments"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	pkgerrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
)

type createPaymentRequestPayload struct {
	Title            string      `json:"title" validate:"required,max=200"`
	Description      *string     `json:"description,omitempty"`
	AmountCents      int         `json:"amount_cents" validate:"required,gt=0"`
	TargetType       string      `json:"target_type" validate:"required,oneof=all students department year"`
	TargetStudentIDs []uuid.UUID `json:"target_student_ids,omitempty"`
	TargetDepartment *string     `json:"target_department,omitempty"`
	TargetYear       *int        `json:"target_year,omitempty"`
	DueDate          *time.Time  `json:"due_date,omitempty"`
	ShowOnDashboard  bool        `json:"show_on_dashboard"`
}

type closePaymentRequestPayload struct {
	Status string `json:"status" validate:"required,oneof=closed cancelled"`
}

// CreatePaymentRequest fans a bulk billing event out to its targets.
func CreatePaymentRequest(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var payload createPaymentRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.CreateRequest(r.Context(), payments.CreateRequestInput{
			Actor:            actor,
			Title:            payload.Title,
			Description:      payload.Description,
			AmountCents:      payload.AmountCents,
			TargetType:       enums.PaymentTargetType(payload.TargetType),
			TargetStudentIDs: payload.TargetStudentIDs,
			TargetDepartment: payload.TargetDepartment,
			TargetYear:       payload.TargetYear,
			DueDate:          payload.DueDate,
			ShowOnDashboard:  payload.ShowOnDashboard,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// PayPaymentRequest settles the acting student's own obligation.
func PayPaymentRequest(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		requestID, err := parseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		submission, err := svc.Pay(r.Context(), payments.PayInput{Actor: actor, RequestID: requestID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, submission)
	}
}

// ClosePaymentRequest moves a request to closed or cancelled.
func ClosePaymentRequest(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		requestID, err := parseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload closePaymentRequestPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.Close(r.Context(), payments.CloseInput{
			Actor:     actor,
			RequestID: requestID,
			To:        enums.PaymentRequestStatus(payload.Status),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// PaymentRequestDetail returns one payment request.
func PaymentRequestDetail(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		requestID, err := parseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetRequest(r.Context(), actor, requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, request)
	}
}

// ListPaymentRequests pages the billing events, newest first.
func ListPaymentRequests(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		page := pagination.FromRequest(r)
		requests, total, err := svc.ListRequests(r.Context(), actor, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"requests": requests,
			"meta":     pagination.MetaFor(page, total),
		})
	}
}

// ListPaymentSubmissions pages a request's submissions, admin-only.
func ListPaymentSubmissions(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		requestID, err := parseIDParam(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page := pagination.FromRequest(r)
		submissions, total, err := svc.ListSubmissions(r.Context(), actor, requestID, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"submissions": submissions,
			"meta":        pagination.MetaFor(page, total),
		})
	}
}

// MyPaymentSubmissions pages the acting student's own obligations.
func MyPaymentSubmissions(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := middleware.ActorFromContext(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		page := pagination.FromRequest(r)
		submissions, total, err := svc.ListMySubmissions(r.Context(), actor, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"submissions": submissions,
			"meta":        pagination.MetaFor(page, total),
		})
	}
}
