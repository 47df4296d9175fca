package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/internal/wallet"
	"github.com/nikhilmenon/campusbite-backend/pkg/db"
	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/logger"
	"github.com/nikhilmenon/campusbite-backend/pkg/outbox"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
	"github.com/nikhilmenon/campusbite-backend/pkg/types"
)

// Service is the ad-hoc bulk payment dispatcher: it fans a request out into
// per-student obligations and settles each against the wallet ledger.
type Service interface {
	CreateRequest(ctx context.Context, input CreateRequestInput) (*models.PaymentRequest, error)
	Pay(ctx context.Context, input PayInput) (*models.PaymentSubmission, error)
	Close(ctx context.Context, input CloseInput) (*models.PaymentRequest, error)
	GetRequest(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*models.PaymentRequest, error)
	ListRequests(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.PaymentRequest, int64, error)
	ListSubmissions(ctx context.Context, actor authz.Actor, requestID uuid.UUID, page pagination.Page) ([]models.PaymentSubmission, int64, error)
	ListMySubmissions(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.PaymentSubmission, int64, error)
}

// CreateRequestInput describes an admin's bulk billing event.
type CreateRequestInput struct {
	Actor            authz.Actor
	Title            string
	Description      *string
	AmountCents      int
	TargetType       enums.PaymentTargetType
	TargetStudentIDs []uuid.UUID
	TargetDepartment *string
	TargetYear       *int
	DueDate          *time.Time
	ShowOnDashboard  bool
}

// PayInput settles the acting student's own obligation.
type PayInput struct {
	Actor     authz.Actor
	RequestID uuid.UUID
}

// CloseInput moves a request out of active.
type CloseInput struct {
	Actor     authz.Actor
	RequestID uuid.UUID
	To        enums.PaymentRequestStatus
}

type service struct {
	client *db.Client
	repo   Repository
	wallet wallet.Service
	events *outbox.Service
	authz  authz.Authorizer
	logg   *logger.Logger
}

// NewService wires a payments service with the provided dependencies.
func NewService(client *db.Client, repo Repository, walletSvc wallet.Service, events *outbox.Service, az authz.Authorizer, logg *logger.Logger) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("db client required")
	}
	if repo == nil {
		return nil, fmt.Errorf("payments repository required")
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
	return &service{client: client, repo: repo, wallet: walletSvc, events: events, authz: az, logg: logg}, nil
}

func (s *service) CreateRequest(ctx context.Context, input CreateRequestInput) (*models.PaymentRequest, error) {
	if err := s.authz.CanManagePayments(input.Actor); err != nil {
		return nil, err
	}
	if input.Title == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "title is required")
	}
	if input.AmountCents <= 0 {
		return nil, apperrors.New(apperrors.CodeValidation, "amount must be positive")
	}
	if !input.TargetType.IsValid() {
		return nil, apperrors.New(apperrors.CodeValidation, fmt.Sprintf("invalid target type %q", input.TargetType))
	}
	switch input.TargetType {
	case enums.PaymentTargetStudents:
		if len(input.TargetStudentIDs) == 0 {
			return nil, apperrors.New(apperrors.CodeValidation, "student list is required for a students target")
		}
	case enums.PaymentTargetDepartment:
		if input.TargetDepartment == nil || *input.TargetDepartment == "" {
			return nil, apperrors.New(apperrors.CodeValidation, "department is required for a department target")
		}
	case enums.PaymentTargetYear:
		if input.TargetYear == nil {
			return nil, apperrors.New(apperrors.CodeValidation, "year is required for a year target")
		}
	}

	var request *models.PaymentRequest
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		targets, err := repo.ResolveTargets(ctx, TargetSelector{
			Type:       input.TargetType,
			StudentIDs: input.TargetStudentIDs,
			Department: input.TargetDepartment,
			Year:       input.TargetYear,
		})
		if err != nil {
			return err
		}
		if input.TargetType == enums.PaymentTargetStudents {
			if missing := missingIDs(input.TargetStudentIDs, targets); len(missing) > 0 {
				return apperrors.New(apperrors.CodeValidation, "some students do not exist or are not eligible").
					WithDetails(map[string]any{"student_ids": missing})
			}
		}
		if len(targets) == 0 {
			return apperrors.New(apperrors.CodeNoEligibleTargets, "selector matched no eligible students")
		}

		request = &models.PaymentRequest{
			Title:            input.Title,
			Description:      input.Description,
			AmountCents:      input.AmountCents,
			TargetType:       input.TargetType,
			TargetStudentIDs: input.TargetStudentIDs,
			TargetDepartment: input.TargetDepartment,
			TargetYear:       input.TargetYear,
			Status:           enums.PaymentRequestStatusActive,
			TotalTargetCount: len(targets),
			CreatedBy:        input.Actor.UserID,
			DueDate:          input.DueDate,
			ShowOnDashboard:  input.ShowOnDashboard,
		}
		if err := repo.CreateRequest(ctx, request); err != nil {
			return err
		}

		submissions := make([]models.PaymentSubmission, 0, len(targets))
		for _, target := range targets {
			submissions = append(submissions, models.PaymentSubmission{
				RequestID:   request.ID,
				StudentID:   target.ID,
				Status:      enums.PaymentStatusPending,
				AmountCents: input.AmountCents,
			})
		}
		if err := repo.CreateSubmissions(ctx, submissions); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRequestCreated,
			AggregateType: enums.AggregatePaymentRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: outbox.PaymentEventData{
				RequestID:   request.ID,
				Title:       request.Title,
				AmountCents: request.AmountCents,
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{
			"request_id":   request.ID.String(),
			"target_type":  request.TargetType,
			"target_count": request.TotalTargetCount,
			"amount_cents": request.AmountCents,
		})
		s.logg.Info(logCtx, "payment request created")
	}
	return request, nil
}

func (s *service) Pay(ctx context.Context, input PayInput) (*models.PaymentSubmission, error) {
	if input.RequestID == uuid.Nil {
		return nil, apperrors.New(apperrors.CodeValidation, "request id is required")
	}

	var settled *models.PaymentSubmission
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.GetRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "payment request not found")
			}
			return err
		}
		if request.Status != enums.PaymentRequestStatusActive {
			return apperrors.New(apperrors.CodePrecondition, "payment request is no longer active")
		}

		submission, err := repo.GetSubmission(ctx, request.ID, input.Actor.UserID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotEligible, "no obligation for this student under the request")
			}
			return err
		}
		if submission.Status == enums.PaymentStatusPaid {
			return apperrors.New(apperrors.CodeAlreadyPaid, "obligation already settled")
		}

		entry, err := s.wallet.PostEntryTx(ctx, tx, wallet.PostEntryInput{
			UserID:      input.Actor.UserID,
			Type:        enums.LedgerEntryTypeDebit,
			AmountCents: submission.AmountCents,
			Description: fmt.Sprintf("payment for %s", request.Title),
			Source:      "payment_request",
			Metadata:    types.JSONMap{"request_id": request.ID.String()},
		})
		if err != nil {
			return err
		}

		now := time.Now()
		applied, err := repo.MarkSubmissionPaid(ctx, submission.ID, entry.ID, now)
		if err != nil {
			return err
		}
		if !applied {
			// A concurrent settle won; the ledger post above rolls back
			// with this transaction.
			return apperrors.New(apperrors.CodeAlreadyPaid, "obligation already settled")
		}
		if err := repo.IncrementRequestCounters(ctx, request.ID, submission.AmountCents); err != nil {
			return err
		}

		submission.Status = enums.PaymentStatusPaid
		submission.TransactionID = &entry.ID
		submission.PaidAt = &now
		settled = submission

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRequestSettled,
			AggregateType: enums.AggregatePaymentRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: outbox.PaymentEventData{
				RequestID:   request.ID,
				Title:       request.Title,
				AmountCents: submission.AmountCents,
				StudentID:   input.Actor.UserID,
				Status:      string(enums.PaymentStatusPaid),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *service) Close(ctx context.Context, input CloseInput) (*models.PaymentRequest, error) {
	if err := s.authz.CanManagePayments(input.Actor); err != nil {
		return nil, err
	}
	if input.To != enums.PaymentRequestStatusClosed && input.To != enums.PaymentRequestStatusCancelled {
		return nil, apperrors.New(apperrors.CodeValidation, "close target must be closed or cancelled")
	}

	var request *models.PaymentRequest
	err := db.WithTxRetry(ctx, s.client, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.GetRequest(ctx, input.RequestID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperrors.New(apperrors.CodeNotFound, "payment request not found")
			}
			return err
		}
		applied, err := repo.CloseRequestGuarded(ctx, input.RequestID, input.To, time.Now())
		if err != nil {
			return err
		}
		if !applied {
			return apperrors.New(apperrors.CodePrecondition, "only active requests can be closed")
		}
		request, err = repo.GetRequest(ctx, input.RequestID)
		if err != nil {
			return err
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRequestClosed,
			AggregateType: enums.AggregatePaymentRequest,
			AggregateID:   request.ID,
			Actor:         &outbox.ActorRef{UserID: input.Actor.UserID, Role: string(input.Actor.Role)},
			Data: outbox.PaymentEventData{
				RequestID:   request.ID,
				Title:       request.Title,
				AmountCents: request.AmountCents,
				Status:      string(request.Status),
			},
			Version: 1,
		})
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) GetRequest(ctx context.Context, actor authz.Actor, requestID uuid.UUID) (*models.PaymentRequest, error) {
	request, err := s.repo.GetRequest(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperrors.New(apperrors.CodeNotFound, "payment request not found")
		}
		return nil, err
	}
	return request, nil
}

func (s *service) ListRequests(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.PaymentRequest, int64, error) {
	return s.repo.ListRequests(ctx, page.Limit, page.Offset)
}

func (s *service) ListSubmissions(ctx context.Context, actor authz.Actor, requestID uuid.UUID, page pagination.Page) ([]models.PaymentSubmission, int64, error) {
	if err := s.authz.CanManagePayments(actor); err != nil {
		return nil, 0, err
	}
	return s.repo.ListSubmissions(ctx, requestID, page.Limit, page.Offset)
}

func (s *service) ListMySubmissions(ctx context.Context, actor authz.Actor, page pagination.Page) ([]models.PaymentSubmission, int64, error) {
	return s.repo.ListSubmissionsForStudent(ctx, actor.UserID, page.Limit, page.Offset)
}

func missingIDs(requested []uuid.UUID, resolved []models.User) []string {
	found := make(map[uuid.UUID]bool, len(resolved))
	for _, user := range resolved {
		found[user.ID] = true
	}
	var missing []string
	for _, id := range requested {
		if !found[id] {
			missing = append(missing, id.String())
		}
	}
	return missing
}
