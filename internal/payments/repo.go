package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/pkg/db/models"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
)

// TargetSelector narrows the student audience of a payment request.
type TargetSelector struct {
	Type       enums.PaymentTargetType
	StudentIDs []uuid.UUID
	Department *string
	Year       *int
}

// Repository manages persistence for payment requests and submissions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	// ResolveTargets returns the currently-eligible students (active and
	// approved) matched by the selector.
	ResolveTargets(ctx context.Context, selector TargetSelector) ([]models.User, error)
	CreateRequest(ctx context.Context, request *models.PaymentRequest) error
	CreateSubmissions(ctx context.Context, submissions []models.PaymentSubmission) error
	GetRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error)
	GetSubmission(ctx context.Context, requestID, studentID uuid.UUID) (*models.PaymentSubmission, error)
	// MarkSubmissionPaid flips a submission to paid only while it is still
	// pending. Returns false when another writer settled it first.
	MarkSubmissionPaid(ctx context.Context, submissionID, transactionID uuid.UUID, paidAt time.Time) (bool, error)
	IncrementRequestCounters(ctx context.Context, requestID uuid.UUID, collectedCents int) error
	// CloseRequestGuarded moves a request out of active. Returns false when
	// the request was not active anymore.
	CloseRequestGuarded(ctx context.Context, requestID uuid.UUID, to enums.PaymentRequestStatus, closedAt time.Time) (bool, error)
	ListRequests(ctx context.Context, limit, offset int) ([]models.PaymentRequest, int64, error)
	ListSubmissions(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]models.PaymentSubmission, int64, error)
	ListSubmissionsForStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]models.PaymentSubmission, int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payments repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) ResolveTargets(ctx context.Context, selector TargetSelector) ([]models.User, error) {
	query := r.db.WithContext(ctx).
		Where("role = ?", enums.UserRoleStudent).
		Where("is_active = ?", true).
		Where("is_approved = ?", true)

	switch selector.Type {
	case enums.PaymentTargetAll:
	case enums.PaymentTargetStudents:
		query = query.Where("id IN ?", selector.StudentIDs)
	case enums.PaymentTargetDepartment:
		query = query.Where("department = ?", selector.Department)
	case enums.PaymentTargetYear:
		query = query.Where("year = ?", selector.Year)
	}

	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repository) CreateRequest(ctx context.Context, request *models.PaymentRequest) error {
	if request.ID == uuid.Nil {
		request.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *repository) CreateSubmissions(ctx context.Context, submissions []models.PaymentSubmission) error {
	for i := range submissions {
		if submissions[i].ID == uuid.Nil {
			submissions[i].ID = uuid.New()
		}
	}
	return r.db.WithContext(ctx).Create(&submissions).Error
}

func (r *repository) GetRequest(ctx context.Context, requestID uuid.UUID) (*models.PaymentRequest, error) {
	var request models.PaymentRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", requestID).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) GetSubmission(ctx context.Context, requestID, studentID uuid.UUID) (*models.PaymentSubmission, error) {
	var submission models.PaymentSubmission
	if err := r.db.WithContext(ctx).
		First(&submission, "request_id = ? AND student_id = ?", requestID, studentID).Error; err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *repository) MarkSubmissionPaid(ctx context.Context, submissionID, transactionID uuid.UUID, paidAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentSubmission{}).
		Where("id = ? AND status = ?", submissionID, enums.PaymentStatusPending).
		Updates(map[string]any{
			"status":         enums.PaymentStatusPaid,
			"transaction_id": transactionID,
			"paid_at":        paidAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) IncrementRequestCounters(ctx context.Context, requestID uuid.UUID, collectedCents int) error {
	return r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ?", requestID).
		Updates(map[string]any{
			"paid_count":            gorm.Expr("paid_count + 1"),
			"total_collected_cents": gorm.Expr("total_collected_cents + ?", collectedCents),
		}).Error
}

func (r *repository) CloseRequestGuarded(ctx context.Context, requestID uuid.UUID, to enums.PaymentRequestStatus, closedAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.PaymentRequest{}).
		Where("id = ? AND status = ?", requestID, enums.PaymentRequestStatusActive).
		Updates(map[string]any{
			"status":    to,
			"closed_at": closedAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListRequests(ctx context.Context, limit, offset int) ([]models.PaymentRequest, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.PaymentRequest{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PaymentRequest
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListSubmissions(ctx context.Context, requestID uuid.UUID, limit, offset int) ([]models.PaymentSubmission, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentSubmission{}).
		Where("request_id = ?", requestID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PaymentSubmission
	if err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) ListSubmissionsForStudent(ctx context.Context, studentID uuid.UUID, limit, offset int) ([]models.PaymentSubmission, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentSubmission{}).
		Where("student_id = ?", studentID).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.PaymentSubmission
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
