package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nikhilmenon/campusbite-backend/internal/authz"
	"github.com/nikhilmenon/campusbite-backend/internal/wallet"
	"github.com/nikhilmenon/campusbite-backend/pkg/config"
	dbpkg "github.com/nikhilmenon/campusbite-backend/pkg/db"
	"github.com/nikhilmenon/campusbite-backend/pkg/enums"
	apperrors "github.com/nikhilmenon/campusbite-backend/pkg/errors"
	"github.com/nikhilmenon/campusbite-backend/pkg/outbox"
	"github.com/nikhilmenon/campusbite-backend/pkg/pagination"
)

type paymentsTestEnv struct {
	svc    Service
	wallet wallet.Service
	repo   Repository
	conn   *gorm.DB
	admin  authz.Actor
}

func sqliteLedgerDDL(table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  type TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  balance_before_cents INTEGER NOT NULL,
  balance_after_cents INTEGER NOT NULL,
  description TEXT NOT NULL,
  order_id TEXT,
  actor_id TEXT,
  source TEXT NOT NULL DEFAULT 'system',
  metadata TEXT,
  created_at DATETIME
)`, table)}
}

func setupPaymentsTest(t *testing.T) *paymentsTestEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  reg_number TEXT NOT NULL,
  email TEXT NOT NULL,
  first_name TEXT NOT NULL,
  last_name TEXT NOT NULL,
  role TEXT NOT NULL DEFAULT 'student',
  department TEXT,
  year INTEGER,
  shop_id TEXT,
  balance_cents INTEGER NOT NULL DEFAULT 0,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_approved INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS payment_requests (
  id TEXT PRIMARY KEY,
  title TEXT NOT NULL,
  description TEXT,
  amount_cents INTEGER NOT NULL,
  target_type TEXT NOT NULL,
  target_student_ids TEXT,
  target_department TEXT,
  target_year INTEGER,
  status TEXT NOT NULL DEFAULT 'active',
  total_target_count INTEGER NOT NULL DEFAULT 0,
  paid_count INTEGER NOT NULL DEFAULT 0,
  total_collected_cents INTEGER NOT NULL DEFAULT 0,
  created_by TEXT NOT NULL,
  due_date DATETIME,
  show_on_dashboard INTEGER NOT NULL DEFAULT 1,
  closed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
)`,
		`CREATE TABLE IF NOT EXISTS payment_submissions (
  id TEXT PRIMARY KEY,
  request_id TEXT NOT NULL,
  student_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  amount_cents INTEGER NOT NULL,
  transaction_id TEXT,
  paid_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (request_id, student_id)
)`,
		`CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`,
	}
	for _, stmt := range schema {
		require.NoError(t, conn.Exec(stmt).Error)
	}

	client := dbpkg.NewFromGorm(conn)
	walletRepo := wallet.NewRepository(conn, wallet.NewRegistry(sqliteLedgerDDL))
	walletSvc, err := wallet.NewService(client, walletRepo, config.WalletConfig{
		PartitionPrefix: "transactions",
		QueryMaxMonths:  24,
	}, nil)
	require.NoError(t, err)

	events := outbox.NewService(outbox.NewRepository(conn), nil)
	repo := NewRepository(conn)
	svc, err := NewService(client, repo, walletSvc, events, authz.New(), nil)
	require.NoError(t, err)

	admin := authz.Actor{UserID: uuid.New(), Role: enums.UserRoleAdmin}
	return &paymentsTestEnv{svc: svc, wallet: walletSvc, repo: repo, conn: conn, admin: admin}
}

func (e *paymentsTestEnv) seedStudent(t *testing.T, department string, year int, balanceCents int, approved bool) authz.Actor {
	t.Helper()
	id := uuid.New()
	err := e.conn.Exec(
		`INSERT INTO users (id, reg_number, email, first_name, last_name, role, department, year, balance_cents, is_active, is_approved, created_at, updated_at)
		 VALUES (?, ?, ?, 'Arun', 'Prasad', 'student', ?, ?, ?, 1, ?, ?, ?)`,
		id.String(), "REG-"+id.String()[:8], id.String()[:8]+"@campus.test", department, year, balanceCents, approved, time.Now(), time.Now(),
	).Error
	require.NoError(t, err)
	return authz.Actor{UserID: id, Role: enums.UserRoleStudent}
}

func (e *paymentsTestEnv) balance(t *testing.T, userID uuid.UUID) int {
	t.Helper()
	var balance int
	require.NoError(t, e.conn.Raw(`SELECT balance_cents FROM users WHERE id = ?`, userID.String()).Scan(&balance).Error)
	return balance
}

func TestCreateRequest_FansOutSubmissions(t *testing.T) {
	// Scenario: a year-2 request resolves the eligible students and seeds
	// one pending submission each, all in one transaction.
	env := setupPaymentsTest(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		env.seedStudent(t, "CSE", 2, 10000, true)
	}
	env.seedStudent(t, "CSE", 3, 10000, true)  // wrong year
	env.seedStudent(t, "CSE", 2, 10000, false) // not approved

	year := 2
	request, err := env.svc.CreateRequest(ctx, CreateRequestInput{
		Actor:       env.admin,
		Title:       "Lab fee",
		AmountCents: 5000,
		TargetType:  enums.PaymentTargetYear,
		TargetYear:  &year,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentRequestStatusActive, request.Status)
	assert.Equal(t, 3, request.TotalTargetCount)
	assert.Zero(t, request.PaidCount)
	assert.Zero(t, request.TotalCollectedCents)

	submissions, total, err := env.svc.ListSubmissions(ctx, env.admin, request.ID, pagination.Page{Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	for _, submission := range submissions {
		assert.Equal(t, enums.PaymentStatusPending, submission.Status)
		assert.Equal(t, 5000, submission.AmountCents)
	}
}

func TestCreateRequest_Failures(t *testing.T) {
	env := setupPaymentsTest(t)
	ctx := context.Background()
	student := env.seedStudent(t, "ME", 1, 0, true)

	t.Run("no eligible targets", func(t *testing.T) {
		year := 9
		_, err := env.svc.CreateRequest(ctx, CreateRequestInput{
			Actor: env.admin, Title: "Ghost fee", AmountCents: 100,
			TargetType: enums.PaymentTargetYear, TargetYear: &year,
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNoEligibleTargets))
	})

	t.Run("explicit list with unknown student", func(t *testing.T) {
		_, err := env.svc.CreateRequest(ctx, CreateRequestInput{
			Actor: env.admin, Title: "Club fee", AmountCents: 100,
			TargetType:       enums.PaymentTargetStudents,
			TargetStudentIDs: []uuid.UUID{student.UserID, uuid.New()},
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})

	t.Run("non-admin refused", func(t *testing.T) {
		_, err := env.svc.CreateRequest(ctx, CreateRequestInput{
			Actor: student, Title: "Fee", AmountCents: 100, TargetType: enums.PaymentTargetAll,
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
	})

	t.Run("zero amount", func(t *testing.T) {
		_, err := env.svc.CreateRequest(ctx, CreateRequestInput{
			Actor: env.admin, Title: "Fee", AmountCents: 0, TargetType: enums.PaymentTargetAll,
		})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	})
}

func TestPay_SettlesOnce(t *testing.T) {
	// Scenario: one student pays 50, counters move to 1/50; paying again
	// fails ALREADY_PAID without another debit.
	env := setupPaymentsTest(t)
	ctx := context.Background()
	student := env.seedStudent(t, "ECE", 2, 10000, true)

	request, err := env.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: env.admin, Title: "Exam fee", AmountCents: 5000, TargetType: enums.PaymentTargetAll,
	})
	require.NoError(t, err)

	settled, err := env.svc.Pay(ctx, PayInput{Actor: student, RequestID: request.ID})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusPaid, settled.Status)
	require.NotNil(t, settled.TransactionID)
	require.NotNil(t, settled.PaidAt)
	assert.Equal(t, 5000, env.balance(t, student.UserID))

	refreshed, err := env.svc.GetRequest(ctx, env.admin, request.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed.PaidCount)
	assert.Equal(t, 5000, refreshed.TotalCollectedCents)

	_, err = env.svc.Pay(ctx, PayInput{Actor: student, RequestID: request.ID})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeAlreadyPaid))
	assert.Equal(t, 5000, env.balance(t, student.UserID), "retry must not double-charge")

	entries, total, err := env.wallet.ListEntries(ctx, wallet.EntriesQuery{
		UserID: student.UserID,
		Page:   pagination.Page{Limit: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total, "exactly one debit for the obligation")
	assert.Equal(t, enums.LedgerEntryTypeDebit, entries[0].Type)
}

func TestPay_Failures(t *testing.T) {
	env := setupPaymentsTest(t)
	ctx := context.Background()
	student := env.seedStudent(t, "ECE", 2, 100, true)
	outsider := env.seedStudent(t, "ECE", 3, 10000, true)

	year := 2
	request, err := env.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: env.admin, Title: "Workshop fee", AmountCents: 5000,
		TargetType: enums.PaymentTargetYear, TargetYear: &year,
	})
	require.NoError(t, err)

	t.Run("unknown request", func(t *testing.T) {
		_, err := env.svc.Pay(ctx, PayInput{Actor: student, RequestID: uuid.New()})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
	})

	t.Run("student outside the target set", func(t *testing.T) {
		_, err := env.svc.Pay(ctx, PayInput{Actor: outsider, RequestID: request.ID})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeNotEligible))
	})

	t.Run("insufficient balance keeps submission pending", func(t *testing.T) {
		_, err := env.svc.Pay(ctx, PayInput{Actor: student, RequestID: request.ID})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodeInsufficientBalance))

		submission, err := env.repo.GetSubmission(ctx, request.ID, student.UserID)
		require.NoError(t, err)
		assert.Equal(t, enums.PaymentStatusPending, submission.Status)
		assert.Equal(t, 100, env.balance(t, student.UserID))
	})

	t.Run("closed request refuses payment", func(t *testing.T) {
		_, err := env.svc.Close(ctx, CloseInput{Actor: env.admin, RequestID: request.ID, To: enums.PaymentRequestStatusClosed})
		require.NoError(t, err)
		_, err = env.svc.Pay(ctx, PayInput{Actor: student, RequestID: request.ID})
		require.Error(t, err)
		assert.True(t, apperrors.HasCode(err, apperrors.CodePrecondition))
	})
}

func TestClose(t *testing.T) {
	env := setupPaymentsTest(t)
	ctx := context.Background()
	env.seedStudent(t, "CSE", 1, 0, true)

	request, err := env.svc.CreateRequest(ctx, CreateRequestInput{
		Actor: env.admin, Title: "Fee", AmountCents: 1000, TargetType: enums.PaymentTargetAll,
	})
	require.NoError(t, err)

	closed, err := env.svc.Close(ctx, CloseInput{Actor: env.admin, RequestID: request.ID, To: enums.PaymentRequestStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentRequestStatusCancelled, closed.Status)
	require.NotNil(t, closed.ClosedAt)

	_, err = env.svc.Close(ctx, CloseInput{Actor: env.admin, RequestID: request.ID, To: enums.PaymentRequestStatusClosed})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePrecondition), "closed requests cannot be closed again")

	_, err = env.svc.Close(ctx, CloseInput{Actor: env.admin, RequestID: request.ID, To: enums.PaymentRequestStatusActive})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation), "cannot reopen via close")
}
