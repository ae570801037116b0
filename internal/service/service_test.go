package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DukeRupert/smartmail/internal/billing"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/email"
	"github.com/DukeRupert/smartmail/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Shared fixtures
// =============================================================================

var (
	testUserID  = uuid.MustParse("6f1c2a3b-4d5e-4f60-8a7b-9c0d1e2f3a4b")
	otherUserID = uuid.MustParse("0b6d7e8f-1a2b-4c3d-9e4f-5a6b7c8d9e0f")
	testNow     = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *repository.Queries) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, repository.New(mock)
}

var profileCols = []string{
	"user_id", "email", "display_name", "is_pro", "daily_generations_count",
	"daily_generations_reset_date", "pro_upgraded_at", "created_at", "updated_at",
}

func profileRows(userID uuid.UUID, isPro bool, count int32) *pgxmock.Rows {
	upgraded := pgtype.Timestamptz{}
	if isPro {
		upgraded = pgtype.Timestamptz{Time: testNow, Valid: true}
	}
	return pgxmock.NewRows(profileCols).
		AddRow(userID, "ada@example.com", "Ada", isPro, count, pgtype.Date{Time: testNow, Valid: true}, upgraded, testNow, testNow)
}

var emailCols = []string{
	"id", "user_id", "type", "recipient_type", "business_type", "context", "tone", "subject", "body", "created_at",
}

var paymentCols = []string{
	"id", "user_id", "order_id", "payment_id", "plan", "amount", "currency", "status", "receipt_key", "created_at", "verified_at",
}

func paymentRows(userID uuid.UUID, orderID, paymentID, status, receiptKey string) *pgxmock.Rows {
	verifiedAt := pgtype.Timestamptz{}
	if status == string(domain.PaymentStatusVerified) {
		verifiedAt = pgtype.Timestamptz{Time: testNow, Valid: true}
	}
	return pgxmock.NewRows(paymentCols).
		AddRow(uuid.New(), userID, orderID, paymentID, "monthly", int64(3000), "INR", status, receiptKey, testNow, verifiedAt)
}

func freeProfile() *domain.Profile {
	return &domain.Profile{UserID: testUserID, Email: "ada@example.com", DisplayName: "Ada"}
}

func proProfile() *domain.Profile {
	p := freeProfile()
	p.IsPro = true
	return p
}

// =============================================================================
// Mocks
// =============================================================================

type mockGateway struct {
	KeyIDFunc         func() string
	CreateOrderFunc   func(ctx context.Context, params billing.OrderParams) (*billing.Order, error)
	VerifyPaymentFunc func(orderID, paymentID, signature string) error
}

func (m *mockGateway) KeyID() string {
	if m.KeyIDFunc != nil {
		return m.KeyIDFunc()
	}
	return "rzp_test_key"
}

func (m *mockGateway) CreateOrder(ctx context.Context, params billing.OrderParams) (*billing.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, params)
	}
	return &billing.Order{ID: "order_1", Amount: params.Amount, Currency: params.Currency, Status: "created"}, nil
}

func (m *mockGateway) VerifyPayment(orderID, paymentID, signature string) error {
	if m.VerifyPaymentFunc != nil {
		return m.VerifyPaymentFunc(orderID, paymentID, signature)
	}
	return nil
}

type mockMailer struct {
	SendPaymentReceiptEmailFunc func(ctx context.Context, to, name string, receipt email.Receipt) error
}

func (m *mockMailer) SendPaymentReceiptEmail(ctx context.Context, to, name string, receipt email.Receipt) error {
	if m.SendPaymentReceiptEmailFunc != nil {
		return m.SendPaymentReceiptEmailFunc(ctx, to, name, receipt)
	}
	return nil
}
