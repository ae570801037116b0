package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Mock Services
// =============================================================================

type mockEmailService struct {
	GenerateFunc func(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error)
	SaveFunc     func(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error)
	ListFunc     func(ctx context.Context, profile *domain.Profile, limit, offset int) (*domain.EmailPage, error)
	GetFunc      func(ctx context.Context, profile *domain.Profile, id uuid.UUID) (*domain.SavedEmail, error)
	DeleteFunc   func(ctx context.Context, profile *domain.Profile, id uuid.UUID) error
}

func (m *mockEmailService) Generate(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, profile, req)
	}
	return nil, errors.New("GenerateFunc not implemented")
}

func (m *mockEmailService) Save(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error) {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, profile, params)
	}
	return nil, errors.New("SaveFunc not implemented")
}

func (m *mockEmailService) List(ctx context.Context, profile *domain.Profile, limit, offset int) (*domain.EmailPage, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, profile, limit, offset)
	}
	return nil, errors.New("ListFunc not implemented")
}

func (m *mockEmailService) Get(ctx context.Context, profile *domain.Profile, id uuid.UUID) (*domain.SavedEmail, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, profile, id)
	}
	return nil, errors.New("GetFunc not implemented")
}

func (m *mockEmailService) Delete(ctx context.Context, profile *domain.Profile, id uuid.UUID) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, profile, id)
	}
	return errors.New("DeleteFunc not implemented")
}

type mockPaymentService struct {
	PlansFunc       func() []domain.Plan
	CreateOrderFunc func(ctx context.Context, profile *domain.Profile, req domain.CreateOrderRequest, clientIP string) (*domain.Order, error)
	VerifyFunc      func(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResult, error)
	HistoryFunc     func(ctx context.Context, profile *domain.Profile, limit int) ([]domain.Payment, error)
	ReceiptFunc     func(ctx context.Context, profile *domain.Profile, orderID string) (string, error)
}

func (m *mockPaymentService) Plans() []domain.Plan {
	if m.PlansFunc != nil {
		return m.PlansFunc()
	}
	return nil
}

func (m *mockPaymentService) CreateOrder(ctx context.Context, profile *domain.Profile, req domain.CreateOrderRequest, clientIP string) (*domain.Order, error) {
	if m.CreateOrderFunc != nil {
		return m.CreateOrderFunc(ctx, profile, req, clientIP)
	}
	return nil, errors.New("CreateOrderFunc not implemented")
}

func (m *mockPaymentService) Verify(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResult, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, profile, req)
	}
	return nil, errors.New("VerifyFunc not implemented")
}

func (m *mockPaymentService) History(ctx context.Context, profile *domain.Profile, limit int) ([]domain.Payment, error) {
	if m.HistoryFunc != nil {
		return m.HistoryFunc(ctx, profile, limit)
	}
	return nil, errors.New("HistoryFunc not implemented")
}

func (m *mockPaymentService) Receipt(ctx context.Context, profile *domain.Profile, orderID string) (string, error) {
	if m.ReceiptFunc != nil {
		return m.ReceiptFunc(ctx, profile, orderID)
	}
	return "", errors.New("ReceiptFunc not implemented")
}

type mockProfileService struct {
	EnsureFunc func(ctx context.Context, id domain.Identity) (*domain.Profile, error)
	GetFunc    func(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Limit      int
}

func (m *mockProfileService) Ensure(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	if m.EnsureFunc != nil {
		return m.EnsureFunc(ctx, id)
	}
	return nil, errors.New("EnsureFunc not implemented")
}

func (m *mockProfileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID)
	}
	return nil, errors.New("GetFunc not implemented")
}

func (m *mockProfileService) FreeDailyLimit() int {
	if m.Limit > 0 {
		return m.Limit
	}
	return domain.DefaultFreeDailyLimit
}

type mockSubscriptionService struct {
	StatusFunc func(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error)
}

func (m *mockSubscriptionService) Status(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error) {
	if m.StatusFunc != nil {
		return m.StatusFunc(ctx, userID)
	}
	return nil, errors.New("StatusFunc not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

var (
	testUserID = uuid.MustParse("6f1c2a4e-8d3b-4c5a-9e7f-0a1b2c3d4e5f")
	testNow    = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func freeProfile(count int) *domain.Profile {
	return &domain.Profile{
		UserID:                    testUserID,
		Email:                     "asha@example.com",
		DisplayName:               "Asha Rao",
		DailyGenerationsCount:     count,
		DailyGenerationsResetDate: testNow,
		CreatedAt:                 testNow.AddDate(0, -1, 0),
		UpdatedAt:                 testNow,
	}
}

func proProfile() *domain.Profile {
	p := freeProfile(0)
	p.IsPro = true
	upgraded := testNow.AddDate(0, 0, -2)
	p.ProUpgradedAt = &upgraded
	return p
}

// passthrough stands in for route middleware.
func passthrough(next http.Handler) http.Handler { return next }

// withProfile builds a request carrying profile in its context.
func withProfile(method, target string, body any, profile *domain.Profile) *http.Request {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		data, _ := json.Marshal(b)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rdr)
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if profile != nil {
		req = req.WithContext(auth.SetProfile(req.Context(), profile))
	}
	return req
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), "body: %s", rec.Body.String())
	return v
}
