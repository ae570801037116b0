// Package service contains the business logic layer.
//
// This file implements the payment service: Pro plan checkout through the
// gateway, server-side signature verification, and the receipt trail.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"strings"

	"github.com/DukeRupert/smartmail/internal/billing"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/email"
	"github.com/DukeRupert/smartmail/internal/metrics"
	"github.com/DukeRupert/smartmail/internal/repository"
	"github.com/DukeRupert/smartmail/internal/storage"
	"github.com/jackc/pgx/v5"
	"github.com/sqlc-dev/pqtype"
)

// Payment history bounds.
const (
	DefaultPaymentPageSize = 20
	MaxPaymentPageSize     = 100
)

// VerifiedMessage is returned to the browser after a successful upgrade.
const VerifiedMessage = "Payment verified and user upgraded to Pro"

// =============================================================================
// Interface Definition
// =============================================================================

// PaymentService defines checkout and verification operations.
type PaymentService interface {
	// Plans returns the purchasable Pro plans.
	Plans() []domain.Plan

	// CreateOrder creates a gateway order for a plan price.
	// Returns domain.EINVALID if the amount matches no plan, domain.ECONFIG
	// if the gateway has no credentials, and domain.EPAYMENT or
	// domain.EGATEWAY when the gateway call fails.
	CreateOrder(ctx context.Context, profile *domain.Profile, req domain.CreateOrderRequest, clientIP string) (*domain.Order, error)

	// Verify checks the checkout signature and upgrades the caller to Pro.
	// Returns domain.EUNAUTHORIZED if the signature does not match.
	Verify(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResult, error)

	// History returns the caller's recorded payments, newest first. Pro only.
	History(ctx context.Context, profile *domain.Profile, limit int) ([]domain.Payment, error)

	// Receipt returns the plain-text receipt for a verified payment. Pro only.
	Receipt(ctx context.Context, profile *domain.Profile, orderID string) (string, error)
}

// PaymentConfig holds plan pricing.
type PaymentConfig struct {
	MonthlyAmount int64 // Major units
	YearlyAmount  int64 // Major units
	Currency      string
}

// =============================================================================
// Implementation
// =============================================================================

type paymentService struct {
	queries *repository.Queries
	gateway billing.Service
	store   storage.Storage
	mailer  email.EmailService // nil when SMTP is not configured
	plans   []domain.Plan
	logger  *slog.Logger
}

// NewPaymentService creates a new PaymentService.
//
// Parameters:
// - queries: Repository queries for database access
// - gateway: Payment gateway client
// - store: Object storage for receipts
// - mailer: Receipt email sender, or nil to skip receipt emails
// - cfg: Plan pricing
// - logger: Structured logger for operation logging
func NewPaymentService(
	queries *repository.Queries,
	gateway billing.Service,
	store storage.Storage,
	mailer email.EmailService,
	cfg PaymentConfig,
	logger *slog.Logger,
) PaymentService {
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = "INR"
	}
	return &paymentService{
		queries: queries,
		gateway: gateway,
		store:   store,
		mailer:  mailer,
		plans: []domain.Plan{
			{Interval: domain.PlanMonthly, Amount: cfg.MonthlyAmount, Currency: currency},
			{Interval: domain.PlanYearly, Amount: cfg.YearlyAmount, Currency: currency},
		},
		logger: logger,
	}
}

func (s *paymentService) Plans() []domain.Plan {
	plans := make([]domain.Plan, len(s.plans))
	copy(plans, s.plans)
	return plans
}

// matchPlan finds the plan for a requested amount, currency and optional interval.
func (s *paymentService) matchPlan(req domain.CreateOrderRequest) (domain.Plan, bool) {
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	for _, p := range s.plans {
		if currency != "" && currency != p.Currency {
			continue
		}
		if req.Plan != "" && req.Plan != p.Interval {
			continue
		}
		if req.Amount == p.Amount {
			return p, true
		}
	}
	return domain.Plan{}, false
}

// =============================================================================
// Checkout
// =============================================================================

// CreateOrder creates a gateway order and records it.
func (s *paymentService) CreateOrder(ctx context.Context, profile *domain.Profile, req domain.CreateOrderRequest, clientIP string) (*domain.Order, error) {
	const op = "payment.create_order"

	if req.Amount <= 0 {
		return nil, domain.Invalid(op, "amount must be a positive number")
	}
	plan, ok := s.matchPlan(req)
	if !ok {
		return nil, domain.Invalid(op, "amount does not match any Pro plan")
	}

	order, err := s.gateway.CreateOrder(ctx, billing.OrderParams{
		Amount:   plan.MinorUnits(),
		Currency: plan.Currency,
		UserID:   profile.UserID.String(),
		Plan:     string(plan.Interval),
	})
	if err != nil {
		metrics.OrderCreated(string(plan.Interval), metrics.StatusFailed)
		s.logger.Error("Failed to create payment order",
			"user_id", profile.UserID,
			"plan", plan.Interval,
			"error", err,
		)
		return nil, gatewayError(op, err)
	}
	metrics.OrderCreated(string(plan.Interval), "created")

	// The audit row is best effort; verification does not depend on it.
	_, err = s.queries.CreatePayment(ctx, repository.CreatePaymentParams{
		UserID:   profile.UserID,
		OrderID:  order.ID,
		Plan:     string(plan.Interval),
		Amount:   order.Amount,
		Currency: order.Currency,
		ClientIP: inetFrom(clientIP),
	})
	if err != nil {
		s.logger.Error("Failed to record payment order",
			"user_id", profile.UserID,
			"order_id", order.ID,
			"error", err,
		)
	}

	s.logger.Info("Payment order created",
		"user_id", profile.UserID,
		"order_id", order.ID,
		"plan", plan.Interval,
		"amount", order.Amount,
	)

	return &domain.Order{
		OrderID:  order.ID,
		Amount:   plan.Amount,
		Currency: order.Currency,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

// gatewayError maps billing errors onto domain errors.
func gatewayError(op string, err error) error {
	if errors.Is(err, billing.ErrNotConfigured) {
		return domain.Config(err, op, "Payments are unavailable: the payment gateway is not configured.")
	}
	var ge *billing.GatewayError
	if errors.As(err, &ge) && ge.Rejected() {
		msg := ge.Description
		if msg == "" {
			msg = "The payment gateway rejected the request."
		}
		return domain.Wrap(err, domain.EPAYMENT, op, msg)
	}
	return domain.Gateway(err, op, "The payment gateway is unavailable. Please try again.")
}

// inetFrom converts a client address to an inet value, or NULL if it does not parse.
func inetFrom(addr string) pqtype.Inet {
	ip := net.ParseIP(strings.TrimSpace(addr))
	if ip == nil {
		return pqtype.Inet{}
	}
	bits := 128
	if v4 := ip.To4(); v4 != nil {
		ip, bits = v4, 32
	}
	return pqtype.Inet{IPNet: net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)}, Valid: true}
}

// =============================================================================
// Verification
// =============================================================================

// Verify checks the signature server-side and upgrades the caller.
func (s *paymentService) Verify(ctx context.Context, profile *domain.Profile, req domain.VerifyPaymentRequest) (*domain.VerifyPaymentResult, error) {
	const op = "payment.verify"

	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return nil, domain.Invalid(op, "razorpay_order_id, razorpay_payment_id and razorpay_signature are required")
	}

	var recorded *repository.Payment
	row, err := s.queries.GetPaymentByOrderID(ctx, req.OrderID)
	switch {
	case err == nil:
		recorded = &row
	case errors.Is(err, pgx.ErrNoRows):
		// Orders created before the audit trail existed are still honoured;
		// the signature is the only gate.
	default:
		return nil, domain.Internal(err, op, "failed to look up payment order")
	}

	if recorded != nil && recorded.UserID != profile.UserID {
		s.logger.Warn("Payment verification for another user's order",
			"user_id", profile.UserID,
			"order_id", req.OrderID,
		)
		return nil, domain.Forbidden(op, "This order belongs to another account.")
	}

	if err := s.gateway.VerifyPayment(req.OrderID, req.PaymentID, req.Signature); err != nil {
		if errors.Is(err, billing.ErrNotConfigured) {
			return nil, domain.Config(err, op, "Payments are unavailable: the payment gateway is not configured.")
		}
		if !errors.Is(err, billing.ErrSignatureMismatch) {
			metrics.PaymentVerified("error")
			return nil, domain.Internal(err, op, "failed to verify payment")
		}

		metrics.PaymentVerified("signature_mismatch")
		s.logger.Warn("Payment signature mismatch",
			"user_id", profile.UserID,
			"order_id", req.OrderID,
			"payment_id", req.PaymentID,
		)
		if recorded != nil {
			if err := s.queries.MarkPaymentFailed(ctx, repository.MarkPaymentFailedParams{
				OrderID:   req.OrderID,
				PaymentID: req.PaymentID,
			}); err != nil {
				s.logger.Error("Failed to mark payment failed", "order_id", req.OrderID, "error", err)
			}
		}
		return nil, domain.Unauthorized(op, "Invalid payment signature")
	}

	// A replayed callback must not move the subscription window.
	if recorded != nil && recorded.Status == string(domain.PaymentStatusVerified) && profile.IsPro {
		return &domain.VerifyPaymentResult{Success: true, Message: VerifiedMessage}, nil
	}

	upgraded, err := s.queries.SetProfilePro(ctx, profile.UserID)
	if err != nil {
		metrics.PaymentVerified("error")
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", profile.UserID.String())
		}
		return nil, domain.Internal(err, op, "failed to upgrade profile")
	}
	metrics.PaymentVerified("verified")

	s.logger.Info("Payment verified, profile upgraded to Pro",
		"user_id", profile.UserID,
		"order_id", req.OrderID,
		"payment_id", req.PaymentID,
	)

	if recorded != nil {
		verified, err := s.queries.MarkPaymentVerified(ctx, repository.MarkPaymentVerifiedParams{
			OrderID:   req.OrderID,
			PaymentID: req.PaymentID,
		})
		if err != nil {
			s.logger.Error("Failed to mark payment verified", "order_id", req.OrderID, "error", err)
		} else {
			s.deliverReceipt(ctx, toDomainProfile(upgraded), toDomainPayment(verified))
		}
	}

	return &domain.VerifyPaymentResult{Success: true, Message: VerifiedMessage}, nil
}

// deliverReceipt stores the receipt and emails it. Failures are logged only.
func (s *paymentService) deliverReceipt(ctx context.Context, profile *domain.Profile, payment *domain.Payment) {
	text := RenderReceipt(payment, profile)

	if s.store != nil {
		key := storage.ReceiptKey(profile.UserID, payment.OrderID)
		err := s.store.Put(ctx, key, strings.NewReader(text), storage.PutOptions{
			ContentType: ReceiptContentType,
			Overwrite:   true,
		})
		metrics.ReceiptDelivered("storage", err)
		if err != nil {
			s.logger.Error("Failed to store receipt", "order_id", payment.OrderID, "error", err)
		} else if err := s.queries.SetPaymentReceiptKey(ctx, repository.SetPaymentReceiptKeyParams{
			OrderID:    payment.OrderID,
			ReceiptKey: key,
		}); err != nil {
			s.logger.Error("Failed to record receipt key", "order_id", payment.OrderID, "error", err)
			if delErr := s.store.Delete(ctx, key); delErr != nil {
				s.logger.Warn("Failed to remove orphaned receipt", "key", key, "error", delErr)
			}
		}
	}

	if s.mailer != nil && profile.Email != "" {
		paidAt := payment.CreatedAt
		if payment.VerifiedAt != nil {
			paidAt = *payment.VerifiedAt
		}
		err := s.mailer.SendPaymentReceiptEmail(ctx, profile.Email, profile.DisplayName, email.Receipt{
			OrderID:       payment.OrderID,
			TransactionID: payment.PaymentID,
			Plan:          string(payment.Plan),
			Amount:        FormatAmount(payment.Amount, payment.Currency),
			PaidAt:        paidAt,
		})
		metrics.ReceiptDelivered("email", err)
		if err != nil {
			s.logger.Error("Failed to send receipt email", "order_id", payment.OrderID, "error", err)
		}
	}
}

// =============================================================================
// Billing History
// =============================================================================

// History returns recorded payments for the caller.
func (s *paymentService) History(ctx context.Context, profile *domain.Profile, limit int) ([]domain.Payment, error) {
	const op = "payment.history"

	if !profile.IsPro {
		return nil, domain.ProRequired(op)
	}
	if limit <= 0 {
		limit = DefaultPaymentPageSize
	}
	if limit > MaxPaymentPageSize {
		limit = MaxPaymentPageSize
	}

	rows, err := s.queries.ListPaymentsByUser(ctx, repository.ListPaymentsByUserParams{
		UserID: profile.UserID,
		Limit:  int32(limit),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list payments")
	}

	payments := make([]domain.Payment, len(rows))
	for i, row := range rows {
		payments[i] = *toDomainPayment(row)
	}
	return payments, nil
}

// Receipt returns the stored receipt, rendering it again if storage has none.
func (s *paymentService) Receipt(ctx context.Context, profile *domain.Profile, orderID string) (string, error) {
	const op = "payment.receipt"

	if !profile.IsPro {
		return "", domain.ProRequired(op)
	}

	row, err := s.queries.GetPaymentByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.NotFound(op, "payment", orderID)
		}
		return "", domain.Internal(err, op, "failed to get payment")
	}
	if row.UserID != profile.UserID {
		return "", domain.NotFound(op, "payment", orderID)
	}
	if row.Status != string(domain.PaymentStatusVerified) {
		return "", domain.Invalid(op, "A receipt is only available for verified payments.")
	}

	if row.ReceiptKey != "" && s.store != nil {
		text, err := s.readReceipt(ctx, row.ReceiptKey)
		if err == nil {
			return text, nil
		}
		if !storage.IsNotFound(err) {
			s.logger.Warn("Failed to read stored receipt, rendering", "key", row.ReceiptKey, "error", err)
		}
	}

	return RenderReceipt(toDomainPayment(row), profile), nil
}

func (s *paymentService) readReceipt(ctx context.Context, key string) (string, error) {
	rc, _, err := s.store.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, storage.DefaultMaxSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// toDomainPayment converts a repository.Payment to a domain.Payment.
func toDomainPayment(row repository.Payment) *domain.Payment {
	p := &domain.Payment{
		ID:         row.ID,
		UserID:     row.UserID,
		OrderID:    row.OrderID,
		PaymentID:  row.PaymentID,
		Plan:       domain.PlanInterval(row.Plan),
		Amount:     row.Amount,
		Currency:   row.Currency,
		Status:     domain.PaymentStatus(row.Status),
		ReceiptKey: row.ReceiptKey,
		CreatedAt:  row.CreatedAt,
	}
	if row.VerifiedAt.Valid {
		t := row.VerifiedAt.Time
		p.VerifiedAt = &t
	}
	return p
}
