// Package handler contains HTTP handlers for the SmartMail API.
//
// This file implements Pro checkout through the payment gateway.
//
// Routes handled:
//   - GET  /api/plans                       -> Plans
//   - POST /api/payments/orders             -> CreateOrder
//   - POST /api/payments/verify             -> Verify
//   - GET  /api/payments                    -> History
//   - GET  /api/payments/{orderId}/receipt  -> Receipt
package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/service"
)

// PaymentHandler handles checkout and billing HTTP requests.
type PaymentHandler struct {
	payments service.PaymentService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(payments service.PaymentService, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// RegisterRoutes registers payment routes on the provided mux.
// limit wraps order creation and verification.
func (h *PaymentHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requirePro, limit func(http.Handler) http.Handler) {
	mux.Handle("GET /api/plans", requireUser(http.HandlerFunc(h.Plans)))
	mux.Handle("POST /api/payments/orders", requireUser(limit(http.HandlerFunc(h.CreateOrder))))
	mux.Handle("POST /api/payments/verify", requireUser(limit(http.HandlerFunc(h.Verify))))
	mux.Handle("GET /api/payments", requirePro(http.HandlerFunc(h.History)))
	mux.Handle("GET /api/payments/{orderId}/receipt", requirePro(http.HandlerFunc(h.Receipt)))
}

type plansResponse struct {
	Plans []domain.Plan `json:"plans"`
}

// Plans returns the purchasable Pro plans.
func (h *PaymentHandler) Plans(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, plansResponse{Plans: h.payments.Plans()})
}

// CreateOrder starts a checkout for a plan price.
func (h *PaymentHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.create_order"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req domain.CreateOrderRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	order, err := h.payments.CreateOrder(r.Context(), profile, req, ClientIP(r))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// Verify checks the checkout signature and upgrades the caller.
func (h *PaymentHandler) Verify(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.verify"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req domain.VerifyPaymentRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.payments.Verify(r.Context(), profile, req)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type paymentHistoryResponse struct {
	Payments []domain.Payment `json:"payments"`
}

// History returns the caller's payments, newest first.
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	const op = "handler.payment.history"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultPaymentPageSize, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	payments, err := h.payments.History(r.Context(), profile, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if payments == nil {
		payments = []domain.Payment{}
	}

	writeJSON(w, http.StatusOK, paymentHistoryResponse{Payments: payments})
}

// Receipt returns the plain-text receipt for a verified payment.
func (h *PaymentHandler) Receipt(w http.ResponseWriter, r *http.Request) {
	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	orderID := r.PathValue("orderId")
	receipt, err := h.payments.Receipt(r.Context(), profile, orderID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", service.ReceiptContentType)
	w.Header().Set("Content-Disposition", `inline; filename="receipt-`+orderID+`.txt"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(receipt))
}
