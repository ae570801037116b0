// Package domain contains core business types and interfaces.
//
// This file defines plans, payment orders, and verification records.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanInterval identifies the billing interval of a Pro plan.
type PlanInterval string

const (
	PlanMonthly PlanInterval = "monthly"
	PlanYearly  PlanInterval = "yearly"
)

// Plan is a purchasable Pro plan. Amount is in major currency units.
type Plan struct {
	Interval PlanInterval `json:"plan"`
	Amount   int64        `json:"amount"`
	Currency string       `json:"currency"`
}

// MinorUnits returns the amount in the gateway's minor units (paise for INR).
func (p Plan) MinorUnits() int64 {
	return p.Amount * 100
}

// PaymentStatus represents the lifecycle of a recorded payment.
type PaymentStatus string

const (
	PaymentStatusCreated  PaymentStatus = "created"
	PaymentStatusVerified PaymentStatus = "verified"
	PaymentStatusFailed   PaymentStatus = "failed"
)

// CreateOrderRequest is the caller's request to start a checkout.
type CreateOrderRequest struct {
	Amount   int64        `json:"amount"`
	Currency string       `json:"currency"`
	Plan     PlanInterval `json:"plan,omitempty"`
}

// Order is returned to the browser to open the hosted checkout.
type Order struct {
	OrderID  string `json:"orderId"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	KeyID    string `json:"keyId"`
}

// VerifyPaymentRequest carries the gateway callback fields.
type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

// VerifyPaymentResult is returned after a successful verification.
type VerifyPaymentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Payment is a recorded order and its verification outcome.
type Payment struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"-"`
	OrderID    string        `json:"order_id"`
	PaymentID  string        `json:"transaction_id,omitempty"`
	Plan       PlanInterval  `json:"plan"`
	Amount     int64         `json:"amount"`
	Currency   string        `json:"currency"`
	Status     PaymentStatus `json:"status"`
	ReceiptKey string        `json:"-"`
	CreatedAt  time.Time     `json:"created_at"`
	VerifiedAt *time.Time    `json:"verified_at,omitempty"`
}
