// Package billing provides Razorpay order creation and payment signature verification.
package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ProductName is attached to every order as a note.
const ProductName = "SmartMail AI Pro"

var (
	// ErrNotConfigured is returned when the key id or secret is missing.
	ErrNotConfigured = errors.New("razorpay credentials are not configured")

	// ErrSignatureMismatch is returned when a payment signature does not verify.
	ErrSignatureMismatch = errors.New("invalid payment signature")
)

// GatewayError is a non-2xx response from the Razorpay API.
type GatewayError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *GatewayError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("razorpay: %d %s: %s", e.StatusCode, e.Code, e.Description)
	}
	return fmt.Sprintf("razorpay: status %d", e.StatusCode)
}

// Rejected reports whether the gateway refused the request itself (4xx)
// rather than failing to process it.
func (e *GatewayError) Rejected() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// OrderParams describes an order to create. Amount is in minor units.
type OrderParams struct {
	Amount   int64
	Currency string
	UserID   string
	Plan     string
}

// Order is the gateway's view of a created order.
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Service defines the interface for payment gateway operations.
type Service interface {
	// KeyID returns the public key id the browser checkout needs.
	KeyID() string

	// CreateOrder creates an order for the hosted checkout.
	CreateOrder(ctx context.Context, params OrderParams) (*Order, error)

	// VerifyPayment checks the checkout callback signature.
	VerifyPayment(orderID, paymentID, signature string) error
}

// Config holds the Razorpay credentials.
type Config struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

type razorpayService struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
	now        func() time.Time
}

// NewRazorpayService creates a gateway client. Missing credentials are not an
// error here; every call fails with ErrNotConfigured instead.
func NewRazorpayService(cfg Config) Service {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.razorpay.com"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &razorpayService{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		now:        time.Now,
	}
}

func (s *razorpayService) configured() bool {
	return s.keyID != "" && s.keySecret != ""
}

func (s *razorpayService) KeyID() string {
	return s.keyID
}

type createOrderBody struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

type errorEnvelope struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

func (s *razorpayService) CreateOrder(ctx context.Context, params OrderParams) (*Order, error) {
	if !s.configured() {
		return nil, ErrNotConfigured
	}

	body, err := json.Marshal(createOrderBody{
		Amount:   params.Amount,
		Currency: params.Currency,
		Receipt:  fmt.Sprintf("receipt_%d", s.now().Unix()),
		Notes: map[string]string{
			"product": ProductName,
			"user_id": params.UserID,
			"plan":    params.Plan,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(s.keyID, s.keySecret)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("razorpay request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		gerr := &GatewayError{StatusCode: resp.StatusCode}
		var env errorEnvelope
		if json.Unmarshal(respBody, &env) == nil {
			gerr.Code = env.Error.Code
			gerr.Description = env.Error.Description
		}
		return nil, gerr
	}

	var order Order
	if err := json.Unmarshal(respBody, &order); err != nil {
		return nil, fmt.Errorf("decode order: %w", err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("razorpay returned an order without an id")
	}
	return &order, nil
}

func (s *razorpayService) VerifyPayment(orderID, paymentID, signature string) error {
	if !s.configured() {
		return ErrNotConfigured
	}
	return VerifySignature(s.keySecret, orderID, paymentID, signature)
}

// Sign returns hex(HMAC-SHA256(secret, orderID + "|" + paymentID)).
func Sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature compares signature against the expected HMAC in constant time.
func VerifySignature(secret, orderID, paymentID, signature string) error {
	expected := Sign(secret, orderID, paymentID)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
