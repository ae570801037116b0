package billing

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "rzp_test_secret"

func mutate(s string, i int) string {
	b := []byte(s)
	if b[i] == 'a' {
		b[i] = 'b'
	} else {
		b[i] = 'a'
	}
	return string(b)
}

func TestVerifySignature_AcceptsCorrectSignature(t *testing.T) {
	sig := Sign(testSecret, "order_Abc123", "pay_Xyz789")
	assert.Len(t, sig, 64)
	assert.NoError(t, VerifySignature(testSecret, "order_Abc123", "pay_Xyz789", sig))
}

func TestVerifySignature_RejectsSingleCharacterMutations(t *testing.T) {
	orderID, paymentID := "order_Abc123", "pay_Xyz789"
	sig := Sign(testSecret, orderID, paymentID)

	for i := range orderID {
		err := VerifySignature(testSecret, mutate(orderID, i), paymentID, sig)
		assert.ErrorIs(t, err, ErrSignatureMismatch, "order id mutated at %d", i)
	}
	for i := range paymentID {
		err := VerifySignature(testSecret, orderID, mutate(paymentID, i), sig)
		assert.ErrorIs(t, err, ErrSignatureMismatch, "payment id mutated at %d", i)
	}
	for i := range sig {
		err := VerifySignature(testSecret, orderID, paymentID, mutate(sig, i))
		assert.ErrorIs(t, err, ErrSignatureMismatch, "signature mutated at %d", i)
	}
}

func TestVerifySignature_RejectsWrongSecretAndEmpty(t *testing.T) {
	sig := Sign("other_secret", "order_1", "pay_1")
	assert.ErrorIs(t, VerifySignature(testSecret, "order_1", "pay_1", sig), ErrSignatureMismatch)
	assert.ErrorIs(t, VerifySignature(testSecret, "order_1", "pay_1", ""), ErrSignatureMismatch)
}

func TestVerifyPayment_NotConfigured(t *testing.T) {
	svc := NewRazorpayService(Config{KeyID: "rzp_test_key"})
	assert.ErrorIs(t, svc.VerifyPayment("order_1", "pay_1", "sig"), ErrNotConfigured)
}

func TestCreateOrder(t *testing.T) {
	var got createOrderBody
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, testSecret, pass)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"order_N1","amount":3000,"currency":"INR","receipt":"receipt_1","status":"created"}`))
	}))
	defer server.Close()

	svc := NewRazorpayService(Config{KeyID: "rzp_test_key", KeySecret: testSecret, BaseURL: server.URL}).(*razorpayService)
	svc.now = func() time.Time { return time.Unix(1767225600, 0) }

	order, err := svc.CreateOrder(context.Background(), OrderParams{
		Amount:   3000,
		Currency: "INR",
		UserID:   "user-1",
		Plan:     "monthly",
	})
	require.NoError(t, err)
	assert.Equal(t, "order_N1", order.ID)
	assert.Equal(t, int64(3000), order.Amount)

	assert.Equal(t, int64(3000), got.Amount)
	assert.Equal(t, "INR", got.Currency)
	assert.Equal(t, "receipt_1767225600", got.Receipt)
	assert.Equal(t, map[string]string{"product": ProductName, "user_id": "user-1", "plan": "monthly"}, got.Notes)
}

func TestCreateOrder_GatewayErrors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantRejected bool
		wantDesc     string
	}{
		{
			name:         "bad request carries description",
			status:       http.StatusBadRequest,
			body:         `{"error":{"code":"BAD_REQUEST_ERROR","description":"The amount must be atleast INR 1.00"}}`,
			wantRejected: true,
			wantDesc:     "The amount must be atleast INR 1.00",
		},
		{
			name:         "auth failure",
			status:       http.StatusUnauthorized,
			body:         `{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`,
			wantRejected: true,
			wantDesc:     "Authentication failed",
		},
		{
			name:   "server error without body",
			status: http.StatusBadGateway,
			body:   `upstream unavailable`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			svc := NewRazorpayService(Config{KeyID: "k", KeySecret: "s", BaseURL: server.URL})
			_, err := svc.CreateOrder(context.Background(), OrderParams{Amount: 100, Currency: "INR"})

			var gerr *GatewayError
			require.True(t, errors.As(err, &gerr))
			assert.Equal(t, tt.status, gerr.StatusCode)
			assert.Equal(t, tt.wantRejected, gerr.Rejected())
			assert.Equal(t, tt.wantDesc, gerr.Description)
		})
	}
}

func TestCreateOrder_NotConfigured(t *testing.T) {
	svc := NewRazorpayService(Config{})
	_, err := svc.CreateOrder(context.Background(), OrderParams{Amount: 100, Currency: "INR"})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
