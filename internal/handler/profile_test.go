package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Profile
// =============================================================================

func TestProfileHandler_Show(t *testing.T) {
	mux := http.NewServeMux()
	NewProfileHandler(&mockProfileService{}, testLogger()).RegisterRoutes(mux, passthrough)

	t.Run("free", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/profile", nil, freeProfile(2)))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[profileResponse](t, rec)
		assert.Equal(t, testUserID, body.Profile.ID)
		assert.Equal(t, "Asha Rao", body.Profile.DisplayName)
		assert.Equal(t, domain.TierFree, body.Profile.Tier)
		assert.Equal(t, domain.QuotaUsage{Used: 2, Limit: 3, Remaining: 1}, body.Usage)
	})

	t.Run("pro", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/profile", nil, proProfile()))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody[profileResponse](t, rec)
		assert.True(t, body.Profile.IsPro)
		assert.NotNil(t, body.Profile.ProUpgradedAt)
		assert.True(t, body.Usage.IsUnlimited)
	})

	t.Run("anonymous", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/profile", nil, nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

// =============================================================================
// Subscription
// =============================================================================

func TestSubscriptionHandler_Show(t *testing.T) {
	start := testNow
	end := testNow.Add(domain.SubscriptionWindow)

	var gotID uuid.UUID
	svc := &mockSubscriptionService{
		StatusFunc: func(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error) {
			gotID = userID
			return &domain.SubscriptionStatus{
				Subscribed:        true,
				SubscriptionTier:  domain.TierPro,
				SubscriptionStart: &start,
				SubscriptionEnd:   &end,
			}, nil
		},
	}

	mux := http.NewServeMux()
	NewSubscriptionHandler(svc, testLogger()).RegisterRoutes(mux, passthrough)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/subscription", nil, proProfile()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testUserID, gotID)
	assert.JSONEq(t, `{
		"subscribed": true,
		"subscription_tier": "Pro",
		"subscription_start": "2026-03-14T09:30:00Z",
		"subscription_end": "2026-04-13T09:30:00Z"
	}`, rec.Body.String())
}

func TestSubscriptionHandler_Free(t *testing.T) {
	svc := &mockSubscriptionService{
		StatusFunc: func(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error) {
			return &domain.SubscriptionStatus{Subscribed: false}, nil
		},
	}

	mux := http.NewServeMux()
	NewSubscriptionHandler(svc, testLogger()).RegisterRoutes(mux, passthrough)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/subscription", nil, freeProfile(0)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"subscribed": false}`, rec.Body.String())
}

// =============================================================================
// Health
// =============================================================================

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name       string
		ping       error
		wantStatus int
		wantBody   string
	}{
		{"healthy", nil, http.StatusOK, `{"status":"ok","database":"ok"}`},
		{"database down", errors.New("connection refused"), http.StatusServiceUnavailable, `{"status":"unavailable","database":"unreachable"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := http.NewServeMux()
			NewHealthHandler(pingFunc(func(context.Context) error { return tt.ping }), testLogger()).RegisterRoutes(mux)

			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}
