package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEmailMux(svc *mockEmailService) *http.ServeMux {
	mux := http.NewServeMux()
	NewEmailHandler(svc, 3, testLogger()).RegisterRoutes(mux, passthrough, passthrough, passthrough)
	return mux
}

var validBrief = map[string]any{
	"type":          "follow_up",
	"recipientType": "Existing client",
	"businessType":  "Design studio",
	"context":       "Following up on the proposal we sent last Tuesday.",
	"tone":          "friendly",
}

// =============================================================================
// Generate
// =============================================================================

func TestEmailHandler_Generate_FreeUser(t *testing.T) {
	var got domain.GenerateRequest
	svc := &mockEmailService{
		GenerateFunc: func(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error) {
			got = req
			profile.DailyGenerationsCount++
			return &domain.GeneratedEmail{Subject: "Following up", Body: "Hi there", Source: domain.SourceAI}, nil
		},
	}

	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/generate-email", validBrief, freeProfile(1)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.CategoryFollowUp, got.Type)
	assert.Equal(t, domain.ToneFriendly, got.Tone)
	assert.Equal(t, "1", rec.Header().Get(GenerationsRemainingHeader))

	body := decodeBody[domain.GeneratedEmail](t, rec)
	assert.Equal(t, "Following up", body.Subject)
	assert.Equal(t, domain.SourceAI, body.Source)
}

func TestEmailHandler_Generate_ProUnlimited(t *testing.T) {
	svc := &mockEmailService{
		GenerateFunc: func(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error) {
			return &domain.GeneratedEmail{Subject: "s", Body: "b", Source: domain.SourceFallback}, nil
		},
	}

	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/generate-email", validBrief, proProfile()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unlimited", rec.Header().Get(GenerationsRemainingHeader))
	assert.Equal(t, domain.SourceFallback, decodeBody[domain.GeneratedEmail](t, rec).Source)
}

func TestEmailHandler_Generate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		profile    *domain.Profile
		svcErr     error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "anonymous",
			body:       validBrief,
			wantStatus: http.StatusUnauthorized,
			wantCode:   domain.EUNAUTHORIZED,
		},
		{
			name:       "malformed json",
			body:       `{"type":`,
			profile:    freeProfile(0),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "empty body",
			body:       "",
			profile:    freeProfile(0),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "quota exhausted",
			body:       validBrief,
			profile:    freeProfile(3),
			svcErr:     domain.QuotaExceeded("email.generate", 3),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   domain.EQUOTA,
		},
		{
			name:       "validation",
			body:       validBrief,
			profile:    freeProfile(0),
			svcErr:     domain.NewValidationError("email.generate", "tone", "must be one of formal, friendly, persuasive"),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.EINVALID,
		},
		{
			name:       "pro extras on free",
			body:       validBrief,
			profile:    freeProfile(0),
			svcErr:     domain.ProRequired("email.generate"),
			wantStatus: http.StatusForbidden,
			wantCode:   domain.EFORBIDDEN,
		},
		{
			name:       "provider not configured",
			body:       validBrief,
			profile:    freeProfile(0),
			svcErr:     domain.Config(nil, "email.generate", "Email generation is unavailable: the text generation service is not configured."),
			wantStatus: http.StatusInternalServerError,
			wantCode:   domain.ECONFIG,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockEmailService{
				GenerateFunc: func(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error) {
					return nil, tt.svcErr
				},
			}

			rec := httptest.NewRecorder()
			newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/generate-email", tt.body, tt.profile))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decodeBody[JSONError](t, rec).Error.Code)
			assert.Empty(t, rec.Header().Get(GenerationsRemainingHeader))
		})
	}
}

func TestEmailHandler_Generate_BodyTooLarge(t *testing.T) {
	svc := &mockEmailService{}
	huge := `{"context":"` + strings.Repeat("a", maxBodyBytes+1) + `"}`

	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/generate-email", huge, freeProfile(0)))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "too large")
}

// =============================================================================
// Saved Emails
// =============================================================================

func TestEmailHandler_Save(t *testing.T) {
	id := uuid.New()
	svc := &mockEmailService{
		SaveFunc: func(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error) {
			return &domain.SavedEmail{
				ID:      id,
				UserID:  profile.UserID,
				Type:    params.Type,
				Tone:    params.Tone,
				Subject: params.Subject,
				Body:    params.Body,
			}, nil
		},
	}

	body := map[string]any{
		"type":    "apology",
		"tone":    "formal",
		"subject": "Our apologies",
		"body":    "We are sorry for the delay.",
	}

	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/emails", body, proProfile()))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "/api/emails/"+id.String(), rec.Header().Get("Location"))
	saved := decodeBody[map[string]any](t, rec)
	assert.Equal(t, id.String(), saved["id"])
	assert.Equal(t, "Our apologies", saved["subject"])
	assert.NotContains(t, saved, "UserID")
}

func TestEmailHandler_Save_FreeUserForbidden(t *testing.T) {
	svc := &mockEmailService{
		SaveFunc: func(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error) {
			return nil, domain.ProRequired("email.save")
		},
	}

	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodPost, "/api/emails", map[string]string{"subject": "x"}, freeProfile(0)))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestEmailHandler_List(t *testing.T) {
	var gotLimit, gotOffset int
	svc := &mockEmailService{
		ListFunc: func(ctx context.Context, profile *domain.Profile, limit, offset int) (*domain.EmailPage, error) {
			gotLimit, gotOffset = limit, offset
			return &domain.EmailPage{Limit: 100, Offset: 20}, nil
		},
	}

	t.Run("defaults and empty list", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails", nil, proProfile()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"emails":[]`)
		assert.Equal(t, 50, gotLimit)
		assert.Equal(t, 0, gotOffset)
	})

	t.Run("response echoes the paging the service applied", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails?limit=500&offset=20", nil, proProfile()))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 500, gotLimit)
		assert.Equal(t, 20, gotOffset)
		assert.JSONEq(t, `{"emails":[],"limit":100,"offset":20}`, rec.Body.String())
	})

	t.Run("bad limit", func(t *testing.T) {
		rec := httptest.NewRecorder()
		newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails?limit=-1", nil, proProfile()))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestEmailHandler_Show(t *testing.T) {
	id := uuid.New()
	svc := &mockEmailService{
		GetFunc: func(ctx context.Context, profile *domain.Profile, got uuid.UUID) (*domain.SavedEmail, error) {
			if got != id {
				return nil, domain.NotFound("email.get", "email", got.String())
			}
			return &domain.SavedEmail{ID: id, Subject: "Hello"}, nil
		},
	}
	mux := newEmailMux(svc)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails/"+id.String(), nil, proProfile()))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hello", decodeBody[domain.SavedEmail](t, rec).Subject)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails/"+uuid.NewString(), nil, proProfile()))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, withProfile(http.MethodGet, "/api/emails/not-a-uuid", nil, proProfile()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestEmailHandler_Delete(t *testing.T) {
	var deleted uuid.UUID
	svc := &mockEmailService{
		DeleteFunc: func(ctx context.Context, profile *domain.Profile, id uuid.UUID) error {
			deleted = id
			return nil
		},
	}

	id := uuid.New()
	rec := httptest.NewRecorder()
	newEmailMux(svc).ServeHTTP(rec, withProfile(http.MethodDelete, "/api/emails/"+id.String(), nil, proProfile()))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, id, deleted)
}
