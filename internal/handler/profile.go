package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/service"
	"github.com/google/uuid"
)

// ProfileHandler serves the caller's profile and today's usage.
type ProfileHandler struct {
	profiles service.ProfileService
	logger   *slog.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(profiles service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   logger,
	}
}

// RegisterRoutes registers profile routes on the provided mux.
func (h *ProfileHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/profile", requireUser(http.HandlerFunc(h.Show)))
}

type profileBody struct {
	ID            uuid.UUID  `json:"id"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"display_name"`
	Tier          string     `json:"tier"`
	IsPro         bool       `json:"is_pro"`
	ProUpgradedAt *time.Time `json:"pro_upgraded_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

type profileResponse struct {
	Profile profileBody       `json:"profile"`
	Usage   domain.QuotaUsage `json:"usage"`
}

// Show returns the caller's profile. The middleware has already applied
// the daily reset, so the usage reflects today.
func (h *ProfileHandler) Show(w http.ResponseWriter, r *http.Request) {
	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Profile: profileBody{
			ID:            profile.UserID,
			Email:         profile.Email,
			DisplayName:   profile.Name(),
			Tier:          profile.Tier(),
			IsPro:         profile.IsPro,
			ProUpgradedAt: profile.ProUpgradedAt,
			CreatedAt:     profile.CreatedAt,
		},
		Usage: domain.UsageFor(profile, h.profiles.FreeDailyLimit()),
	})
}
