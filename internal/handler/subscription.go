package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/service"
)

// SubscriptionHandler reports the caller's Pro subscription window.
type SubscriptionHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptions service.SubscriptionService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers subscription routes on the provided mux.
func (h *SubscriptionHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/subscription", requireUser(http.HandlerFunc(h.Show)))
}

// Show returns the subscription status.
func (h *SubscriptionHandler) Show(w http.ResponseWriter, r *http.Request) {
	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	status, err := h.subscriptions.Status(r.Context(), profile.UserID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
