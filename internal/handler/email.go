// Package handler contains HTTP handlers for the SmartMail API.
//
// This file implements email generation and the Pro saved-email library.
//
// Routes handled:
//   - POST   /api/generate-email -> Generate
//   - GET    /api/emails         -> List
//   - POST   /api/emails         -> Save
//   - GET    /api/emails/{id}    -> Show
//   - DELETE /api/emails/{id}    -> Delete
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/service"
)

// GenerationsRemainingHeader reports the free generations left today.
// Pro callers get "unlimited".
const GenerationsRemainingHeader = "X-Generations-Remaining"

// EmailHandler handles email generation and saved-email HTTP requests.
type EmailHandler struct {
	emails     service.EmailService
	dailyLimit int
	logger     *slog.Logger
}

// NewEmailHandler creates a new EmailHandler.
func NewEmailHandler(emails service.EmailService, dailyLimit int, logger *slog.Logger) *EmailHandler {
	if dailyLimit <= 0 {
		dailyLimit = domain.DefaultFreeDailyLimit
	}
	return &EmailHandler{
		emails:     emails,
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// RegisterRoutes registers email routes on the provided mux.
// limit wraps the generation route only.
func (h *EmailHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requirePro, limit func(http.Handler) http.Handler) {
	mux.Handle("POST /api/generate-email", requireUser(limit(http.HandlerFunc(h.Generate))))
	mux.Handle("GET /api/emails", requirePro(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/emails", requirePro(http.HandlerFunc(h.Save)))
	mux.Handle("GET /api/emails/{id}", requirePro(http.HandlerFunc(h.Show)))
	mux.Handle("DELETE /api/emails/{id}", requirePro(http.HandlerFunc(h.Delete)))
}

// Generate produces an email from a brief.
func (h *EmailHandler) Generate(w http.ResponseWriter, r *http.Request) {
	const op = "handler.email.generate"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var req domain.GenerateRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	generated, err := h.emails.Generate(r.Context(), profile, req)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	usage := domain.UsageFor(profile, h.dailyLimit)
	if usage.IsUnlimited {
		w.Header().Set(GenerationsRemainingHeader, "unlimited")
	} else {
		w.Header().Set(GenerationsRemainingHeader, strconv.Itoa(usage.Remaining))
	}

	writeJSON(w, http.StatusOK, generated)
}

// List returns the caller's saved emails, newest first.
func (h *EmailHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.email.list"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultEmailPageSize, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	offset, err := queryInt(r, "offset", 0, op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	page, err := h.emails.List(r.Context(), profile, limit, offset)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	if page.Emails == nil {
		page.Emails = []domain.SavedEmail{}
	}

	writeJSON(w, http.StatusOK, page)
}

// Save stores a generated email.
func (h *EmailHandler) Save(w http.ResponseWriter, r *http.Request) {
	const op = "handler.email.save"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	var params domain.SaveEmailParams
	if err := decodeJSON(w, r, op, &params); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	saved, err := h.emails.Save(r.Context(), profile, params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.Header().Set("Location", "/api/emails/"+saved.ID.String())
	writeJSON(w, http.StatusCreated, saved)
}

// Show returns one saved email.
func (h *EmailHandler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handler.email.show"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	saved, err := h.emails.Get(r.Context(), profile, id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, saved)
}

// Delete removes one saved email.
func (h *EmailHandler) Delete(w http.ResponseWriter, r *http.Request) {
	const op = "handler.email.delete"

	profile := auth.GetProfile(r.Context())
	if profile == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}

	id, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	if err := h.emails.Delete(r.Context(), profile, id); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
