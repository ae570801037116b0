package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/templates"
)

// TemplateHandler serves the built-in template library.
type TemplateHandler struct {
	catalog *templates.Catalog
	logger  *slog.Logger
}

// NewTemplateHandler creates a new TemplateHandler.
func NewTemplateHandler(catalog *templates.Catalog, logger *slog.Logger) *TemplateHandler {
	return &TemplateHandler{
		catalog: catalog,
		logger:  logger,
	}
}

// RegisterRoutes registers template routes on the provided mux.
func (h *TemplateHandler) RegisterRoutes(mux *http.ServeMux, requireUser func(http.Handler) http.Handler) {
	mux.Handle("GET /api/templates", requireUser(http.HandlerFunc(h.List)))
	mux.Handle("GET /api/templates/{id}", requireUser(http.HandlerFunc(h.Show)))
	mux.Handle("POST /api/templates/{id}/render", requireUser(http.HandlerFunc(h.Render)))
}

type templateListResponse struct {
	Templates []templates.Template `json:"templates"`
}

// List returns templates filtered by ?category=, ?popular= and ?q=.
func (h *TemplateHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "handler.template.list"

	q := r.URL.Query()
	var f templates.Filter

	if raw := q.Get("category"); raw != "" {
		c, ok := domain.ParseCategory(raw)
		if !ok {
			ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "category", "unknown category"))
			return
		}
		f.Category = c
	}
	if raw := q.Get("popular"); raw != "" {
		popular, err := strconv.ParseBool(raw)
		if err != nil {
			ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "popular", "must be true or false"))
			return
		}
		f.PopularOnly = popular
	}
	f.Search = q.Get("q")

	writeJSON(w, http.StatusOK, templateListResponse{Templates: h.catalog.List(f)})
}

// Show returns one template.
func (h *TemplateHandler) Show(w http.ResponseWriter, r *http.Request) {
	const op = "handler.template.show"

	id := r.PathValue("id")
	t, ok := h.catalog.Get(id)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "template", id))
		return
	}
	writeJSON(w, http.StatusOK, t)
}

type renderRequest struct {
	Variables map[string]string `json:"variables"`
}

// Render fills a template's placeholders with the supplied variables.
func (h *TemplateHandler) Render(w http.ResponseWriter, r *http.Request) {
	const op = "handler.template.render"

	id := r.PathValue("id")
	t, ok := h.catalog.Get(id)
	if !ok {
		ErrorResponse(w, r, h.logger, domain.NotFound(op, "template", id))
		return
	}

	var req renderRequest
	if err := decodeJSON(w, r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, t.Render(req.Variables))
}
