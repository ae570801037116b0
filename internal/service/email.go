// Package service contains the business logic layer.
//
// This file implements the email service: generation under the free-tier
// quota, and the Pro-only library of saved emails.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/DukeRupert/smartmail/internal/compose"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/metrics"
	"github.com/DukeRupert/smartmail/internal/repository"
	"github.com/DukeRupert/smartmail/internal/templates"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Pagination bounds for saved emails.
const (
	DefaultEmailPageSize = 50
	MaxEmailPageSize     = 100
)

// Composer turns a brief into an email. *compose.Composer implements it.
type Composer interface {
	Compose(ctx context.Context, req domain.GenerateRequest) compose.Result
}

// =============================================================================
// Interface Definition
// =============================================================================

// EmailService defines email generation and saved-email operations.
type EmailService interface {
	// Generate produces an email for the brief and counts it against the
	// caller's free-tier quota.
	// Returns domain.EINVALID for a bad brief, domain.EQUOTA when the free
	// limit is reached, domain.EFORBIDDEN when a free user sends Pro extras,
	// and domain.ECONFIG when no text provider is configured.
	Generate(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error)

	// Save stores a generated email. Pro only.
	Save(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error)

	// List returns saved emails, newest first. Pro only.
	// A non-positive limit means the default page size; larger limits are capped.
	List(ctx context.Context, profile *domain.Profile, limit, offset int) (*domain.EmailPage, error)

	// Get returns one saved email. Pro only.
	// Returns domain.ENOTFOUND if it does not exist or belongs to someone else.
	Get(ctx context.Context, profile *domain.Profile, id uuid.UUID) (*domain.SavedEmail, error)

	// Delete removes one saved email. Pro only.
	// Returns domain.ENOTFOUND if it does not exist or belongs to someone else.
	Delete(ctx context.Context, profile *domain.Profile, id uuid.UUID) error
}

// =============================================================================
// Implementation
// =============================================================================

type emailService struct {
	queries    *repository.Queries
	composer   Composer
	catalog    *templates.Catalog
	dailyLimit int
	logger     *slog.Logger
}

// NewEmailService creates a new EmailService.
//
// Parameters:
// - queries: Repository queries for database access
// - composer: Produces the email text, with template fallback
// - catalog: Template library used to enrich Pro briefs
// - dailyLimit: Free-tier generations per calendar day
// - logger: Structured logger for operation logging
func NewEmailService(
	queries *repository.Queries,
	composer Composer,
	catalog *templates.Catalog,
	dailyLimit int,
	logger *slog.Logger,
) EmailService {
	if dailyLimit <= 0 {
		dailyLimit = domain.DefaultFreeDailyLimit
	}
	return &emailService{
		queries:    queries,
		composer:   composer,
		catalog:    catalog,
		dailyLimit: dailyLimit,
		logger:     logger,
	}
}

// =============================================================================
// Generation
// =============================================================================

// Generate validates the brief, checks the quota, composes the email and
// then counts it.
func (s *emailService) Generate(ctx context.Context, profile *domain.Profile, req domain.GenerateRequest) (*domain.GeneratedEmail, error) {
	const op = "email.generate"

	if err := req.Validate(op); err != nil {
		return nil, err
	}

	if req.HasProExtras() && !profile.IsPro {
		return nil, domain.ProRequired(op)
	}

	if !profile.CanGenerate(s.dailyLimit) {
		metrics.QuotaRejections.Inc()
		s.logger.Info("Generation quota exceeded",
			"user_id", profile.UserID,
			"used", profile.DailyGenerationsCount,
			"limit", s.dailyLimit,
		)
		return nil, domain.QuotaExceeded(op, s.dailyLimit)
	}

	brief, err := s.enrich(op, req)
	if err != nil {
		return nil, err
	}

	res := s.composer.Compose(ctx, brief)
	if res.Kind == compose.KindError {
		s.logger.Error("Email generation is not configured",
			"user_id", profile.UserID,
			"error", res.Err,
		)
		return nil, domain.Config(res.Err, op, "Email generation is unavailable: the text generation service is not configured.")
	}

	// The counter is bumped only after an email exists, in one conditional
	// update, so concurrent requests cannot push a free profile past the limit.
	// Pro generations are not counted.
	if !profile.IsPro {
		count, err := s.queries.IncrementDailyGenerations(ctx, repository.IncrementDailyGenerationsParams{
			UserID: profile.UserID,
			Limit:  int32(s.dailyLimit),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				metrics.QuotaRejections.Inc()
				return nil, domain.QuotaExceeded(op, s.dailyLimit)
			}
			return nil, domain.Internal(err, op, "failed to record generation")
		}
		profile.DailyGenerationsCount = int(count)
	}

	source := domain.SourceAI
	if res.Kind == compose.KindFallback {
		source = domain.SourceFallback
		metrics.GenerationFellBack(res.Reason)
	}
	metrics.GenerationServed(string(source))

	s.logger.Info("Email generated",
		"user_id", profile.UserID,
		"type", req.Type,
		"tone", req.Tone,
		"source", source,
		"count", profile.DailyGenerationsCount,
	)

	return &domain.GeneratedEmail{
		Subject: res.Draft.Subject,
		Body:    res.Draft.Body,
		Source:  source,
	}, nil
}

// enrich folds Pro extras into the brief's context.
func (s *emailService) enrich(op string, req domain.GenerateRequest) (domain.GenerateRequest, error) {
	if !req.HasProExtras() {
		return req, nil
	}

	var b strings.Builder
	b.WriteString(req.Context)

	if req.TemplateID != "" {
		tpl, ok := s.catalog.Get(req.TemplateID)
		if !ok {
			return req, domain.NotFound(op, "template", req.TemplateID)
		}
		fmt.Fprintf(&b, "\n\nUse the %q template as a starting point.\nTemplate subject: %s\nTemplate body:\n%s",
			tpl.Title, tpl.Subject, tpl.Body)
	}

	var details []string
	for _, f := range req.Personalization {
		label, value := strings.TrimSpace(f.Label), strings.TrimSpace(f.Value)
		if label == "" || value == "" {
			continue
		}
		details = append(details, fmt.Sprintf("- %s: %s", label, value))
	}
	if len(details) > 0 {
		b.WriteString("\n\nPersonalization Details:\n")
		b.WriteString(strings.Join(details, "\n"))
	}

	req.Context = b.String()
	return req, nil
}

// =============================================================================
// Saved Emails
// =============================================================================

// Save stores a generated email for a Pro user.
func (s *emailService) Save(ctx context.Context, profile *domain.Profile, params domain.SaveEmailParams) (*domain.SavedEmail, error) {
	const op = "email.save"

	if !profile.IsPro {
		return nil, domain.ProRequired(op)
	}
	if err := params.Validate(op); err != nil {
		return nil, err
	}

	row, err := s.queries.CreateEmail(ctx, repository.CreateEmailParams{
		UserID:        profile.UserID,
		Type:          string(params.Type),
		RecipientType: params.RecipientType,
		BusinessType:  params.BusinessType,
		Context:       params.Context,
		Tone:          string(params.Tone),
		Subject:       params.Subject,
		Body:          params.Body,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save email")
	}

	metrics.EmailsSaved.Inc()
	s.logger.Info("Email saved", "user_id", profile.UserID, "email_id", row.ID)

	return toDomainSavedEmail(row), nil
}

// List returns a page of saved emails.
func (s *emailService) List(ctx context.Context, profile *domain.Profile, limit, offset int) (*domain.EmailPage, error) {
	const op = "email.list"

	if !profile.IsPro {
		return nil, domain.ProRequired(op)
	}

	if limit <= 0 {
		limit = DefaultEmailPageSize
	}
	if limit > MaxEmailPageSize {
		limit = MaxEmailPageSize
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.queries.ListEmailsByUser(ctx, repository.ListEmailsByUserParams{
		UserID: profile.UserID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to list emails")
	}

	emails := make([]domain.SavedEmail, len(rows))
	for i, row := range rows {
		emails[i] = *toDomainSavedEmail(row)
	}
	return &domain.EmailPage{Emails: emails, Limit: limit, Offset: offset}, nil
}

// Get returns a single saved email owned by the caller.
func (s *emailService) Get(ctx context.Context, profile *domain.Profile, id uuid.UUID) (*domain.SavedEmail, error) {
	const op = "email.get"

	if !profile.IsPro {
		return nil, domain.ProRequired(op)
	}

	row, err := s.queries.GetEmailByIDAndUser(ctx, repository.GetEmailByIDAndUserParams{
		ID:     id,
		UserID: profile.UserID,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "email", id.String())
		}
		return nil, domain.Internal(err, op, "failed to get email")
	}

	return toDomainSavedEmail(row), nil
}

// Delete removes a saved email owned by the caller.
func (s *emailService) Delete(ctx context.Context, profile *domain.Profile, id uuid.UUID) error {
	const op = "email.delete"

	if !profile.IsPro {
		return domain.ProRequired(op)
	}

	deleted, err := s.queries.DeleteEmailByIDAndUser(ctx, repository.DeleteEmailByIDAndUserParams{
		ID:     id,
		UserID: profile.UserID,
	})
	if err != nil {
		return domain.Internal(err, op, "failed to delete email")
	}
	if deleted == 0 {
		return domain.NotFound(op, "email", id.String())
	}

	s.logger.Info("Email deleted", "user_id", profile.UserID, "email_id", id)
	return nil
}

// toDomainSavedEmail converts a repository.Email to a domain.SavedEmail.
func toDomainSavedEmail(row repository.Email) *domain.SavedEmail {
	return &domain.SavedEmail{
		ID:            row.ID,
		UserID:        row.UserID,
		Type:          domain.Category(row.Type),
		RecipientType: row.RecipientType,
		BusinessType:  row.BusinessType,
		Context:       row.Context,
		Tone:          domain.Tone(row.Tone),
		Subject:       row.Subject,
		Body:          row.Body,
		CreatedAt:     row.CreatedAt,
	}
}
