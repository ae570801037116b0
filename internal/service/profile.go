// Package service contains the business logic layer.
//
// This file implements the profile service. A profile is created the first
// time an identity is seen, and its free-tier counter is reset on the first
// read of each calendar day.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/repository"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// =============================================================================
// Interface Definition
// =============================================================================

// ProfileService defines operations on the caller's profile.
type ProfileService interface {
	// Ensure creates the profile for id if it does not exist, applies the
	// daily counter reset and returns the current profile.
	Ensure(ctx context.Context, id domain.Identity) (*domain.Profile, error)

	// Get returns the profile after applying the daily counter reset.
	// Returns domain.ENOTFOUND if the profile does not exist.
	Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)

	// FreeDailyLimit returns the configured free-tier limit.
	FreeDailyLimit() int
}

// =============================================================================
// Implementation
// =============================================================================

type profileService struct {
	queries    *repository.Queries
	logger     *slog.Logger
	dailyLimit int
}

// NewProfileService creates a new ProfileService. A non-positive dailyLimit
// uses domain.DefaultFreeDailyLimit.
func NewProfileService(queries *repository.Queries, dailyLimit int, logger *slog.Logger) ProfileService {
	if dailyLimit <= 0 {
		dailyLimit = domain.DefaultFreeDailyLimit
	}
	return &profileService{
		queries:    queries,
		logger:     logger,
		dailyLimit: dailyLimit,
	}
}

func (s *profileService) FreeDailyLimit() int {
	return s.dailyLimit
}

// Ensure creates the profile on first sight and returns it.
func (s *profileService) Ensure(ctx context.Context, id domain.Identity) (*domain.Profile, error) {
	const op = "profile.ensure"

	if id.UserID == uuid.Nil {
		return nil, domain.Unauthorized(op, "missing user id")
	}

	err := s.queries.EnsureProfile(ctx, repository.EnsureProfileParams{
		UserID:      id.UserID,
		Email:       id.Email,
		DisplayName: id.DisplayName,
	})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to create profile")
	}

	return s.load(ctx, op, id.UserID)
}

// Get returns the profile for userID.
func (s *profileService) Get(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	const op = "profile.get"
	return s.load(ctx, op, userID)
}

// load applies the daily reset and reads the profile. The reset is a
// conditional update, so it takes effect exactly once per calendar day no
// matter how many requests race on the first read.
func (s *profileService) load(ctx context.Context, op string, userID uuid.UUID) (*domain.Profile, error) {
	reset, err := s.queries.ResetDailyGenerationsIfNeeded(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to reset daily generations")
	}
	if reset > 0 {
		s.logger.Debug("Daily generation counter reset", "user_id", userID)
	}

	row, err := s.queries.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", userID.String())
		}
		return nil, domain.Internal(err, op, "failed to get profile")
	}

	return toDomainProfile(row), nil
}

// toDomainProfile converts a repository.Profile to a domain.Profile.
func toDomainProfile(row repository.Profile) *domain.Profile {
	p := &domain.Profile{
		UserID:                row.UserID,
		Email:                 row.Email,
		DisplayName:           row.DisplayName,
		IsPro:                 row.IsPro,
		DailyGenerationsCount: int(row.DailyGenerationsCount),
		CreatedAt:             row.CreatedAt,
		UpdatedAt:             row.UpdatedAt,
	}
	if row.DailyGenerationsResetDate.Valid {
		p.DailyGenerationsResetDate = row.DailyGenerationsResetDate.Time
	}
	if row.ProUpgradedAt.Valid {
		t := row.ProUpgradedAt.Time
		p.ProUpgradedAt = &t
	}
	return p
}
