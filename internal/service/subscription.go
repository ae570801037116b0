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

// SubscriptionService reports the caller's subscription status.
type SubscriptionService interface {
	// Status returns {subscribed: false} for free profiles, or a 30-day
	// window starting at the profile's last update for Pro profiles.
	Status(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error)
}

type subscriptionService struct {
	queries *repository.Queries
	logger  *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(queries *repository.Queries, logger *slog.Logger) SubscriptionService {
	return &subscriptionService{
		queries: queries,
		logger:  logger,
	}
}

func (s *subscriptionService) Status(ctx context.Context, userID uuid.UUID) (*domain.SubscriptionStatus, error) {
	const op = "subscription.status"

	row, err := s.queries.GetProfile(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NotFound(op, "profile", userID.String())
		}
		return nil, domain.Internal(err, op, "failed to get profile")
	}

	status := domain.SubscriptionFor(toDomainProfile(row))
	return &status, nil
}
