// Package domain contains core business types and interfaces.
//
// This file defines the Profile domain type. A profile is the application's view of
// an identity issued by the external identity provider: it carries the Pro flag and
// the free-tier daily generation counter.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Identity is the authenticated principal extracted from a verified bearer token.
type Identity struct {
	UserID      uuid.UUID
	Email       string
	DisplayName string
}

// Profile represents a SmartMail user.
//
// It differs from repository.Profile in that:
// - It uses plain Go types instead of pgtype wrappers
// - It provides helper methods for entitlement checks
type Profile struct {
	UserID                    uuid.UUID
	Email                     string
	DisplayName               string
	IsPro                     bool
	DailyGenerationsCount     int
	DailyGenerationsResetDate time.Time
	ProUpgradedAt             *time.Time
	CreatedAt                 time.Time
	UpdatedAt                 time.Time
}

// Name returns the display name or email if the display name is empty.
func (p *Profile) Name() string {
	if p.DisplayName != "" {
		return p.DisplayName
	}
	return p.Email
}

// Tier returns the plan label shown to the user.
func (p *Profile) Tier() string {
	if p.IsPro {
		return TierPro
	}
	return TierFree
}

// CanGenerate reports whether the profile may generate another email under limit.
func (p *Profile) CanGenerate(limit int) bool {
	return p.IsPro || p.DailyGenerationsCount < limit
}

// RemainingGenerations returns the free generations left today, or -1 for Pro profiles.
func (p *Profile) RemainingGenerations(limit int) int {
	if p.IsPro {
		return -1
	}
	if remaining := limit - p.DailyGenerationsCount; remaining > 0 {
		return remaining
	}
	return 0
}
