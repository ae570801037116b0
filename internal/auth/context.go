// Package auth provides authentication context helpers and access-token verification.
//
// This package is designed to be imported by both middleware and handler
// packages without causing import cycles.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/smartmail/internal/domain"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// profileContextKey is the key used to store the authenticated profile in context.
	profileContextKey contextKey = "profile"
)

// GetProfile retrieves the authenticated profile from the context.
//
// Returns nil if no user is authenticated.
//
// Usage:
//
//	profile := auth.GetProfile(r.Context())
//	if profile == nil {
//	    // Handle unauthenticated request
//	}
func GetProfile(ctx context.Context) *domain.Profile {
	profile, ok := ctx.Value(profileContextKey).(*domain.Profile)
	if !ok {
		return nil
	}
	return profile
}

// GetProfileFromRequest retrieves the authenticated profile from the request context.
func GetProfileFromRequest(r *http.Request) *domain.Profile {
	return GetProfile(r.Context())
}

// SetProfile stores a profile in the context.
//
// This is typically called by authentication middleware after verifying
// a bearer token and loading the caller's profile.
func SetProfile(ctx context.Context, profile *domain.Profile) context.Context {
	return context.WithValue(ctx, profileContextKey, profile)
}
