// Package middleware contains HTTP middleware for the SmartMail API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/DukeRupert/smartmail/internal/auth"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/handler"
	"github.com/DukeRupert/smartmail/internal/service"
)

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AuthMiddleware provides authentication middleware functionality.
//
// This struct holds dependencies needed by auth middleware functions.
// Create one instance and use its methods as middleware.
type AuthMiddleware struct {
	verifier auth.Verifier
	profiles service.ProfileService
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware instance.
//
// Parameters:
// - verifier: Verifies bearer tokens issued by the identity provider
// - profiles: Loads (and on first sight creates) the caller's profile
// - logger: Structured logger for auth events
func NewAuthMiddleware(verifier auth.Verifier, profiles service.ProfileService, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier: verifier,
		profiles: profiles,
		logger:   logger,
	}
}

// =============================================================================
// WithUser Middleware
// =============================================================================

// WithUser is middleware that attempts to load the profile from the bearer token.
//
// This middleware:
// 1. Reads the Authorization header
// 2. If a bearer token is present, verifies it
// 3. Ensures the profile exists and applies the daily counter reset
// 4. Stores the profile in the request context
//
// Requests without a valid token continue unauthenticated; use RequireUser
// to reject them. A verifier without a signing secret fails closed with a
// configuration error.
func (m *AuthMiddleware) WithUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.BearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		identity, err := m.verifier.Verify(token)
		if err != nil {
			if errors.Is(err, auth.ErrNotConfigured) {
				handler.ErrorResponse(w, r, m.logger,
					domain.Config(err, "auth.verify", "Authentication is unavailable: the token secret is not configured."))
				return
			}
			m.logger.Debug("rejected bearer token", "error", err, "path", r.URL.Path)
			next.ServeHTTP(w, r)
			return
		}

		profile, err := m.profiles.Ensure(r.Context(), *identity)
		if err != nil {
			handler.ErrorResponse(w, r, m.logger, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.SetProfile(r.Context(), profile)))
	})
}

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser is middleware that requires an authenticated profile.
//
// IMPORTANT: This middleware must be used AFTER WithUser in the middleware chain.
//
// Usage:
//
//	mux.Handle("GET /api/profile", authMw.WithUser(authMw.RequireUser(profileHandler)))
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.GetProfile(r.Context()) == nil {
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// RequirePro Middleware
// =============================================================================

// RequirePro is middleware that requires a Pro profile.
//
// IMPORTANT: Use this AFTER RequireUser in the middleware chain.
func (m *AuthMiddleware) RequirePro(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		profile := auth.GetProfile(r.Context())
		if profile == nil {
			// This shouldn't happen if RequireUser is used before this middleware
			m.logger.Error("RequirePro called without profile in context")
			handler.UnauthorizedResponse(w, r, m.logger)
			return
		}

		if !profile.IsPro {
			handler.ErrorResponse(w, r, m.logger, domain.ProRequired(""))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	stack := Stack(authMw.WithUser, authMw.RequireUser)
//	mux.Handle("GET /api/profile", stack(profileHandler))
//
// This is equivalent to:
//
//	mux.Handle("GET /api/profile",
//	    authMw.WithUser(authMw.RequireUser(profileHandler)))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}

// Ensure middleware functions have correct signature
var (
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).WithUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequireUser
	_ func(http.Handler) http.Handler = (&AuthMiddleware{}).RequirePro
)
