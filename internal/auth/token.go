package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/DukeRupert/smartmail/internal/domain"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const defaultLeeway = 30 * time.Second

var (
	// ErrNotConfigured is returned when no signing secret is set.
	ErrNotConfigured = errors.New("token verifier is not configured")

	// ErrInvalidToken is returned for any token that fails verification.
	ErrInvalidToken = errors.New("invalid access token")
)

// Verifier turns a bearer token into an identity.
type Verifier interface {
	Verify(token string) (*domain.Identity, error)
}

// VerifierConfig configures access-token verification.
type VerifierConfig struct {
	Secret   string
	Issuer   string // checked when set
	Audience string // checked when set
	Leeway   time.Duration
}

// Claims is the subset of identity-provider claims the API reads.
type Claims struct {
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
		Name     string `json:"name"`
	} `json:"user_metadata"`
	jwt.RegisteredClaims
}

// TokenVerifier validates HS256 access tokens issued by a Supabase-style identity provider.
type TokenVerifier struct {
	secret  []byte
	options []jwt.ParserOption
}

// NewTokenVerifier creates a verifier. An empty secret yields a verifier that
// rejects every token with ErrNotConfigured.
func NewTokenVerifier(cfg VerifierConfig) *TokenVerifier {
	leeway := cfg.Leeway
	if leeway <= 0 {
		leeway = defaultLeeway
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
	}
	if iss := strings.TrimSpace(cfg.Issuer); iss != "" {
		opts = append(opts, jwt.WithIssuer(iss))
	}
	if aud := strings.TrimSpace(cfg.Audience); aud != "" {
		opts = append(opts, jwt.WithAudience(aud))
	}
	return &TokenVerifier{secret: []byte(cfg.Secret), options: opts}
}

// Verify validates the token and returns the caller's identity.
func (v *TokenVerifier) Verify(token string) (*domain.Identity, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.secret, nil
	}, v.options...)
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := uuid.Parse(strings.TrimSpace(claims.Subject))
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}

	name := claims.UserMetadata.FullName
	if name == "" {
		name = claims.UserMetadata.Name
	}
	return &domain.Identity{
		UserID:      userID,
		Email:       strings.ToLower(strings.TrimSpace(claims.Email)),
		DisplayName: strings.TrimSpace(name),
	}, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
