package ai

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Provider generates text from a prompt using a hosted language model.
// Implementations make exactly one upstream attempt per call.
type Provider interface {
	// Name identifies the provider in logs and metrics (e.g., "anthropic").
	Name() string

	// Complete sends a single completion request.
	Complete(ctx context.Context, req CompletionRequest) (*Completion, error)
}

// CompletionRequest contains the prompt for a single completion.
type CompletionRequest struct {
	System      string  // Optional system instruction
	Prompt      string  // User prompt
	MaxTokens   int     // Upper bound on generated tokens
	Temperature float64 // Sampling temperature; 0 uses the provider default
}

// Completion is the raw text returned by a provider.
type Completion struct {
	Text  string
	Usage UsageInfo
}

// UsageInfo tracks API usage for monitoring
type UsageInfo struct {
	Model        string        // AI model used
	InputTokens  int           // Tokens in the request
	OutputTokens int           // Tokens in the response
	Duration     time.Duration // Request duration
}

// ProviderConfig contains common configuration for AI providers
type ProviderConfig struct {
	RequestTimeout time.Duration // Timeout for the single upstream request
}

// Error codes for AI provider operations
var (
	// ErrNotConfigured indicates the provider is missing credentials
	ErrNotConfigured = errors.New("ai provider is not configured")

	// EAIRateLimit indicates the API rate limit has been exceeded
	EAIRateLimit = errors.New("ai provider rate limit exceeded")

	// EAITimeout indicates the request timed out
	EAITimeout = errors.New("ai request timed out")

	// EAIUnavailable indicates the AI service is temporarily unavailable
	EAIUnavailable = errors.New("ai service temporarily unavailable")

	// EAIUnauthorized indicates invalid API credentials
	EAIUnauthorized = errors.New("ai provider authentication failed")

	// EAIEmptyResponse indicates the provider answered without usable text
	EAIEmptyResponse = errors.New("ai provider returned no text")
)

// IsConfigError returns true if the error means the provider cannot be used at all
// until an operator changes configuration.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrNotConfigured)
}

// IsTransient returns true for upstream failures that would likely succeed later.
// Callers use it for logging levels only; no call is retried.
func IsTransient(err error) bool {
	return errors.Is(err, EAIRateLimit) ||
		errors.Is(err, EAITimeout) ||
		errors.Is(err, EAIUnavailable)
}

// WrapError wraps an error with context about the AI operation
func WrapError(operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("ai %s: %w", operation, err)
}

// Unconfigured is a Provider that always fails with ErrNotConfigured.
// It stands in for a selected provider whose credentials are missing.
type Unconfigured struct {
	Provider string // Selected provider name
	Missing  string // Missing setting, e.g. "ANTHROPIC_API_KEY"
}

func (u Unconfigured) Name() string { return u.Provider }

func (u Unconfigured) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	return nil, fmt.Errorf("%w: %s is not set", ErrNotConfigured, u.Missing)
}
