// Package compose turns a generation brief into an email. It makes a single
// call to the configured text-generation provider and falls back to a
// deterministic template whenever the provider fails or returns unusable text.
package compose

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/DukeRupert/smartmail/internal/ai"
	"github.com/DukeRupert/smartmail/internal/domain"
	"github.com/DukeRupert/smartmail/internal/metrics"
)

// Kind tags how a Result was produced.
type Kind int

const (
	// KindParsed means the provider output was parsed into a usable email.
	KindParsed Kind = iota + 1
	// KindFallback means the deterministic template was used, in whole or for the body.
	KindFallback
	// KindError means no email could be produced because the provider is misconfigured.
	KindError
)

func (k Kind) String() string {
	switch k {
	case KindParsed:
		return "parsed"
	case KindFallback:
		return "fallback"
	case KindError:
		return "error"
	}
	return "unknown"
}

// Result is the outcome of Compose. Exactly one of Draft or Err is meaningful,
// selected by Kind.
type Result struct {
	Kind   Kind
	Draft  Draft
	Err    error  // set when Kind is KindError
	Reason string // why the fallback was used; empty for Parsed
}

const (
	ReasonProviderError  = "provider_error"
	ReasonUnusableOutput = "unusable_output"
)

const (
	maxTokens   = 800
	temperature = 0.7
)

// Composer produces emails from briefs.
type Composer struct {
	provider ai.Provider
	logger   *slog.Logger
}

// New creates a Composer backed by provider.
func New(provider ai.Provider, logger *slog.Logger) *Composer {
	return &Composer{provider: provider, logger: logger}
}

// ProviderName returns the configured provider's name.
func (c *Composer) ProviderName() string {
	return c.provider.Name()
}

// Compose runs one provider attempt for req and returns a tagged result.
// Upstream failures are logged and replaced by the fallback template; only
// configuration errors surface as KindError.
func (c *Composer) Compose(ctx context.Context, req domain.GenerateRequest) Result {
	system, prompt := BuildPrompt(req)

	start := time.Now()
	completion, err := c.provider.Complete(ctx, ai.CompletionRequest{
		System:      system,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	})
	var inputTokens, outputTokens int
	if completion != nil {
		inputTokens, outputTokens = completion.Usage.InputTokens, completion.Usage.OutputTokens
	}
	metrics.AICallCompleted(c.provider.Name(), callStatus(err), time.Since(start), inputTokens, outputTokens)
	if err != nil {
		if ai.IsConfigError(err) {
			return Result{Kind: KindError, Err: err}
		}
		level := slog.LevelWarn
		if !ai.IsTransient(err) {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "Text generation failed, using fallback template",
			"provider", c.provider.Name(),
			"type", req.Type,
			"error", err,
		)
		return Result{Kind: KindFallback, Draft: Fallback(req), Reason: ReasonProviderError}
	}

	p := parseOutput(completion.Text, req)
	if p.Usable {
		return Result{Kind: KindParsed, Draft: p.Draft}
	}

	c.logger.Info("Generated text unusable, using fallback body",
		"provider", c.provider.Name(),
		"type", req.Type,
		"problem", p.Problem,
	)
	fb := Fallback(req)
	if p.SubjectFound && !curlyPlaceholder.MatchString(p.Subject) {
		fb.Subject = p.Subject
	}
	return Result{Kind: KindFallback, Draft: fb, Reason: ReasonUnusableOutput}
}

// callStatus classifies a provider error for the ai_api_calls_total metric.
func callStatus(err error) string {
	switch {
	case err == nil:
		return metrics.StatusSuccess
	case errors.Is(err, ai.ErrNotConfigured):
		return "not_configured"
	case errors.Is(err, ai.EAIRateLimit):
		return "rate_limit"
	case errors.Is(err, ai.EAITimeout):
		return "timeout"
	case errors.Is(err, ai.EAIUnavailable):
		return "unavailable"
	case errors.Is(err, ai.EAIUnauthorized):
		return "unauthorized"
	case errors.Is(err, ai.EAIEmptyResponse):
		return "empty"
	}
	return "error"
}
