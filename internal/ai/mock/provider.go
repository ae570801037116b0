package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DukeRupert/smartmail/internal/ai"
)

// Provider is a mock AI provider for testing and development
type Provider struct {
	logger *slog.Logger

	mu sync.Mutex

	// Configurable responses for testing
	CompleteResponse string
	CompleteError    error

	// Call tracking for testing
	CompleteCalls int
	LastRequest   ai.CompletionRequest
}

// New creates a new mock AI provider
func New(logger *slog.Logger) *Provider {
	return &Provider{
		logger: logger,
	}
}

func (p *Provider) Name() string { return "mock" }

// Complete returns the configured response, or a canned email in the
// "Subject:" format the prompt asks for.
func (p *Provider) Complete(ctx context.Context, req ai.CompletionRequest) (*ai.Completion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.CompleteCalls++
	p.LastRequest = req

	if p.CompleteError != nil {
		return nil, p.CompleteError
	}
	if p.CompleteResponse != "" {
		return &ai.Completion{Text: p.CompleteResponse, Usage: ai.UsageInfo{Model: "mock"}}, nil
	}

	p.logger.Debug("Mock AI completion", "prompt_length", len(req.Prompt))

	text := `Subject: Following up on your request

Dear [Recipient],

Thank you for taking the time to read this message. We have reviewed the details you shared
and prepared a short summary of how we can help, along with a few next steps that should make
it easy to move forward at a pace that suits you.

Please reply to this email with a convenient time for a short call.

Best regards,
[Sender name/business]`

	return &ai.Completion{Text: text, Usage: ai.UsageInfo{Model: "mock"}}, nil
}
