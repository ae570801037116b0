// Package openai implements ai.Provider on top of the go-chatgpt client.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/smartmail/internal/ai"
	"github.com/ayush6624/go-chatgpt"
)

// DefaultModel is used when no model is configured.
const DefaultModel = chatgpt.GPT35Turbo

type chatClient interface {
	Send(ctx context.Context, req *chatgpt.ChatCompletionRequest) (*chatgpt.ChatResponse, error)
}

type Config struct {
	APIKey         string
	Model          string
	ProviderConfig ai.ProviderConfig
}

type Provider struct {
	client  chatClient
	model   chatgpt.ChatGPTModel
	timeout time.Duration
	logger  *slog.Logger
}

func New(config Config, logger *slog.Logger) (*Provider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: openai API key is required", ai.ErrNotConfigured)
	}

	client, err := chatgpt.NewClient(config.APIKey)
	if err != nil {
		return nil, fmt.Errorf("construct chatgpt client: %w", err)
	}

	return newWithClient(client, config, logger), nil
}

func newWithClient(client chatClient, config Config, logger *slog.Logger) *Provider {
	model := chatgpt.ChatGPTModel(config.Model)
	if config.Model == "" {
		model = DefaultModel
	}
	timeout := config.ProviderConfig.RequestTimeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Provider{client: client, model: model, timeout: timeout, logger: logger}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) Complete(ctx context.Context, params ai.CompletionRequest) (*ai.Completion, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()

	messages := make([]chatgpt.ChatMessage, 0, 2)
	if params.System != "" {
		messages = append(messages, chatgpt.ChatMessage{Role: chatgpt.ChatGPTModelRoleSystem, Content: params.System})
	}
	messages = append(messages, chatgpt.ChatMessage{Role: chatgpt.ChatGPTModelRoleUser, Content: params.Prompt})

	resp, err := p.client.Send(ctx, &chatgpt.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   params.MaxTokens,
		Temperature: params.Temperature,
	})
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ai.WrapError("execute request", ai.EAITimeout)
		}
		return nil, ai.WrapError("execute request", fmt.Errorf("%w: %v", ai.EAIUnavailable, err))
	}

	if resp == nil || len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return nil, ai.WrapError("parse response", ai.EAIEmptyResponse)
	}

	duration := time.Since(start)
	p.logger.Debug("OpenAI completion finished", "model", p.model, "duration", duration)

	return &ai.Completion{
		Text: resp.Choices[0].Message.Content,
		Usage: ai.UsageInfo{
			Model:    string(p.model),
			Duration: duration,
		},
	}, nil
}
