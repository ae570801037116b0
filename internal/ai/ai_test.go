package ai

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnconfigured(t *testing.T) {
	p := Unconfigured{Provider: "anthropic", Missing: "ANTHROPIC_API_KEY"}

	_, err := p.Complete(context.Background(), CompletionRequest{Prompt: "hi"})
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "ANTHROPIC_API_KEY")
	assert.Equal(t, "anthropic", p.Name())
}

func TestErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		config    bool
		transient bool
	}{
		{WrapError("complete", ErrNotConfigured), true, false},
		{WrapError("complete", EAIRateLimit), false, true},
		{fmt.Errorf("x: %w", EAITimeout), false, true},
		{EAIUnavailable, false, true},
		{EAIUnauthorized, false, false},
		{errors.New("boom"), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.config, IsConfigError(tt.err))
			assert.Equal(t, tt.transient, IsTransient(tt.err))
		})
	}
}

func TestWrapErrorNil(t *testing.T) {
	assert.NoError(t, WrapError("complete", nil))
}
