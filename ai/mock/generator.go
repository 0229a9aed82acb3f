package mock

import (
	"context"
	"strings"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/core"
)

// MockGenerator is a test double for ai.Generator.
// It allows custom behavior injection via function fields.
type MockGenerator struct {
	// GenerateStreamFunc is called by GenerateStream if set.
	// If nil, uses default behavior: stream Response word by word.
	GenerateStreamFunc func(ctx context.Context, messages []core.Message, onToken ai.TokenFunc) (*ai.GenerateResult, error)

	// Response is the canned answer streamed by the default behavior.
	Response string

	// FinishReason reported by the default behavior. Default "stop".
	FinishReason string

	callCount int
}

// NewMockGenerator creates a mock generator with a canned response.
// Note: returns concrete type to allow behavior injection and assertions.
func NewMockGenerator(response string) *MockGenerator {
	return &MockGenerator{Response: response, FinishReason: "stop"}
}

// GenerateStream streams the canned response one whitespace-separated token at
// a time, then returns the final result.
func (m *MockGenerator) GenerateStream(ctx context.Context, messages []core.Message, onToken ai.TokenFunc) (*ai.GenerateResult, error) {
	m.callCount++

	if m.GenerateStreamFunc != nil {
		return m.GenerateStreamFunc(ctx, messages, onToken)
	}

	if onToken != nil {
		for i, word := range strings.Fields(m.Response) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			token := word
			if i > 0 {
				token = " " + word
			}
			if err := onToken(token); err != nil {
				return nil, err
			}
		}
	}

	return &ai.GenerateResult{
		Content:      m.Response,
		FinishReason: m.FinishReason,
	}, nil
}

// CallCount returns the number of times GenerateStream was called.
func (m *MockGenerator) CallCount() int {
	return m.callCount
}
