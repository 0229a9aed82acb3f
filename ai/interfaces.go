package ai

import (
	"context"

	"github.com/pellego/ragline/core"
)

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a
	// single batch call where the backend supports it. The returned slice
	// contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// TokenFunc receives one generated token at a time. Returning a non-nil error
// stops the stream; the underlying provider call is left to finish or time
// out upstream.
type TokenFunc func(token string) error

// Generator produces completions from a conversation.
// Implementations must be thread-safe for concurrent use.
type Generator interface {
	// GenerateStream generates a completion for the given messages, invoking
	// onToken for each token as it arrives. onToken may be nil when the caller
	// only wants the final result. The returned result carries the full
	// content and the provider's finish reason.
	GenerateStream(ctx context.Context, messages []core.Message, onToken TokenFunc) (*GenerateResult, error)
}

// GenerateResult is the final-result signal of a generation call.
type GenerateResult struct {
	// Content is the complete generated text.
	Content string
	// FinishReason is the provider's stop reason, e.g. "stop" or "length".
	FinishReason string
}

// FinishReasonLength is the finish reason reported when generation stopped
// because the token limit was reached. This is a degraded-result signal for
// the caller, not an error.
const FinishReasonLength = "length"

// Truncated reports whether generation stopped at the token limit.
func (r *GenerateResult) Truncated() bool {
	return r.FinishReason == FinishReasonLength
}

// Provider aggregates AI services for convenient initialization and lifecycle
// management. A provider creates and manages Embedder and Generator instances,
// ensuring they share configuration appropriately.
type Provider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// Generator returns the answer generation service.
	// The returned Generator is safe for concurrent use.
	Generator() Generator

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
