package ai

import (
	"context"
	"errors"
	"fmt"
)

// ErrDimensionMismatch indicates an embedding vector whose width differs from
// the configured dimension. This signals provider misconfiguration, not a
// transient failure: it must surface loudly and is never retried.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// dimensionGuard wraps an Embedder and validates the width of every vector
// it returns.
type dimensionGuard struct {
	inner     Embedder
	dimension int
}

var _ Embedder = (*dimensionGuard)(nil)

// NewDimensionGuard wraps an embedder with dimensionality validation.
// Every returned vector must have exactly the given width; any other width
// fails with ErrDimensionMismatch.
func NewDimensionGuard(inner Embedder, dimension int) (Embedder, error) {
	if inner == nil {
		return nil, errors.New("embedder required")
	}
	if dimension < 1 {
		return nil, fmt.Errorf("dimension must be positive, got %d", dimension)
	}
	return &dimensionGuard{inner: inner, dimension: dimension}, nil
}

// EmbedText embeds a single text and validates the result width.
func (g *dimensionGuard) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vector, err := g.inner.EmbedText(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vector) != g.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, g.dimension, len(vector))
	}
	return vector, nil
}

// EmbedTexts embeds a batch and validates every result width.
func (g *dimensionGuard) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := g.inner.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding result mismatch: expected %d, received %d", len(texts), len(vectors))
	}
	for i, vector := range vectors {
		if len(vector) != g.dimension {
			return nil, fmt.Errorf("%w: vector %d expected %d, got %d", ErrDimensionMismatch, i, g.dimension, len(vector))
		}
	}
	return vectors, nil
}
