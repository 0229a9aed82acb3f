package ai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedEmbedder returns the same vectors for every call.
type fixedEmbedder struct {
	vector []float32
}

func (f *fixedEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	return f.vector, nil
}

func (f *fixedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func TestNewDimensionGuard(t *testing.T) {
	t.Run("rejects nil embedder", func(t *testing.T) {
		_, err := NewDimensionGuard(nil, 3)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive dimension", func(t *testing.T) {
		_, err := NewDimensionGuard(&fixedEmbedder{}, 0)
		assert.Error(t, err)
	})
}

func TestDimensionGuardEmbedText(t *testing.T) {
	t.Run("matching dimension passes through", func(t *testing.T) {
		guard, err := NewDimensionGuard(&fixedEmbedder{vector: []float32{1, 2, 3}}, 3)
		require.NoError(t, err)

		vector, err := guard.EmbedText(context.Background(), "hello")
		require.NoError(t, err)
		assert.Equal(t, []float32{1, 2, 3}, vector)
	})

	t.Run("mismatch fails", func(t *testing.T) {
		guard, err := NewDimensionGuard(&fixedEmbedder{vector: []float32{1, 2}}, 3)
		require.NoError(t, err)

		_, err = guard.EmbedText(context.Background(), "hello")
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})
}

func TestDimensionGuardEmbedTexts(t *testing.T) {
	t.Run("all vectors validated", func(t *testing.T) {
		guard, err := NewDimensionGuard(&fixedEmbedder{vector: []float32{1, 2, 3, 4}}, 3)
		require.NoError(t, err)

		_, err = guard.EmbedTexts(context.Background(), []string{"a", "b"})
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("order and count preserved", func(t *testing.T) {
		guard, err := NewDimensionGuard(&fixedEmbedder{vector: []float32{1, 2, 3}}, 3)
		require.NoError(t, err)

		vectors, err := guard.EmbedTexts(context.Background(), []string{"a", "b", "c"})
		require.NoError(t, err)
		assert.Len(t, vectors, 3)
	})
}

func TestGenerateResultTruncated(t *testing.T) {
	assert.True(t, (&GenerateResult{FinishReason: FinishReasonLength}).Truncated())
	assert.False(t, (&GenerateResult{FinishReason: "stop"}).Truncated())
}
