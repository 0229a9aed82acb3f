package chat

import (
	"context"
	"strings"
	"testing"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/ai/mock"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/prompt"
	"github.com/pellego/ragline/retrieve"
	"github.com/pellego/ragline/storage"
	"github.com/pellego/ragline/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResponder(t *testing.T, generator ai.Generator, queryVector []float32) (*Responder, storage.ChunkRepository) {
	t.Helper()

	docRepo, jobRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		jobRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return queryVector, nil
	}

	retriever, err := retrieve.NewRetriever(chunkRepo, embedder)
	require.NoError(t, err)
	assembler, err := prompt.NewAssembler()
	require.NoError(t, err)

	responder, err := NewResponder(retriever, assembler, generator)
	require.NoError(t, err)

	return responder, chunkRepo
}

func storeChunk(t *testing.T, chunks storage.ChunkRepository, content string, vector []float32) {
	t.Helper()

	_, err := chunks.AddChunk(context.Background(), &core.Chunk{
		Owner:      "alice",
		DocumentId: 1,
		Index:      0,
		Content:    content,
		Vector:     core.NormalizeVector(vector),
		Metadata:   core.ChunkMetadata{Filename: "notes.txt", MimeType: "text/plain"},
	})
	require.NoError(t, err)
}

func TestAnswerWithSources(t *testing.T) {
	generator := mock.NewMockGenerator("Paris is the capital [S1].")
	responder, chunks := newTestResponder(t, generator, []float32{1, 0, 0})

	storeChunk(t, chunks, "The capital of France is Paris.", []float32{1, 0, 0})

	var streamed strings.Builder
	history := []core.Message{{Role: core.RoleUser, Content: "What is the capital of France?"}}

	answer, err := responder.Answer(context.Background(), "alice", history, func(token string) error {
		streamed.WriteString(token)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital [S1].", answer.Content)
	assert.Equal(t, answer.Content, streamed.String())
	assert.False(t, answer.Truncated)

	require.Len(t, answer.Citations, 1)
	assert.Equal(t, 1, answer.Citations[0].Position)
	assert.Equal(t, "notes.txt", answer.Citations[0].Filename)
}

func TestAnswerPromptCarriesSources(t *testing.T) {
	var seen []core.Message
	generator := &mock.MockGenerator{
		GenerateStreamFunc: func(ctx context.Context, messages []core.Message, onToken ai.TokenFunc) (*ai.GenerateResult, error) {
			seen = messages
			return &ai.GenerateResult{Content: "ok", FinishReason: "stop"}, nil
		},
	}
	responder, chunks := newTestResponder(t, generator, []float32{1, 0, 0})

	storeChunk(t, chunks, "relevant context", []float32{1, 0, 0})

	history := []core.Message{{Role: core.RoleUser, Content: "Q"}}
	_, err := responder.Answer(context.Background(), "alice", history, nil)
	require.NoError(t, err)

	require.Len(t, seen, 2)
	assert.Equal(t, core.RoleSystem, seen[0].Role)
	assert.Contains(t, seen[1].Content, "SOURCES:")
	assert.Contains(t, seen[1].Content, "[S1] relevant context")
}

func TestAnswerWithoutRelevantSources(t *testing.T) {
	var seen []core.Message
	generator := &mock.MockGenerator{
		GenerateStreamFunc: func(ctx context.Context, messages []core.Message, onToken ai.TokenFunc) (*ai.GenerateResult, error) {
			seen = messages
			return &ai.GenerateResult{Content: "I don't know.", FinishReason: "stop"}, nil
		},
	}
	responder, chunks := newTestResponder(t, generator, []float32{1, 0, 0})

	// Orthogonal to the query vector: below any sensible threshold
	storeChunk(t, chunks, "unrelated content", []float32{0, 1, 0})

	history := []core.Message{{Role: core.RoleUser, Content: "Q"}}
	answer, err := responder.Answer(context.Background(), "alice", history, nil)
	require.NoError(t, err)

	assert.Empty(t, answer.Citations)
	require.Len(t, seen, 2)
	assert.Equal(t, "Q", seen[1].Content)
}

func TestAnswerTruncated(t *testing.T) {
	generator := mock.NewMockGenerator("partial answer that ran out of")
	generator.FinishReason = ai.FinishReasonLength

	responder, _ := newTestResponder(t, generator, []float32{1, 0, 0})

	history := []core.Message{{Role: core.RoleUser, Content: "Q"}}
	answer, err := responder.Answer(context.Background(), "alice", history, nil)
	require.NoError(t, err)

	// A token-limit stop is a degraded result, not an error
	assert.True(t, answer.Truncated)
	assert.NotEmpty(t, answer.Content)
}

func TestAnswerCancelledContext(t *testing.T) {
	generator := mock.NewMockGenerator("this answer never streams")
	responder, _ := newTestResponder(t, generator, []float32{1, 0, 0})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	history := []core.Message{{Role: core.RoleUser, Content: "Q"}}
	_, err := responder.Answer(ctx, "alice", history, func(string) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnswerEmptyConversation(t *testing.T) {
	responder, _ := newTestResponder(t, mock.NewMockGenerator("x"), []float32{1, 0, 0})

	_, err := responder.Answer(context.Background(), "alice", nil, nil)
	assert.ErrorIs(t, err, prompt.ErrEmptyConversation)
}
