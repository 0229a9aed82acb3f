package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/pellego/ragline/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssembleSourcesInRetrievalOrder(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	history := []core.Message{{Role: core.RoleUser, Content: "Q"}}
	// Deliberately not sorted by similarity: numbering follows retrieval order
	chunks := []core.RetrievedChunk{
		{ChunkId: 10, DocumentId: 1, Filename: "a.txt", Content: "A", Similarity: 0.61},
		{ChunkId: 20, DocumentId: 2, Filename: "b.txt", Content: "B", Similarity: 0.95},
	}

	messages, citations, err := assembler.Assemble(history, chunks)
	require.NoError(t, err)

	require.Len(t, messages, 2)
	assert.Equal(t, core.RoleSystem, messages[0].Role)

	user := messages[1]
	assert.Equal(t, core.RoleUser, user.Role)
	assert.True(t, strings.HasPrefix(user.Content, "Q\n\nSOURCES:"), "user message must keep its question first")
	posA := strings.Index(user.Content, "[S1] A")
	posB := strings.Index(user.Content, "[S2] B")
	require.NotEqual(t, -1, posA)
	require.NotEqual(t, -1, posB)
	assert.Less(t, posA, posB)

	require.Len(t, citations, 2)
	assert.Equal(t, core.Citation{Position: 1, ChunkId: 10, DocumentId: 1, Filename: "a.txt", Similarity: 0.61}, citations[0])
	assert.Equal(t, core.Citation{Position: 2, ChunkId: 20, DocumentId: 2, Filename: "b.txt", Similarity: 0.95}, citations[1])
}

func TestAssembleWithoutChunks(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	history := []core.Message{{Role: core.RoleUser, Content: "just a question"}}

	messages, citations, err := assembler.Assemble(history, nil)
	require.NoError(t, err)

	// The user message passes through byte-identical
	require.Len(t, messages, 2)
	assert.Equal(t, "just a question", messages[1].Content)
	assert.Empty(t, citations)
}

func TestAssembleTrimsHistory(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	// Six full exchanges before the current question
	var history []core.Message
	for i := 0; i < 6; i++ {
		history = append(history,
			core.Message{Role: core.RoleUser, Content: fmt.Sprintf("question %d", i)},
			core.Message{Role: core.RoleAssistant, Content: fmt.Sprintf("answer %d", i)},
		)
	}
	history = append(history, core.Message{Role: core.RoleUser, Content: "current"})

	messages, _, err := assembler.Assemble(history, nil)
	require.NoError(t, err)

	// system + 4 pairs + current question
	require.Len(t, messages, 1+8+1)
	assert.Equal(t, "question 2", messages[1].Content)
	assert.Equal(t, "answer 5", messages[8].Content)
	assert.Equal(t, "current", messages[9].Content)
}

func TestAssembleCustomHistoryWindow(t *testing.T) {
	assembler, err := NewAssembler(WithHistoryPairs(1))
	require.NoError(t, err)

	history := []core.Message{
		{Role: core.RoleUser, Content: "old question"},
		{Role: core.RoleAssistant, Content: "old answer"},
		{Role: core.RoleUser, Content: "recent question"},
		{Role: core.RoleAssistant, Content: "recent answer"},
		{Role: core.RoleUser, Content: "current"},
	}

	messages, _, err := assembler.Assemble(history, nil)
	require.NoError(t, err)

	require.Len(t, messages, 4)
	assert.Equal(t, "recent question", messages[1].Content)
	assert.Equal(t, "recent answer", messages[2].Content)
	assert.Equal(t, "current", messages[3].Content)
}

func TestAssembleSystemPromptAlwaysFirst(t *testing.T) {
	assembler, err := NewAssembler(WithSystemPrompt("custom grounding"))
	require.NoError(t, err)

	messages, _, err := assembler.Assemble([]core.Message{{Role: core.RoleUser, Content: "Q"}}, nil)
	require.NoError(t, err)

	assert.Equal(t, core.RoleSystem, messages[0].Role)
	assert.Equal(t, "custom grounding", messages[0].Content)
}

func TestAssembleEmptyConversation(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	_, _, err = assembler.Assemble(nil, nil)
	assert.ErrorIs(t, err, ErrEmptyConversation)
}

func TestAssembleNoUserMessage(t *testing.T) {
	assembler, err := NewAssembler()
	require.NoError(t, err)

	_, _, err = assembler.Assemble([]core.Message{{Role: core.RoleAssistant, Content: "hello"}}, nil)
	assert.ErrorIs(t, err, ErrNoUserMessage)
}
