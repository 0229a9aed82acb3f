// Copyright 2026 Pellego Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package prompt

import (
	"fmt"
	"strings"

	"github.com/pellego/ragline/core"
)

// DefaultHistoryPairs is the number of prior user/assistant exchanges kept in
// an assembled prompt.
const DefaultHistoryPairs = 4

// groundingPrompt instructs the model to answer only from supplied sources.
const groundingPrompt = `You are an assistant that answers questions using only the material provided under SOURCES.
When you use a source, cite it with its [S#] marker.
If the sources do not contain the answer, say that you don't know. Do not invent information.`

// Assembler turns conversation history plus retrieved chunks into the message
// list sent to the generation model, together with the citations that map
// [S#] markers back to chunks.
type Assembler struct {
	historyPairs int
	systemPrompt string
}

// Option configures an Assembler.
type Option func(*Assembler) error

// WithHistoryPairs sets how many prior exchanges are kept.
// Default is 4.
func WithHistoryPairs(n int) Option {
	return func(a *Assembler) error {
		if n < 0 {
			n = 0
		}
		a.historyPairs = n
		return nil
	}
}

// WithSystemPrompt overrides the grounding system message.
func WithSystemPrompt(prompt string) Option {
	return func(a *Assembler) error {
		if prompt != "" {
			a.systemPrompt = prompt
		}
		return nil
	}
}

// NewAssembler creates a new prompt assembler.
func NewAssembler(opts ...Option) (*Assembler, error) {
	a := &Assembler{
		historyPairs: DefaultHistoryPairs,
		systemPrompt: groundingPrompt,
	}

	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}

	return a, nil
}

// Assemble builds the prompt for one chat turn.
//
// Retrieved chunks are rendered as a SOURCES block appended to the latest
// user message, numbered [S1], [S2], ... in retrieval order. That order, not
// similarity rank, is the citation numbering the caller shows to users. With
// no chunks the user message passes through unmodified and the citation list
// is empty. Prior history is trimmed to the most recent exchanges, and the
// grounding system message is always prepended.
func (a *Assembler) Assemble(history []core.Message, chunks []core.RetrievedChunk) ([]core.Message, []core.Citation, error) {
	if len(history) == 0 {
		return nil, nil, ErrEmptyConversation
	}

	// The latest user message is the turn being answered
	userIdx := -1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleUser {
			userIdx = i
			break
		}
	}
	if userIdx == -1 {
		return nil, nil, ErrNoUserMessage
	}

	prior := history[:userIdx]
	if keep := a.historyPairs * 2; len(prior) > keep {
		prior = prior[len(prior)-keep:]
	}

	citations := make([]core.Citation, len(chunks))
	for i, chunk := range chunks {
		citations[i] = core.Citation{
			Position:   i + 1,
			ChunkId:    chunk.ChunkId,
			DocumentId: chunk.DocumentId,
			Filename:   chunk.Filename,
			Similarity: chunk.Similarity,
		}
	}

	userMessage := history[userIdx]
	if len(chunks) > 0 {
		userMessage.Content = userMessage.Content + "\n\n" + renderSources(chunks)
	}

	messages := make([]core.Message, 0, len(prior)+len(history)-userIdx+1)
	messages = append(messages, core.Message{Role: core.RoleSystem, Content: a.systemPrompt})
	messages = append(messages, prior...)
	messages = append(messages, userMessage)
	messages = append(messages, history[userIdx+1:]...)

	return messages, citations, nil
}

// renderSources renders retrieved chunks as a SOURCES block.
func renderSources(chunks []core.RetrievedChunk) string {
	var b strings.Builder
	b.WriteString("SOURCES:")
	for i, chunk := range chunks {
		fmt.Fprintf(&b, "\n[S%d] %s", i+1, chunk.Content)
	}
	return b.String()
}
