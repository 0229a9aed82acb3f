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

package chat

import (
	"context"
	"log/slog"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/prompt"
	"github.com/pellego/ragline/retrieve"
)

// Responder answers one chat turn: retrieve relevant chunks, assemble the
// grounded prompt, stream the model's answer back to the caller.
type Responder struct {
	retriever     *retrieve.Retriever
	assembler     *prompt.Assembler
	generator     ai.Generator
	topK          int
	minSimilarity float32
	logger        *slog.Logger
}

// Option configures a Responder.
type Option func(*Responder) error

// WithTopK sets the maximum number of chunks retrieved per turn.
// Default is retrieve.DefaultTopK.
func WithTopK(k int) Option {
	return func(r *Responder) error {
		if k > 0 {
			r.topK = k
		}
		return nil
	}
}

// WithMinSimilarity sets the retrieval similarity threshold.
// Default is retrieve.DefaultMinSimilarity.
func WithMinSimilarity(min float32) Option {
	return func(r *Responder) error {
		r.minSimilarity = min
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Responder) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "chat")
		return nil
	}
}

// NewResponder creates a new responder.
func NewResponder(retriever *retrieve.Retriever, assembler *prompt.Assembler, generator ai.Generator, opts ...Option) (*Responder, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if assembler == nil {
		return nil, ErrAssemblerRequired
	}
	if generator == nil {
		return nil, ErrGeneratorRequired
	}

	r := &Responder{
		retriever:     retriever,
		assembler:     assembler,
		generator:     generator,
		topK:          retrieve.DefaultTopK,
		minSimilarity: retrieve.DefaultMinSimilarity,
		logger:        slog.Default().With("component", "chat"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Answer is the completed result of one chat turn.
type Answer struct {
	// Content is the full generated answer.
	Content string

	// Citations map the [S#] markers in the answer back to chunks, in the
	// order the sources were presented. Empty when nothing relevant was
	// retrieved.
	Citations []core.Citation

	// Truncated is set when generation stopped at the token limit. The
	// answer is still usable; the caller should tell the user it was cut
	// short.
	Truncated bool
}

// Answer runs one chat turn for an owner's conversation. The latest user
// message is the retrieval query. Tokens are relayed to onToken as they
// arrive; cancelling ctx stops the relay. onToken may be nil when the caller
// only wants the final answer.
func (r *Responder) Answer(ctx context.Context, owner string, history []core.Message, onToken ai.TokenFunc) (*Answer, error) {
	if len(history) == 0 {
		return nil, prompt.ErrEmptyConversation
	}

	query := latestUserMessage(history)
	if query == "" {
		return nil, prompt.ErrNoUserMessage
	}

	retrieved, err := r.retriever.Retrieve(ctx, owner, query, r.topK, r.minSimilarity)
	if err != nil {
		return nil, err
	}

	messages, citations, err := r.assembler.Assemble(history, retrieved)
	if err != nil {
		return nil, err
	}

	result, err := r.generator.GenerateStream(ctx, messages, onToken)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("chat turn answered",
		"owner", owner, "sources", len(citations), "truncated", result.Truncated())

	return &Answer{
		Content:   result.Content,
		Citations: citations,
		Truncated: result.Truncated(),
	}, nil
}

// latestUserMessage returns the content of the most recent user turn.
func latestUserMessage(history []core.Message) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == core.RoleUser {
			return history[i].Content
		}
	}
	return ""
}
