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

package retrieve

import (
	"context"
	"log/slog"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/storage"
)

const (
	// DefaultTopK is the default maximum number of retrieved chunks.
	DefaultTopK = 5

	// DefaultMinSimilarity is the default similarity threshold.
	DefaultMinSimilarity = 0.6
)

// Retriever finds the stored chunks most similar to a query, scoped to one
// owner's corpus.
type Retriever struct {
	chunks   storage.ChunkRepository
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Retriever.
type Option func(*Retriever) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Retriever) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger.With("component", "retrieve")
		return nil
	}
}

// NewRetriever creates a new retriever.
func NewRetriever(chunks storage.ChunkRepository, embedder ai.Embedder, opts ...Option) (*Retriever, error) {
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	r := &Retriever{
		chunks:   chunks,
		embedder: embedder,
		logger:   slog.Default().With("component", "retrieve"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// Retrieve embeds the query and returns up to topK chunks with similarity at
// or above minSimilarity, ordered by descending similarity. An empty result
// means no stored chunk is relevant enough; it is a valid outcome, not an
// error. topK values below 1 fall back to DefaultTopK.
func (r *Retriever) Retrieve(ctx context.Context, owner, query string, topK int, minSimilarity float32) ([]core.RetrievedChunk, error) {
	if topK < 1 {
		topK = DefaultTopK
	}

	vector, err := r.embedder.EmbedText(ctx, query)
	if err != nil {
		r.logger.Error("error embedding query", "err", err)
		return nil, err
	}

	matches, err := r.chunks.FindSimilar(ctx, owner, core.NormalizeVector(vector), minSimilarity, topK)
	if err != nil {
		r.logger.Error("error searching for similar chunks", "err", err)
		return nil, err
	}

	results := make([]core.RetrievedChunk, len(matches))
	for i, match := range matches {
		results[i] = core.RetrievedChunk{
			ChunkId:    match.Chunk.Id,
			DocumentId: match.Chunk.DocumentId,
			Filename:   match.Chunk.Metadata.Filename,
			Content:    match.Chunk.Content,
			Similarity: match.Score,
		}
	}

	r.logger.Debug("retrieval done", "owner", owner, "hits", len(results), "topK", topK)
	return results, nil
}
