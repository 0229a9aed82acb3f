package retrieve

import "errors"

var (
	// ErrChunkRepositoryRequired indicates a missing chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrEmbedderRequired indicates a missing embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
