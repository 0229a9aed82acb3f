package ingest

import "errors"

var (
	// ErrDocumentRepositoryRequired indicates a missing document repository.
	ErrDocumentRepositoryRequired = errors.New("document repository required")

	// ErrJobRepositoryRequired indicates a missing job repository.
	ErrJobRepositoryRequired = errors.New("job repository required")

	// ErrChunkRepositoryRequired indicates a missing chunk repository.
	ErrChunkRepositoryRequired = errors.New("chunk repository required")

	// ErrBlobStoreRequired indicates a missing blob store.
	ErrBlobStoreRequired = errors.New("blob store required")

	// ErrEmbedderRequired indicates a missing embedder.
	ErrEmbedderRequired = errors.New("embedder required")
)
