package storage

import (
	"context"

	"github.com/pellego/ragline/core"
)

// DocumentRepository provides operations for managing documents.
// All operations are scoped to a single owner.
type DocumentRepository interface {
	// AddDocument adds a document to storage. Generates a new ID from
	// sequence and sets CreatedAt/UpdatedAt. Returns the stored document.
	AddDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist for this owner.
	GetDocument(ctx context.Context, owner string, id core.ID) (*core.Document, error)

	// ListDocuments retrieves all of an owner's documents, ordered by ID.
	ListDocuments(ctx context.Context, owner string) ([]*core.Document, error)

	// SetDocumentStatus updates a document's status and failure reason.
	// reason is stored only for DocumentError and cleared otherwise.
	// Returns ErrNotFound if the document doesn't exist for this owner.
	SetDocumentStatus(ctx context.Context, owner string, id core.ID, status core.DocumentStatus, reason string) error

	// DeleteDocument removes a document.
	// Returns ErrNotFound if the document doesn't exist for this owner.
	// Persisted chunks are owned by ChunkRepository and deleted separately.
	DeleteDocument(ctx context.Context, owner string, id core.ID) error

	// Close releases resources held by the repository.
	Close() error
}

// JobRepository provides operations for ingestion jobs and their chunk jobs.
// All operations are scoped to a single owner.
type JobRepository interface {
	// AddJob adds an ingestion job to storage. Generates a new ID from
	// sequence and sets CreatedAt/UpdatedAt. Returns the stored job.
	AddJob(ctx context.Context, job *core.IngestionJob) (*core.IngestionJob, error)

	// GetJob retrieves an ingestion job by ID.
	// Returns ErrNotFound if the job doesn't exist for this owner.
	GetJob(ctx context.Context, owner string, id core.ID) (*core.IngestionJob, error)

	// UpdateJob updates an existing job. Updates UpdatedAt automatically.
	// Returns ErrNotFound if the job doesn't exist for this owner.
	UpdateJob(ctx context.Context, job *core.IngestionJob) error

	// AddChunkJobs bulk-creates chunk jobs under their parent job.
	// Each chunk job is validated fail-closed before any write.
	AddChunkJobs(ctx context.Context, owner string, chunkJobs ...*core.ChunkJob) error

	// GetChunkJobs retrieves all chunk jobs of a job, ordered by index.
	GetChunkJobs(ctx context.Context, owner string, jobID core.ID) ([]*core.ChunkJob, error)

	// ClaimChunkJobs atomically claims up to limit queued chunk jobs,
	// transitioning them to ChunkJobEmbedding in a single transaction.
	// A concurrent claim on the same job fails with ErrClaimConflict; rows
	// already claimed, completed or errored are never returned.
	ClaimChunkJobs(ctx context.Context, owner string, jobID core.ID, limit int) ([]*core.ChunkJob, error)

	// ResolveChunkJob marks one chunk job terminal. With chunkErr empty the
	// job is marked completed and the parent's ProcessedChunks counter is
	// incremented in the same transaction; otherwise the chunk job is marked
	// errored with the detail. Returns the updated parent job.
	ResolveChunkJob(ctx context.Context, owner string, jobID core.ID, index int, chunkErr string) (*core.IngestionJob, error)

	// CountQueuedChunkJobs returns the number of chunk jobs still queued.
	CountQueuedChunkJobs(ctx context.Context, owner string, jobID core.ID) (int, error)

	// Close releases resources held by the repository.
	Close() error
}

// ChunkRepository provides operations for persisted, queryable chunks.
// All operations are scoped to a single owner.
type ChunkRepository interface {
	// AddChunk persists an embedded chunk. Generates a new ID from sequence
	// and sets CreatedAt. Chunks are immutable once written.
	AddChunk(ctx context.Context, chunk *core.Chunk) (*core.Chunk, error)

	// GetChunks retrieves all chunks of a document, ordered by index.
	GetChunks(ctx context.Context, owner string, documentID core.ID) ([]*core.Chunk, error)

	// CountChunks returns the number of persisted chunks for a document.
	CountChunks(ctx context.Context, owner string, documentID core.ID) (int, error)

	// DeleteChunks removes all chunks of a document.
	DeleteChunks(ctx context.Context, owner string, documentID core.ID) error

	// FindSimilar finds chunks similar to the given vector within one
	// owner's corpus. Returns chunks with similarity >= minSimilarity, up to
	// limit results, ordered by similarity score (highest first). An empty
	// result is a valid outcome, not an error.
	FindSimilar(ctx context.Context, owner string, vector []float32, minSimilarity float32, limit int) ([]*core.ScoredChunk, error)

	// Close releases resources held by the repository.
	Close() error
}

// BlobStore holds raw uploaded bytes addressed by opaque handles.
type BlobStore interface {
	// Put stores bytes and returns a handle for later retrieval.
	// Storing identical bytes twice returns the same handle.
	Put(ctx context.Context, data []byte) (core.BlobHandle, error)

	// Get retrieves the bytes for a handle.
	// Returns ErrNotFound for unknown handles.
	Get(ctx context.Context, handle core.BlobHandle) ([]byte, error)

	// Delete removes the bytes for a handle. Deleting an unknown handle is
	// not an error.
	Delete(ctx context.Context, handle core.BlobHandle) error
}
