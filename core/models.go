package core

import (
	"encoding/binary"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from byte content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(data []byte) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write(data)
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// BlobHandle identifies raw file bytes held by a blob store.
// Handles are opaque to everything except the store that issued them.
type BlobHandle string

// DocumentStatus tracks a document's progress through ingestion.
type DocumentStatus uint8

const (
	// DocumentPending means the document was accepted but ingestion has not started.
	DocumentPending DocumentStatus = iota + 1
	// DocumentProcessing means an ingestion job is actively working on the document.
	DocumentProcessing
	// DocumentReady means the document is fully embedded and searchable.
	DocumentReady
	// DocumentError means ingestion failed; Error holds the reason.
	DocumentError
)

func (s DocumentStatus) String() string {
	switch s {
	case DocumentPending:
		return "pending"
	case DocumentProcessing:
		return "processing"
	case DocumentReady:
		return "ready"
	case DocumentError:
		return "error"
	default:
		return "unknown"
	}
}

// JobStatus tracks an ingestion job through its state machine.
type JobStatus uint8

const (
	// JobQueued means the job exists but no invocation has picked it up yet.
	JobQueued JobStatus = iota + 1
	// JobParsing means text extraction and chunking are in progress.
	JobParsing
	// JobChunked means chunk jobs have been created but embedding has not started.
	JobChunked
	// JobEmbedding means chunk batches are being embedded across invocations.
	JobEmbedding
	// JobCompleted means every chunk was embedded and persisted.
	JobCompleted
	// JobError means the job failed; ErrorCode and LastError hold the reason.
	JobError
)

func (s JobStatus) String() string {
	switch s {
	case JobQueued:
		return "queued"
	case JobParsing:
		return "parsing"
	case JobChunked:
		return "chunked"
	case JobEmbedding:
		return "embedding"
	case JobCompleted:
		return "completed"
	case JobError:
		return "error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobError
}

// ChunkJobStatus tracks one chunk's embedding attempt.
type ChunkJobStatus uint8

const (
	// ChunkJobQueued means the chunk is waiting to be claimed by a batch.
	ChunkJobQueued ChunkJobStatus = iota + 1
	// ChunkJobEmbedding means the chunk has been claimed by an active batch.
	ChunkJobEmbedding
	// ChunkJobCompleted means the chunk was embedded and persisted.
	ChunkJobCompleted
	// ChunkJobError means embedding or persistence failed for this chunk.
	ChunkJobError
)

func (s ChunkJobStatus) String() string {
	switch s {
	case ChunkJobQueued:
		return "queued"
	case ChunkJobEmbedding:
		return "embedding"
	case ChunkJobCompleted:
		return "completed"
	case ChunkJobError:
		return "error"
	default:
		return "unknown"
	}
}

// ErrorCode classifies terminal job failures so an operator or UI can
// distinguish input problems from infrastructure problems.
type ErrorCode string

const (
	ErrCodeUnsupportedFormat ErrorCode = "unsupported_format"
	ErrCodeExtractionFailed  ErrorCode = "extraction_failed"
	ErrCodeDownloadFailed    ErrorCode = "download_failed"
	ErrCodeChunkInsertFailed ErrorCode = "chunk_insert_failed"
	ErrCodeEmbeddingFailed   ErrorCode = "embedding_failed"
)

// Document represents one uploaded file. Its status is driven solely by the
// ingestion job associated with it; re-ingestion creates a new Document.
type Document struct {
	Id        ID
	Owner     string
	Filename  string
	MimeType  string
	ByteSize  int64
	Status    DocumentStatus
	Error     string // failure reason, set only when Status == DocumentError
	Blob      BlobHandle
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IngestionJob tracks one document-ingestion attempt. It is mutated
// exclusively by the ingestion engine.
type IngestionJob struct {
	Id         ID
	DocumentId ID
	Owner      string
	Blob       BlobHandle
	Filename   string
	MimeType   string
	Status     JobStatus
	// TotalChunks is set once after chunking and never changes.
	TotalChunks int
	// ProcessedChunks counts successfully embedded chunks. It is monotonically
	// non-decreasing and never exceeds TotalChunks.
	ProcessedChunks int
	ErrorCode       ErrorCode
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChunkJob is the transient work item tracking one chunk's embedding attempt.
// Chunk jobs are created in bulk after chunking and transition independently.
type ChunkJob struct {
	Id         ID
	JobId      ID
	DocumentId ID
	Index      int // 0-based, unique within the parent job
	Content    string
	Status     ChunkJobStatus
	Error      string
}

// ChunkMetadata carries provenance for a persisted chunk.
type ChunkMetadata struct {
	Model     string
	Dimension int
	Filename  string
	MimeType  string
}

// Chunk is a persisted, embedded slice of a document's text: the unit of
// retrieval. Created exactly once per completed ChunkJob, never mutated,
// deleted only with its document.
type Chunk struct {
	Id         ID
	Owner      string
	DocumentId ID
	Index      int
	Content    string
	Vector     []float32
	Metadata   ChunkMetadata
	CreatedAt  time.Time
}

// ScoredChunk pairs a stored chunk with its similarity to a query vector.
type ScoredChunk struct {
	Chunk *Chunk
	Score float32
}

// RetrievedChunk is an ephemeral similarity-search hit. Not persisted.
type RetrievedChunk struct {
	ChunkId    ID
	DocumentId ID
	Filename   string
	Content    string
	Similarity float32
}

// Citation maps a 1-based source position inside a prompt back to the chunk
// it was built from. Positions follow retrieval order, not similarity rank.
// Lifetime is one chat turn.
type Citation struct {
	Position   int
	ChunkId    ID
	DocumentId ID
	Filename   string
	Similarity float32
}

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single conversation turn.
type Message struct {
	Role    Role
	Content string
}
