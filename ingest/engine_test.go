package ingest

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pellego/ragline/ai/mock"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/storage"
	"github.com/pellego/ragline/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testStores struct {
	documents storage.DocumentRepository
	jobs      storage.JobRepository
	chunks    storage.ChunkRepository
	blobs     storage.BlobStore
}

func newTestEngine(t *testing.T, embedder *mock.MockEmbedder, opts ...Option) (*Engine, *testStores) {
	t.Helper()

	docRepo, jobRepo, chunkRepo, backend, err := badger.NewMemoryRepositories()
	require.NoError(t, err)
	t.Cleanup(func() {
		chunkRepo.Close()
		jobRepo.Close()
		docRepo.Close()
		backend.Close()
	})

	blobs := badger.NewBlobStore(backend)

	// Synchronous dispatch makes the whole state machine run inside Submit
	opts = append([]Option{WithDispatcher(NewSyncDispatcher()), WithModelName("test-model")}, opts...)
	engine, err := NewEngine(docRepo, jobRepo, chunkRepo, blobs, embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(engine.Release)

	return engine, &testStores{
		documents: docRepo,
		jobs:      jobRepo,
		chunks:    chunkRepo,
		blobs:     blobs,
	}
}

func TestIngestTextDocument(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	// 3500 characters chunk into five windows of the default chunker
	data := []byte(strings.Repeat("a", 3500))

	doc, job, err := engine.Submit(ctx, "alice", data, "big.txt", "text/plain")
	require.NoError(t, err)

	gotDoc, err := stores.documents.GetDocument(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentReady, gotDoc.Status)
	assert.Empty(t, gotDoc.Error)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, gotJob.Status)
	assert.Equal(t, 5, gotJob.TotalChunks)
	assert.Equal(t, 5, gotJob.ProcessedChunks)

	chunks, err := stores.chunks.GetChunks(ctx, "alice", doc.Id)
	require.NoError(t, err)
	require.Len(t, chunks, 5)
	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Index)
		assert.NotEmpty(t, chunk.Content)
		assert.NotEmpty(t, chunk.Vector)
		assert.Equal(t, "test-model", chunk.Metadata.Model)
		assert.Equal(t, "big.txt", chunk.Metadata.Filename)
	}
}

func TestIngestSpansMultipleBatches(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	engine, stores := newTestEngine(t, embedder)
	ctx := context.Background()

	// 7000 characters chunk into nine windows: one full batch plus one more
	data := []byte(strings.Repeat("a", 7000))

	doc, job, err := engine.Submit(ctx, "alice", data, "big.txt", "text/plain")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, gotJob.Status)
	assert.Equal(t, 9, gotJob.TotalChunks)
	assert.Equal(t, 9, gotJob.ProcessedChunks)

	count, err := stores.chunks.CountChunks(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 9, count)
}

func TestIngestUnsupportedFormat(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	doc, job, err := engine.Submit(ctx, "alice", []byte("binary"), "report.docx",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobError, gotJob.Status)
	assert.Equal(t, core.ErrCodeUnsupportedFormat, gotJob.ErrorCode)
	assert.NotEmpty(t, gotJob.LastError)

	gotDoc, err := stores.documents.GetDocument(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentError, gotDoc.Status)
	assert.Equal(t, string(core.ErrCodeUnsupportedFormat), gotDoc.Error)

	// No chunks may exist for a failed document
	count, err := stores.chunks.CountChunks(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestIngestCorruptPDF(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	_, job, err := engine.Submit(ctx, "alice", []byte("not a pdf"), "broken.pdf", "application/pdf")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobError, gotJob.Status)
	assert.Equal(t, core.ErrCodeExtractionFailed, gotJob.ErrorCode)
}

func TestIngestEmbeddingFailureMidway(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	calls := 0
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		calls++
		if calls > 1 {
			return nil, errors.New("connection refused")
		}
		vectors := make([][]float32, len(texts))
		for i, text := range texts {
			vectors[i] = mock.DeterministicVector(text, 8)
		}
		return vectors, nil
	}

	engine, stores := newTestEngine(t, embedder)
	ctx := context.Background()

	// Nine chunks: the first batch of eight embeds, the second batch fails
	doc, job, err := engine.Submit(ctx, "alice", []byte(strings.Repeat("a", 7000)), "big.txt", "text/plain")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobError, gotJob.Status)
	assert.Equal(t, core.ErrCodeEmbeddingFailed, gotJob.ErrorCode)
	assert.Contains(t, gotJob.LastError, "connection refused")
	assert.Equal(t, 9, gotJob.TotalChunks)
	assert.Equal(t, 8, gotJob.ProcessedChunks)

	gotDoc, err := stores.documents.GetDocument(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentError, gotDoc.Status)

	// Chunks persisted before the failure remain
	count, err := stores.chunks.CountChunks(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 8, count)

	// The chunk job that carried the failure holds the detail
	chunkJobs, err := stores.jobs.GetChunkJobs(ctx, "alice", job.Id)
	require.NoError(t, err)
	require.Len(t, chunkJobs, 9)
	assert.Equal(t, core.ChunkJobError, chunkJobs[8].Status)
	assert.Contains(t, chunkJobs[8].Error, "connection refused")
}

func TestIngestEmptyTextCompletesImmediately(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	doc, job, err := engine.Submit(ctx, "alice", []byte("   \n\t   "), "blank.txt", "text/plain")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, gotJob.Status)
	assert.Zero(t, gotJob.TotalChunks)
	assert.Zero(t, gotJob.ProcessedChunks)

	gotDoc, err := stores.documents.GetDocument(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentReady, gotDoc.Status)
}

func TestIngestEmptyFileCompletesImmediately(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	doc, job, err := engine.Submit(ctx, "alice", nil, "empty.txt", "text/plain")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	assert.Equal(t, core.JobCompleted, gotJob.Status)
	assert.Zero(t, gotJob.TotalChunks)
	assert.Zero(t, gotJob.ProcessedChunks)

	gotDoc, err := stores.documents.GetDocument(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, core.DocumentReady, gotDoc.Status)
	assert.Zero(t, gotDoc.ByteSize)
}

func TestRunTerminalJobIsNoop(t *testing.T) {
	engine, stores := newTestEngine(t, mock.NewMockEmbedder())
	ctx := context.Background()

	doc, job, err := engine.Submit(ctx, "alice", []byte("short text"), "a.txt", "text/plain")
	require.NoError(t, err)

	gotJob, err := stores.jobs.GetJob(ctx, "alice", job.Id)
	require.NoError(t, err)
	require.Equal(t, core.JobCompleted, gotJob.Status)

	// A duplicate dispatch of a finished job must change nothing
	require.NoError(t, engine.Run(ctx, "alice", job.Id))

	count, err := stores.chunks.CountChunks(ctx, "alice", doc.Id)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
