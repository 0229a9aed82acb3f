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

package ingest

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/chunker"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/extract"
	"github.com/pellego/ragline/storage"
)

// defaultBatchSize is the number of chunk jobs embedded per invocation.
const defaultBatchSize = 8

// Engine drives documents through parse, chunk and embed stages. Each stage
// runs as one short dispatched invocation that re-dispatches its successor,
// so a large document is processed as a chain of small steps rather than one
// long-running task. Any invocation can resume a job from its stored status.
type Engine struct {
	documents  storage.DocumentRepository
	jobs       storage.JobRepository
	chunks     storage.ChunkRepository
	blobs      storage.BlobStore
	embedder   ai.Embedder
	chunker    *chunker.Chunker
	dispatcher Dispatcher
	batchSize  int
	modelName  string
	logger     *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine) error

// WithBatchSize sets the number of chunks embedded per invocation.
// Default is 8.
func WithBatchSize(size int) Option {
	return func(e *Engine) error {
		if size < 1 {
			size = 1
		}
		e.batchSize = size
		return nil
	}
}

// WithChunker sets a custom chunker.
// Default is chunker.Default().
func WithChunker(c *chunker.Chunker) Option {
	return func(e *Engine) error {
		if c != nil {
			e.chunker = c
		}
		return nil
	}
}

// WithDispatcher sets a custom dispatcher.
// Default is a worker pool sized to runtime.NumCPU() / 2.
func WithDispatcher(d Dispatcher) Option {
	return func(e *Engine) error {
		if d != nil {
			e.dispatcher.Release()
			e.dispatcher = d
		}
		return nil
	}
}

// WithModelName records the embedding model name in chunk metadata.
func WithModelName(name string) Option {
	return func(e *Engine) error {
		e.modelName = name
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger.With("component", "ingest")
		return nil
	}
}

// NewEngine creates a new ingestion engine.
func NewEngine(
	documents storage.DocumentRepository,
	jobs storage.JobRepository,
	chunks storage.ChunkRepository,
	blobs storage.BlobStore,
	embedder ai.Embedder,
	opts ...Option,
) (*Engine, error) {
	if documents == nil {
		return nil, ErrDocumentRepositoryRequired
	}
	if jobs == nil {
		return nil, ErrJobRepositoryRequired
	}
	if chunks == nil {
		return nil, ErrChunkRepositoryRequired
	}
	if blobs == nil {
		return nil, ErrBlobStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	dispatcher, err := NewPoolDispatcher(0)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		documents:  documents,
		jobs:       jobs,
		chunks:     chunks,
		blobs:      blobs,
		embedder:   embedder,
		chunker:    chunker.Default(),
		dispatcher: dispatcher,
		batchSize:  defaultBatchSize,
		logger:     slog.Default().With("component", "ingest"),
	}

	for _, opt := range opts {
		if optErr := opt(e); optErr != nil {
			e.Release()
			return nil, optErr
		}
	}

	return e, nil
}

// Release releases the dispatcher. The engine should not be used afterwards.
func (e *Engine) Release() {
	e.dispatcher.Release()
}

// Submit accepts an upload: it stores the raw bytes, creates the document and
// its ingestion job, and dispatches the first processing stage. The returned
// document starts out pending; ingestion proceeds asynchronously. An empty
// upload is valid and completes as a ready document with zero chunks.
func (e *Engine) Submit(ctx context.Context, owner string, data []byte, filename, mimeType string) (*core.Document, *core.IngestionJob, error) {
	handle, err := e.blobs.Put(ctx, data)
	if err != nil {
		return nil, nil, err
	}

	doc, err := e.documents.AddDocument(ctx, &core.Document{
		Owner:    owner,
		Filename: filename,
		MimeType: mimeType,
		ByteSize: int64(len(data)),
		Status:   core.DocumentPending,
		Blob:     handle,
	})
	if err != nil {
		return nil, nil, err
	}

	job, err := e.jobs.AddJob(ctx, &core.IngestionJob{
		DocumentId: doc.Id,
		Owner:      owner,
		Blob:       handle,
		Filename:   filename,
		MimeType:   mimeType,
		Status:     core.JobQueued,
	})
	if err != nil {
		return nil, nil, err
	}

	e.logger.Info("upload accepted",
		"owner", owner, "document", doc.Id, "job", job.Id, "bytes", len(data))

	e.dispatch(owner, job.Id)
	return doc, job, nil
}

// Run executes one stage of a job's state machine, then re-dispatches itself
// if more work remains. Running a terminal job is a no-op, so duplicate
// dispatches are harmless.
func (e *Engine) Run(ctx context.Context, owner string, jobID core.ID) error {
	job, err := e.jobs.GetJob(ctx, owner, jobID)
	if err != nil {
		return err
	}

	switch job.Status {
	case core.JobQueued, core.JobParsing:
		// JobParsing on entry means a previous invocation died mid-parse;
		// the stage is redone from the stored blob.
		return e.runParseStage(ctx, job)
	case core.JobChunked, core.JobEmbedding:
		return e.runEmbedStage(ctx, job)
	default:
		e.logger.Debug("job already terminal", "job", job.Id, "status", job.Status.String())
		return nil
	}
}

// runParseStage downloads the blob, extracts text, chunks it and creates the
// chunk jobs. A document that yields no chunks completes immediately.
func (e *Engine) runParseStage(ctx context.Context, job *core.IngestionJob) error {
	job.Status = core.JobParsing
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return err
	}
	if err := e.documents.SetDocumentStatus(ctx, job.Owner, job.DocumentId, core.DocumentProcessing, ""); err != nil {
		return err
	}

	data, err := e.blobs.Get(ctx, job.Blob)
	if err != nil {
		return e.failJob(ctx, job, core.ErrCodeDownloadFailed, err)
	}

	text, err := extract.Extract(data, job.MimeType)
	if err != nil {
		code := core.ErrCodeExtractionFailed
		if errors.Is(err, extract.ErrUnsupportedFormat) {
			code = core.ErrCodeUnsupportedFormat
		}
		return e.failJob(ctx, job, code, err)
	}

	pieces := e.chunker.Chunk(text)
	if len(pieces) == 0 {
		e.logger.Info("document yielded no chunks", "job", job.Id, "document", job.DocumentId)
		return e.completeJob(ctx, job)
	}

	chunkJobs := make([]*core.ChunkJob, len(pieces))
	for i, content := range pieces {
		chunkJobs[i] = &core.ChunkJob{
			JobId:      job.Id,
			DocumentId: job.DocumentId,
			Index:      i,
			Content:    content,
			Status:     core.ChunkJobQueued,
		}
	}
	if err := e.jobs.AddChunkJobs(ctx, job.Owner, chunkJobs...); err != nil {
		return e.failJob(ctx, job, core.ErrCodeChunkInsertFailed, err)
	}

	job.TotalChunks = len(pieces)
	job.Status = core.JobChunked
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return err
	}

	e.logger.Info("document chunked", "job", job.Id, "document", job.DocumentId, "chunks", len(pieces))

	e.dispatch(job.Owner, job.Id)
	return nil
}

// runEmbedStage claims one batch of queued chunk jobs, embeds it, persists
// the resulting chunks and re-dispatches until the job drains.
func (e *Engine) runEmbedStage(ctx context.Context, job *core.IngestionJob) error {
	if job.Status == core.JobChunked {
		job.Status = core.JobEmbedding
		if err := e.jobs.UpdateJob(ctx, job); err != nil {
			return err
		}
	}

	claimed, err := e.jobs.ClaimChunkJobs(ctx, job.Owner, job.Id, e.batchSize)
	if err != nil {
		if errors.Is(err, storage.ErrClaimConflict) {
			// Another invocation won the batch and will carry the job forward
			e.logger.Debug("batch claim lost", "job", job.Id)
			return nil
		}
		return err
	}

	if len(claimed) == 0 {
		if job.ProcessedChunks >= job.TotalChunks {
			return e.completeJob(ctx, job)
		}
		// Nothing queued but the job is not done: chunks were claimed by an
		// invocation that never resolved them. Left for operator inspection.
		e.logger.Warn("job stalled with unresolved chunks",
			"job", job.Id, "processed", job.ProcessedChunks, "total", job.TotalChunks)
		return nil
	}

	texts := make([]string, len(claimed))
	for i, cj := range claimed {
		texts[i] = cj.Content
	}

	vectors, err := e.embedder.EmbedTexts(ctx, texts)
	if err != nil {
		// Fail fast: the first chunk of the batch carries the detail
		if _, resolveErr := e.jobs.ResolveChunkJob(ctx, job.Owner, job.Id, claimed[0].Index, err.Error()); resolveErr != nil {
			e.logger.Error("error resolving failed chunk job", "job", job.Id, "err", resolveErr)
		}
		return e.failJob(ctx, job, core.ErrCodeEmbeddingFailed, err)
	}

	for i, cj := range claimed {
		_, err := e.chunks.AddChunk(ctx, &core.Chunk{
			Owner:      job.Owner,
			DocumentId: job.DocumentId,
			Index:      cj.Index,
			Content:    cj.Content,
			Vector:     core.NormalizeVector(vectors[i]),
			Metadata: core.ChunkMetadata{
				Model:     e.modelName,
				Dimension: len(vectors[i]),
				Filename:  job.Filename,
				MimeType:  job.MimeType,
			},
		})
		if err != nil {
			if _, resolveErr := e.jobs.ResolveChunkJob(ctx, job.Owner, job.Id, cj.Index, err.Error()); resolveErr != nil {
				e.logger.Error("error resolving failed chunk job", "job", job.Id, "err", resolveErr)
			}
			return e.failJob(ctx, job, core.ErrCodeChunkInsertFailed, err)
		}

		updated, err := e.jobs.ResolveChunkJob(ctx, job.Owner, job.Id, cj.Index, "")
		if err != nil {
			return err
		}
		job = updated
	}

	e.logger.Debug("batch embedded",
		"job", job.Id, "batch", len(claimed), "processed", job.ProcessedChunks, "total", job.TotalChunks)

	if job.ProcessedChunks >= job.TotalChunks {
		return e.completeJob(ctx, job)
	}

	e.dispatch(job.Owner, job.Id)
	return nil
}

// completeJob marks the job and its document fully processed.
func (e *Engine) completeJob(ctx context.Context, job *core.IngestionJob) error {
	job.Status = core.JobCompleted
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return err
	}
	if err := e.documents.SetDocumentStatus(ctx, job.Owner, job.DocumentId, core.DocumentReady, ""); err != nil {
		return err
	}

	e.logger.Info("ingestion completed",
		"job", job.Id, "document", job.DocumentId, "chunks", job.TotalChunks)
	return nil
}

// failJob marks the job and its document failed. The classification code is
// what operators and clients see; cause keeps the underlying detail.
func (e *Engine) failJob(ctx context.Context, job *core.IngestionJob, code core.ErrorCode, cause error) error {
	job.Status = core.JobError
	job.ErrorCode = code
	job.LastError = cause.Error()
	if err := e.jobs.UpdateJob(ctx, job); err != nil {
		return err
	}
	if err := e.documents.SetDocumentStatus(ctx, job.Owner, job.DocumentId, core.DocumentError, string(code)); err != nil {
		return err
	}

	e.logger.Error("ingestion failed",
		"job", job.Id, "document", job.DocumentId, "code", string(code), "err", cause)
	return nil
}

// dispatch schedules the next stage of a job. Stage errors surface through
// job status, so the dispatched task only logs them.
func (e *Engine) dispatch(owner string, jobID core.ID) {
	err := e.dispatcher.Dispatch(func() {
		if err := e.Run(context.Background(), owner, jobID); err != nil {
			e.logger.Error("error running ingestion stage", "job", jobID, "err", err)
		}
	})
	if err != nil {
		e.logger.Error("error dispatching ingestion stage", "job", jobID, "err", err)
	}
}
