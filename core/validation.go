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

package core

import "fmt"

// Validation fails closed: a record that does not satisfy every rule is
// rejected before any side effect, rather than patched up on the way in.

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Owner, Filename and MimeType must not be empty
//   - Status must be one of the defined DocumentStatus values
//
// NOT validated (populated by storage):
//   - ID (0 is valid from database sequences)
//   - Blob (set after the upload is persisted)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}
	if doc.Owner == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyOwner)
	}
	if doc.Filename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}
	if doc.MimeType == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyMimeType)
	}
	if err := ValidateDocumentStatus(doc.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return nil
}

// ValidateIngestionJob validates an IngestionJob according to domain rules.
//
// Validation rules:
//   - Owner must not be empty
//   - Status must be one of the defined JobStatus values
//   - ProcessedChunks must not exceed TotalChunks
func ValidateIngestionJob(job *IngestionJob) error {
	if job == nil {
		return fmt.Errorf("%w: job is nil", ErrInvalidJob)
	}
	if job.Owner == "" {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrEmptyOwner)
	}
	if err := ValidateJobStatus(job.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if job.ProcessedChunks > job.TotalChunks {
		return fmt.Errorf("%w: %w", ErrInvalidJob, ErrChunkCountOverflow)
	}
	return nil
}

// ValidateChunkJob validates a ChunkJob according to domain rules.
//
// Validation rules:
//   - Content must not be empty (empty chunks are dropped by the chunker)
//   - Index must not be negative
//   - Status must be one of the defined ChunkJobStatus values
func ValidateChunkJob(cj *ChunkJob) error {
	if cj == nil {
		return fmt.Errorf("%w: chunk job is nil", ErrInvalidChunkJob)
	}
	if cj.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunkJob, ErrEmptyContent)
	}
	if cj.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunkJob, ErrNegativeIndex)
	}
	if err := ValidateChunkJobStatus(cj.Status); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidChunkJob, err)
	}
	return nil
}

// ValidateChunk validates a persisted Chunk according to domain rules.
//
// Validation rules:
//   - Owner and Content must not be empty
//   - Index must not be negative
//   - Vector must not be empty (a chunk without an embedding is not queryable)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}
	if chunk.Owner == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyOwner)
	}
	if chunk.Content == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyContent)
	}
	if chunk.Index < 0 {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrNegativeIndex)
	}
	if len(chunk.Vector) == 0 {
		return fmt.Errorf("%w: embedding vector cannot be empty", ErrInvalidChunk)
	}
	return nil
}

// ValidateDocumentStatus validates that a DocumentStatus has a defined value.
func ValidateDocumentStatus(s DocumentStatus) error {
	if s < DocumentPending || s > DocumentError {
		return fmt.Errorf("%w: document status %d", ErrInvalidStatus, s)
	}
	return nil
}

// ValidateJobStatus validates that a JobStatus has a defined value.
func ValidateJobStatus(s JobStatus) error {
	if s < JobQueued || s > JobError {
		return fmt.Errorf("%w: job status %d", ErrInvalidStatus, s)
	}
	return nil
}

// ValidateChunkJobStatus validates that a ChunkJobStatus has a defined value.
func ValidateChunkJobStatus(s ChunkJobStatus) error {
	if s < ChunkJobQueued || s > ChunkJobError {
		return fmt.Errorf("%w: chunk job status %d", ErrInvalidStatus, s)
	}
	return nil
}
