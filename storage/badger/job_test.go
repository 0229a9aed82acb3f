package badger

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/storage"
)

func addTestJob(t *testing.T, jobRepo storage.JobRepository, totalChunks int) *core.IngestionJob {
	t.Helper()

	job, err := jobRepo.AddJob(context.Background(), &core.IngestionJob{
		DocumentId:  1,
		Owner:       "alice",
		Filename:    "a.txt",
		MimeType:    "text/plain",
		Status:      core.JobQueued,
		TotalChunks: totalChunks,
	})
	if err != nil {
		t.Fatalf("Failed to add job: %v", err)
	}
	return job
}

func addTestChunkJobs(t *testing.T, jobRepo storage.JobRepository, job *core.IngestionJob, n int) {
	t.Helper()

	chunkJobs := make([]*core.ChunkJob, n)
	for i := range chunkJobs {
		chunkJobs[i] = &core.ChunkJob{
			JobId:      job.Id,
			DocumentId: job.DocumentId,
			Index:      i,
			Content:    fmt.Sprintf("chunk %d", i),
			Status:     core.ChunkJobQueued,
		}
	}
	if err := jobRepo.AddChunkJobs(context.Background(), job.Owner, chunkJobs...); err != nil {
		t.Fatalf("Failed to add chunk jobs: %v", err)
	}
}

func TestJobBasics(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 0)
	if job.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	retrieved, err := jobRepo.GetJob(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if retrieved.Status != core.JobQueued {
		t.Fatalf("Expected queued status, got %s", retrieved.Status)
	}

	retrieved.Status = core.JobParsing
	if err := jobRepo.UpdateJob(ctx, retrieved); err != nil {
		t.Fatalf("Failed to update job: %v", err)
	}
	retrieved, err = jobRepo.GetJob(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to get job: %v", err)
	}
	if retrieved.Status != core.JobParsing {
		t.Fatalf("Expected parsing status, got %s", retrieved.Status)
	}

	_, err = jobRepo.GetJob(ctx, "bob", job.Id)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound for wrong owner, got %v", err)
	}
}

func TestChunkJobsOrderedByIndex(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 5)
	addTestChunkJobs(t, jobRepo, job, 5)

	chunkJobs, err := jobRepo.GetChunkJobs(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk jobs: %v", err)
	}
	if len(chunkJobs) != 5 {
		t.Fatalf("Expected 5 chunk jobs, got %d", len(chunkJobs))
	}
	for i, cj := range chunkJobs {
		if cj.Index != i {
			t.Fatalf("Expected index %d at position %d, got %d", i, i, cj.Index)
		}
		if cj.Id == 0 {
			t.Fatal("Expected non-zero chunk job ID")
		}
	}
}

func TestClaimChunkJobs(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 10)
	addTestChunkJobs(t, jobRepo, job, 10)

	// First claim takes the batch size, lowest indexes first
	claimed, err := jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 8)
	if err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}
	if len(claimed) != 8 {
		t.Fatalf("Expected 8 claimed, got %d", len(claimed))
	}
	for i, cj := range claimed {
		if cj.Index != i {
			t.Fatalf("Expected index %d at position %d, got %d", i, i, cj.Index)
		}
		if cj.Status != core.ChunkJobEmbedding {
			t.Fatalf("Expected embedding status, got %s", cj.Status)
		}
	}

	// Second claim only sees the remainder
	claimed, err = jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 8)
	if err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("Expected 2 claimed, got %d", len(claimed))
	}

	// Third claim finds nothing; that is not an error
	claimed, err = jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 8)
	if err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}
	if len(claimed) != 0 {
		t.Fatalf("Expected 0 claimed, got %d", len(claimed))
	}
}

func TestClaimChunkJobsInvalidLimit(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	_, err = jobRepo.ClaimChunkJobs(context.Background(), "alice", 1, 0)
	if !errors.Is(err, storage.ErrInvalidQuery) {
		t.Fatalf("Expected ErrInvalidQuery, got %v", err)
	}
}

func TestResolveChunkJobSuccess(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 3)
	addTestChunkJobs(t, jobRepo, job, 3)

	if _, err := jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 3); err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}

	// Each successful resolve advances the parent's counter
	for i := 0; i < 3; i++ {
		updated, err := jobRepo.ResolveChunkJob(ctx, "alice", job.Id, i, "")
		if err != nil {
			t.Fatalf("Failed to resolve chunk job %d: %v", i, err)
		}
		if updated.ProcessedChunks != i+1 {
			t.Fatalf("Expected %d processed after resolve %d, got %d", i+1, i, updated.ProcessedChunks)
		}
	}

	chunkJobs, err := jobRepo.GetChunkJobs(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk jobs: %v", err)
	}
	for _, cj := range chunkJobs {
		if cj.Status != core.ChunkJobCompleted {
			t.Fatalf("Expected completed status for index %d, got %s", cj.Index, cj.Status)
		}
	}
}

func TestResolveChunkJobError(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 2)
	addTestChunkJobs(t, jobRepo, job, 2)

	if _, err := jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 2); err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}

	updated, err := jobRepo.ResolveChunkJob(ctx, "alice", job.Id, 0, "connection refused")
	if err != nil {
		t.Fatalf("Failed to resolve chunk job: %v", err)
	}
	// A failed chunk never advances the counter
	if updated.ProcessedChunks != 0 {
		t.Fatalf("Expected 0 processed, got %d", updated.ProcessedChunks)
	}

	chunkJobs, err := jobRepo.GetChunkJobs(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to get chunk jobs: %v", err)
	}
	if chunkJobs[0].Status != core.ChunkJobError || chunkJobs[0].Error != "connection refused" {
		t.Fatalf("Expected errored chunk job with detail, got %s / %q", chunkJobs[0].Status, chunkJobs[0].Error)
	}
}

func TestCountQueuedChunkJobs(t *testing.T) {
	docRepo, jobRepo, chunkRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { chunkRepo.Close(); jobRepo.Close(); docRepo.Close(); backend.Close() }()

	ctx := context.Background()

	job := addTestJob(t, jobRepo, 5)
	addTestChunkJobs(t, jobRepo, job, 5)

	count, err := jobRepo.CountQueuedChunkJobs(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to count queued chunk jobs: %v", err)
	}
	if count != 5 {
		t.Fatalf("Expected 5 queued, got %d", count)
	}

	if _, err := jobRepo.ClaimChunkJobs(ctx, "alice", job.Id, 2); err != nil {
		t.Fatalf("Failed to claim chunk jobs: %v", err)
	}

	count, err = jobRepo.CountQueuedChunkJobs(ctx, "alice", job.Id)
	if err != nil {
		t.Fatalf("Failed to count queued chunk jobs: %v", err)
	}
	if count != 3 {
		t.Fatalf("Expected 3 queued after claim, got %d", count)
	}
}
