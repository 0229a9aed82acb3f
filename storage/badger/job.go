package badger

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/storage"
)

// JobRepository implements storage.JobRepository for BadgerDB.
//
// Batch claims rely on BadgerDB's SSI transactions: two invocations claiming
// the same chunk jobs both read and write the same keys, so the second
// committer aborts with badger.ErrConflict. That abort is surfaced as
// storage.ErrClaimConflict and is the mechanism that keeps a chunk job in at
// most one active batch.
type JobRepository struct {
	backend  *Backend
	idSeq    *badger.Sequence
	chunkSeq *badger.Sequence
}

var _ storage.JobRepository = (*JobRepository)(nil)

// NewJobRepository creates a new JobRepository.
func NewJobRepository(backend *Backend) (*JobRepository, error) {
	idSeq, err := backend.GetSequence(jobIDSeq)
	if err != nil {
		return nil, err
	}
	chunkSeq, err := backend.GetSequence(chunkJobIDSeq)
	if err != nil {
		idSeq.Release()
		return nil, err
	}

	return &JobRepository{
		backend:  backend,
		idSeq:    idSeq,
		chunkSeq: chunkSeq,
	}, nil
}

// Close releases the ID sequences.
func (r *JobRepository) Close() error {
	return errors.Join(r.idSeq.Release(), r.chunkSeq.Release())
}

// AddJob adds an ingestion job to storage.
func (r *JobRepository) AddJob(ctx context.Context, job *core.IngestionJob) (*core.IngestionJob, error) {
	if err := core.ValidateIngestionJob(job); err != nil {
		return nil, err
	}

	err := r.backend.WithTx(func(tx *badger.Txn) error {
		id, err := nextID(r.idSeq)
		if err != nil {
			return err
		}
		job.Id = id

		job.CreatedAt = time.Now().UTC()
		job.UpdatedAt = job.CreatedAt

		key := makeJobKey(job.Owner, job.Id)
		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return nil, err
	}
	return job, nil
}

// GetJob retrieves an ingestion job by ID.
func (r *JobRepository) GetJob(ctx context.Context, owner string, id core.ID) (*core.IngestionJob, error) {
	var result *core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readJob(tx, makeJobKey(owner, id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// UpdateJob updates an existing job.
func (r *JobRepository) UpdateJob(ctx context.Context, job *core.IngestionJob) error {
	if err := core.ValidateIngestionJob(job); err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeJobKey(job.Owner, job.Id)
		old, err := readJob(tx, key)
		if err != nil {
			return err
		}
		if old == nil {
			return storage.ErrNotFound
		}

		job.UpdatedAt = time.Now().UTC()

		if err := tx.Set(key, storage.MarshalJob(job)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// AddChunkJobs bulk-creates chunk jobs under their parent job.
func (r *JobRepository) AddChunkJobs(ctx context.Context, owner string, chunkJobs ...*core.ChunkJob) error {
	// Validate everything before the first write
	for _, cj := range chunkJobs {
		if err := core.ValidateChunkJob(cj); err != nil {
			return err
		}
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, cj := range chunkJobs {
			id, err := nextID(r.chunkSeq)
			if err != nil {
				return err
			}
			cj.Id = id

			key := makeChunkJobKey(owner, cj.JobId, cj.Index)
			if err := tx.Set(key, storage.MarshalChunkJob(cj)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// GetChunkJobs retrieves all chunk jobs of a job, ordered by index.
func (r *JobRepository) GetChunkJobs(ctx context.Context, owner string, jobID core.ID) ([]*core.ChunkJob, error) {
	var results []*core.ChunkJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkJobPrefix(owner, jobID)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			var cj *core.ChunkJob
			err := iter.Item().Value(func(val []byte) error {
				var err error
				cj, err = storage.UnmarshalChunkJob(val)
				return err
			})
			if err != nil {
				return err
			}
			results = append(results, cj)
		}
		return nil
	}, false)

	return results, err
}

// ClaimChunkJobs atomically claims up to limit queued chunk jobs.
func (r *JobRepository) ClaimChunkJobs(ctx context.Context, owner string, jobID core.ID, limit int) ([]*core.ChunkJob, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var claimed []*core.ChunkJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkJobPrefix(owner, jobID)

		// Collect queued rows first; the iterator must be closed before writes
		iter := tx.NewIterator(opts)
		for iter.Rewind(); iter.Valid() && len(claimed) < limit; iter.Next() {
			var cj *core.ChunkJob
			err := iter.Item().Value(func(val []byte) error {
				var err error
				cj, err = storage.UnmarshalChunkJob(val)
				return err
			})
			if err != nil {
				iter.Close()
				return err
			}
			if cj.Status == core.ChunkJobQueued {
				claimed = append(claimed, cj)
			}
		}
		iter.Close()

		for _, cj := range claimed {
			cj.Status = core.ChunkJobEmbedding
			key := makeChunkJobKey(owner, cj.JobId, cj.Index)
			if err := tx.Set(key, storage.MarshalChunkJob(cj)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return nil, storage.ErrClaimConflict
		}
		return nil, err
	}
	return claimed, nil
}

// ResolveChunkJob marks one chunk job terminal.
func (r *JobRepository) ResolveChunkJob(ctx context.Context, owner string, jobID core.ID, index int, chunkErr string) (*core.IngestionJob, error) {
	var job *core.IngestionJob
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		chunkKey := makeChunkJobKey(owner, jobID, index)
		cj, err := readChunkJob(tx, chunkKey)
		if err != nil {
			return err
		}
		if cj == nil {
			return storage.ErrNotFound
		}

		jobKey := makeJobKey(owner, jobID)
		job, err = readJob(tx, jobKey)
		if err != nil {
			return err
		}
		if job == nil {
			return storage.ErrNotFound
		}

		if chunkErr == "" {
			cj.Status = core.ChunkJobCompleted
			cj.Error = ""

			// ProcessedChunks advances together with the chunk job, so a
			// crash can never leave the counter out of step.
			job.ProcessedChunks++
			if job.ProcessedChunks > job.TotalChunks {
				return core.ErrChunkCountOverflow
			}
			job.UpdatedAt = time.Now().UTC()
			if err := tx.Set(jobKey, storage.MarshalJob(job)); err != nil {
				return err
			}
		} else {
			cj.Status = core.ChunkJobError
			cj.Error = chunkErr
		}

		if err := tx.Set(chunkKey, storage.MarshalChunkJob(cj)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		if errors.Is(err, badger.ErrConflict) {
			return nil, storage.ErrClaimConflict
		}
		return nil, err
	}
	return job, nil
}

// CountQueuedChunkJobs returns the number of chunk jobs still queued.
func (r *JobRepository) CountQueuedChunkJobs(ctx context.Context, owner string, jobID core.ID) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = makeChunkJobPrefix(owner, jobID)

		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			err := iter.Item().Value(func(val []byte) error {
				cj, err := storage.UnmarshalChunkJob(val)
				if err != nil {
					return err
				}
				if cj.Status == core.ChunkJobQueued {
					count++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	}, false)

	return count, err
}

// readJob reads an ingestion job from the transaction.
func readJob(tx *badger.Txn, key []byte) (*core.IngestionJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var job *core.IngestionJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		job, unmarshalErr = storage.UnmarshalJob(val)
		return unmarshalErr
	})
	return job, err
}

// readChunkJob reads a chunk job from the transaction.
func readChunkJob(tx *badger.Txn, key []byte) (*core.ChunkJob, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var cj *core.ChunkJob
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		cj, unmarshalErr = storage.UnmarshalChunkJob(val)
		return unmarshalErr
	})
	return cj, err
}
