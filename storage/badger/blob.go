package badger

import (
	"context"
	"encoding/hex"

	"github.com/dgraph-io/badger/v4"
	"github.com/go-crypt/x/blake2b"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/storage"
)

// blobHandleSize is the BLAKE2b digest length used for blob handles.
const blobHandleSize = 16

// BlobStore implements storage.BlobStore for BadgerDB.
//
// Handles are content-addressed: the handle is the hex BLAKE2b digest of the
// stored bytes, so storing the same upload twice is a no-op.
type BlobStore struct {
	backend *Backend
}

var _ storage.BlobStore = (*BlobStore)(nil)

// NewBlobStore creates a new BlobStore.
func NewBlobStore(backend *Backend) *BlobStore {
	return &BlobStore{backend: backend}
}

// Put stores bytes and returns their content-addressed handle.
func (s *BlobStore) Put(ctx context.Context, data []byte) (core.BlobHandle, error) {
	handle := handleFor(data)

	err := s.backend.WithTx(func(tx *badger.Txn) error {
		key := makeBlobKey(handle)

		// Identical content is already stored under the same handle
		if _, err := tx.Get(key); err == nil {
			return nil
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := tx.Set(key, data); err != nil {
			return err
		}
		return tx.Commit()
	}, true)

	if err != nil {
		return "", err
	}
	return handle, nil
}

// Get retrieves the bytes for a handle.
func (s *BlobStore) Get(ctx context.Context, handle core.BlobHandle) ([]byte, error) {
	var data []byte
	err := s.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeBlobKey(handle))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	}, false)

	if err != nil {
		return nil, err
	}
	return data, nil
}

// Delete removes the bytes for a handle.
func (s *BlobStore) Delete(ctx context.Context, handle core.BlobHandle) error {
	return s.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeBlobKey(handle)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// handleFor computes the content-addressed handle for a byte slice.
func handleFor(data []byte) core.BlobHandle {
	h, _ := blake2b.New(blobHandleSize, nil)
	h.Write(data)
	return core.BlobHandle(hex.EncodeToString(h.Sum(nil)))
}
