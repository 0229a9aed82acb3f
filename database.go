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

package ragline

import (
	"context"
	"log/slog"

	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/ai/openai"
	"github.com/pellego/ragline/chat"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/ingest"
	"github.com/pellego/ragline/prompt"
	"github.com/pellego/ragline/retrieve"
	"github.com/pellego/ragline/storage"
	"github.com/pellego/ragline/storage/badger"
)

// Database bundles the storage backend, its repositories and the AI provider
// behind one handle with a single lifecycle.
type Database struct {
	backend      *badger.Backend
	documentRepo storage.DocumentRepository
	jobRepo      storage.JobRepository
	chunkRepo    storage.ChunkRepository
	blobStore    storage.BlobStore
	provider     ai.Provider
	aiConfig     *ai.Config
	logger       *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	inMemory bool
}

// WithAIConfig sets the AI provider configuration.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithInMemory opens the storage backend in memory, without touching disk.
// Intended for tests and experiments; nothing survives Close.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

// NewDatabase opens the store at filePath and wires up repositories and the
// AI provider.
func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	documentRepo, err := badger.NewDocumentRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	jobRepo, err := badger.NewJobRepository(backend)
	if err != nil {
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	chunkRepo, err := badger.NewChunkRepository(backend)
	if err != nil {
		jobRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	blobStore := badger.NewBlobStore(backend)

	provider, err := openai.NewProvider(options.aiConfig)
	if err != nil {
		chunkRepo.Close()
		jobRepo.Close()
		documentRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:      backend,
		documentRepo: documentRepo,
		jobRepo:      jobRepo,
		chunkRepo:    chunkRepo,
		blobStore:    blobStore,
		provider:     provider,
		aiConfig:     options.aiConfig,
		logger:       slog.Default(),
	}, nil
}

// Close releases the provider, repositories and backend, in that order.
func (db *Database) Close() error {
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	if err := db.chunkRepo.Close(); err != nil {
		db.logger.Error("error closing chunk repository", "err", err)
		return err
	}
	if err := db.jobRepo.Close(); err != nil {
		db.logger.Error("error closing job repository", "err", err)
		return err
	}
	if err := db.documentRepo.Close(); err != nil {
		db.logger.Error("error closing document repository", "err", err)
		return err
	}

	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) DocumentRepository() storage.DocumentRepository {
	return db.documentRepo
}

func (db *Database) JobRepository() storage.JobRepository {
	return db.jobRepo
}

func (db *Database) ChunkRepository() storage.ChunkRepository {
	return db.chunkRepo
}

func (db *Database) BlobStore() storage.BlobStore {
	return db.blobStore
}

// NewIngestionEngine creates an ingestion engine wired to this database.
func (db *Database) NewIngestionEngine(opts ...ingest.Option) (*ingest.Engine, error) {
	opts = append([]ingest.Option{ingest.WithModelName(db.aiConfig.EmbeddingModel)}, opts...)
	return ingest.NewEngine(db.documentRepo, db.jobRepo, db.chunkRepo, db.blobStore,
		db.provider.Embedder(), opts...)
}

// NewResponder creates a chat responder wired to this database.
func (db *Database) NewResponder(opts ...chat.Option) (*chat.Responder, error) {
	retriever, err := retrieve.NewRetriever(db.chunkRepo, db.provider.Embedder())
	if err != nil {
		return nil, err
	}
	assembler, err := prompt.NewAssembler()
	if err != nil {
		return nil, err
	}
	return chat.NewResponder(retriever, assembler, db.provider.Generator(), opts...)
}

// DeleteDocument removes a document together with its persisted chunks.
// Blobs are content-addressed and may be shared between documents, so the
// raw bytes are left in place.
func (db *Database) DeleteDocument(ctx context.Context, owner string, id core.ID) error {
	if err := db.chunkRepo.DeleteChunks(ctx, owner, id); err != nil {
		return err
	}
	return db.documentRepo.DeleteDocument(ctx, owner, id)
}
