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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pellego/ragline"
	"github.com/pellego/ragline/ai"
	"github.com/pellego/ragline/chat"
	"github.com/pellego/ragline/core"
	"github.com/pellego/ragline/ingest"
	"github.com/urfave/cli/v2"
)

func main() {
	aiFlags := []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: "embeddinggemma",
		},
		&cli.StringFlag{
			Name:  "generation-host",
			Usage: "Generation service host URL",
			Value: "http://localhost:11434/v1",
		},
		&cli.StringFlag{
			Name:  "generation-model",
			Usage: "Generation model name",
			Value: "qwen2.5:3b",
		},
		&cli.IntFlag{
			Name:  "dimension",
			Usage: "Embedding vector dimension",
			Value: 384,
		},
	}

	dbFlag := &cli.StringFlag{
		Name:     "db",
		Aliases:  []string{"d"},
		Usage:    "Path to BadgerDB database directory",
		Required: true,
	}

	ownerFlag := &cli.StringFlag{
		Name:    "owner",
		Aliases: []string{"o"},
		Usage:   "Owner whose documents are accessed",
		Value:   "default",
	}

	app := &cli.App{
		Name:  "ragline",
		Usage: "Document ingestion and grounded question answering",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:      "ingest",
				Usage:     "Ingest a file into the document index",
				ArgsUsage: "FILE",
				Action:    ingestCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					ownerFlag,
					&cli.StringFlag{
						Name:  "mime",
						Usage: "MIME type of the file (inferred from the extension if omitted)",
					},
				}, aiFlags...),
			},
			{
				Name:      "status",
				Usage:     "Show the ingestion status of a job",
				ArgsUsage: "JOB_ID",
				Action:    statusCommand,
				Flags:     append([]cli.Flag{dbFlag, ownerFlag}, aiFlags...),
			},
			{
				Name:   "documents",
				Usage:  "List an owner's documents",
				Action: documentsCommand,
				Flags:  append([]cli.Flag{dbFlag, ownerFlag}, aiFlags...),
			},
			{
				Name:      "delete",
				Usage:     "Delete a document and its indexed chunks",
				ArgsUsage: "DOCUMENT_ID",
				Action:    deleteCommand,
				Flags:     append([]cli.Flag{dbFlag, ownerFlag}, aiFlags...),
			},
			{
				Name:      "ask",
				Usage:     "Ask a question grounded in the indexed documents",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: append([]cli.Flag{
					dbFlag,
					ownerFlag,
					&cli.IntFlag{
						Name:  "top-k",
						Usage: "Maximum number of source chunks to retrieve",
						Value: 5,
					},
					&cli.Float64Flag{
						Name:  "min-similarity",
						Usage: "Similarity threshold for retrieved chunks",
						Value: 0.6,
					},
				}, aiFlags...),
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openDatabase opens the database with AI settings taken from flags.
func openDatabase(c *cli.Context) (*ragline.Database, error) {
	aiConfig := ai.NewConfig(
		ai.WithEmbeddingHost(c.String("embedding-host")),
		ai.WithEmbeddingModel(c.String("embedding-model")),
		ai.WithGenerationHost(c.String("generation-host")),
		ai.WithGenerationModel(c.String("generation-model")),
		ai.WithEmbeddingDimension(c.Int("dimension")),
	)
	if err := aiConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}

	db, err := ragline.NewDatabase(c.String("db"), ragline.WithAIConfig(aiConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func ingestCommand(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("expected exactly one file argument")
	}
	path := c.Args().First()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	mimeType := c.String("mime")
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
	}
	if mimeType == "" {
		return fmt.Errorf("could not infer MIME type for %s; use --mime", path)
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Synchronous dispatch: the command finishes the whole job before exit
	engine, err := db.NewIngestionEngine(ingest.WithDispatcher(ingest.NewSyncDispatcher()))
	if err != nil {
		return fmt.Errorf("failed to create ingestion engine: %w", err)
	}
	defer engine.Release()

	ctx := context.Background()
	owner := c.String("owner")

	doc, job, err := engine.Submit(ctx, owner, data, filepath.Base(path), mimeType)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	final, err := db.JobRepository().GetJob(ctx, owner, job.Id)
	if err != nil {
		return err
	}

	fmt.Printf("document: %d\n", doc.Id)
	fmt.Printf("job:      %d\n", final.Id)
	fmt.Printf("status:   %s\n", final.Status)
	fmt.Printf("chunks:   %d/%d\n", final.ProcessedChunks, final.TotalChunks)
	if final.Status == core.JobError {
		fmt.Printf("error:    %s (%s)\n", final.ErrorCode, final.LastError)
	}
	return nil
}

func statusCommand(c *cli.Context) error {
	jobID, err := parseID(c, "job")
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	owner := c.String("owner")

	job, err := db.JobRepository().GetJob(ctx, owner, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	fmt.Printf("job:      %d\n", job.Id)
	fmt.Printf("document: %d (%s)\n", job.DocumentId, job.Filename)
	fmt.Printf("status:   %s\n", job.Status)
	fmt.Printf("chunks:   %d/%d\n", job.ProcessedChunks, job.TotalChunks)
	if job.ErrorCode != "" {
		fmt.Printf("error:    %s (%s)\n", job.ErrorCode, job.LastError)
	}
	return nil
}

func documentsCommand(c *cli.Context) error {
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	docs, err := db.DocumentRepository().ListDocuments(context.Background(), c.String("owner"))
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if len(docs) == 0 {
		fmt.Println("no documents")
		return nil
	}

	for _, doc := range docs {
		line := fmt.Sprintf("%d\t%s\t%s\t%d bytes", doc.Id, doc.Status, doc.Filename, doc.ByteSize)
		if doc.Status == core.DocumentError {
			line += "\t" + doc.Error
		}
		fmt.Println(line)
	}
	return nil
}

func deleteCommand(c *cli.Context) error {
	docID, err := parseID(c, "document")
	if err != nil {
		return err
	}

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.DeleteDocument(context.Background(), c.String("owner"), docID); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	fmt.Printf("deleted document %d\n", docID)
	return nil
}

func askCommand(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("expected a question argument")
	}
	question := strings.Join(c.Args().Slice(), " ")

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	responder, err := db.NewResponder(
		chat.WithTopK(c.Int("top-k")),
		chat.WithMinSimilarity(float32(c.Float64("min-similarity"))),
	)
	if err != nil {
		return fmt.Errorf("failed to create responder: %w", err)
	}

	history := []core.Message{{Role: core.RoleUser, Content: question}}

	answer, err := responder.Answer(context.Background(), c.String("owner"), history, func(token string) error {
		fmt.Print(token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("chat turn failed: %w", err)
	}
	fmt.Println()

	if answer.Truncated {
		fmt.Println("\n[answer truncated at the token limit]")
	}
	if len(answer.Citations) > 0 {
		fmt.Println("\nsources:")
		for _, citation := range answer.Citations {
			fmt.Printf("  [S%d] %s (chunk %d, similarity %.2f)\n",
				citation.Position, citation.Filename, citation.ChunkId, citation.Similarity)
		}
	}
	return nil
}

// parseID reads the single positional argument as a numeric ID.
func parseID(c *cli.Context, what string) (core.ID, error) {
	if c.NArg() != 1 {
		return 0, fmt.Errorf("expected exactly one %s ID argument", what)
	}
	raw, err := strconv.ParseUint(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s ID %q", what, c.Args().First())
	}
	return core.ID(raw), nil
}

func setupLogger(c *cli.Context) error {
	levelStr := strings.ToLower(c.String("log-level"))

	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
