// Copyright 2025 Poiesic Systems
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
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	docquery "github.com/poiesic/docquery"
	"github.com/poiesic/docquery/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "docquery",
		Usage: "Ask questions about documents with cited, confidence-scored answers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:     "db",
				Aliases:  []string{"d"},
				Usage:    "Path to BadgerDB database directory",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Model service host URL for all models",
				Value: "http://localhost:11434/v1",
			},
			&cli.StringFlag{
				Name:  "embedding-model",
				Usage: "Embedding model name",
			},
			&cli.StringFlag{
				Name:  "reranker-model",
				Usage: "Reranker model name",
			},
			&cli.StringFlag{
				Name:  "generator-model",
				Usage: "Generation model name",
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "ingest",
				Usage:  "Index a document from a text file",
				Action: ingestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Document identifier",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the document text file (form feeds separate pages)",
						Required: true,
					},
				},
			},
			{
				Name:      "ask",
				Usage:     "Ask a question about an indexed document",
				ArgsUsage: "QUESTION",
				Action:    askCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Document identifier",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "synthesize",
						Usage: "Answer through the generation model instead of extractively",
					},
					&cli.IntFlag{
						Name:  "max-hits",
						Usage: "Number of passages carried into answer assembly",
						Value: docquery.DefaultMaxHits,
					},
				},
			},
			{
				Name:   "summary",
				Usage:  "Show a summary of an indexed document",
				Action: summaryCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Document identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "optimize",
				Usage:  "Rebuild a document's index from stored chunks",
				Action: optimizeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Document identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "remove",
				Usage:  "Delete a document and all derived state",
				Action: removeCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "doc",
						Usage:    "Document identifier",
						Required: true,
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Show engine counters and storage sizes",
				Action: statsCommand,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func openEngine(c *cli.Context, extra ...docquery.EngineOption) (*docquery.Engine, error) {
	configOpts := []ai.ConfigOption{ai.WithHost(c.String("host"))}
	if model := c.String("embedding-model"); model != "" {
		configOpts = append(configOpts, ai.WithEmbeddingModel(model))
	}
	if model := c.String("reranker-model"); model != "" {
		configOpts = append(configOpts, ai.WithRerankerModel(model))
	}
	if model := c.String("generator-model"); model != "" {
		configOpts = append(configOpts, ai.WithGeneratorModel(model))
	}

	opts := append([]docquery.EngineOption{
		docquery.WithAIConfig(ai.NewConfig(configOpts...)),
	}, extra...)

	return docquery.New(c.String("db"), opts...)
}

func ingestCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	data, err := os.ReadFile(c.String("file"))
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	ctx := context.Background()
	documentID := c.String("doc")
	pages := strings.Split(string(data), "\f")

	result, err := engine.IndexPages(ctx, documentID, pages)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Indexed %q: %d chunks across %d pages in %s\n",
		result.DocumentID, result.ChunkCount, result.PageCount, result.Elapsed)
	return nil
}

func askCommand(c *cli.Context) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return fmt.Errorf("a question is required")
	}

	var extra []docquery.EngineOption
	if c.Bool("synthesize") {
		extra = append(extra, docquery.WithSynthesis())
	}
	extra = append(extra, docquery.WithMaxHits(c.Int("max-hits")))

	engine, err := openEngine(c, extra...)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	answer, err := engine.Ask(context.Background(), c.String("doc"), question)
	if err != nil {
		return fmt.Errorf("failed to answer: %w", err)
	}

	return printJSON(answer)
}

func summaryCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	summary, err := engine.Summary(context.Background(), c.String("doc"))
	if err != nil {
		return fmt.Errorf("failed to summarize: %w", err)
	}
	return printJSON(summary)
}

func optimizeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	documentID := c.String("doc")
	if err := engine.Optimize(context.Background(), documentID); err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Optimized %q\n", documentID)
	return nil
}

func removeCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	documentID := c.String("doc")
	if err := engine.RemoveDocument(context.Background(), documentID); err != nil {
		return fmt.Errorf("removal failed: %w", err)
	}
	fmt.Fprintf(os.Stderr, "Removed %q\n", documentID)
	return nil
}

func statsCommand(c *cli.Context) error {
	engine, err := openEngine(c)
	if err != nil {
		return fmt.Errorf("failed to open engine: %w", err)
	}
	defer engine.Close()

	stats := engine.Stats()
	return printJSON(stats)
}

func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
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
