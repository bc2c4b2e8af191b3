package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/async"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/export"
	"github.com/joseph-ayodele/legal-analyzer/internal/ingest"
	"github.com/joseph-ayodele/legal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/legal-analyzer/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of documents to analyze (required)")
		out        = flag.String("out", "", "output XLSX path (defaults to <dir>/../analyses.xlsx)")
		jsonDir    = flag.String("json", "", "directory for per-document analysis JSON (optional)")
		skipHidden = flag.Bool("skip-hidden", true, "skip dot files and directories")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "analyses.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	store := repository.NewMemoryStore()
	processor, closer, err := pipeline.New(ctx, cfg, store, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer closer.Close()

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Queue.Workers),
		async.WithQueueSize(cfg.Queue.Size),
		async.WithProcessTimeout(cfg.Queue.JobTimeout),
	)
	ingestor := ingest.NewFSIngestor(store, queue, logger)

	logger.Info("starting ingestion", "dir", *dir)
	results, stats, err := ingestor.IngestDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("failed to ingest directory", "error", err)
	}
	logger.Info("ingestion complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"deduplicated", stats.Deduplicated)

	// Shutdown drains the queue unless interrupted.
	queue.Shutdown(ctx)

	docs, err := store.List(context.Background(), "", 0)
	if err != nil {
		logger.Error("failed to list documents", "error", err)
		os.Exit(1)
	}
	var completed, failed int
	for _, d := range docs {
		switch d.Status {
		case constants.StatusCompleted:
			completed++
			if *jsonDir != "" {
				if err := writeJSON(context.Background(), store, *jsonDir, d.ID, d.Title); err != nil {
					logger.Error("failed to write analysis json", "document_id", d.ID, "error", err)
				}
			}
		case constants.StatusFailed:
			failed++
			logger.Warn("document failed", "document_id", d.ID, "title", d.Title, "reason", d.Reason)
		}
	}

	logger.Info("exporting to XLSX", "output", *out)
	xlsx, err := export.NewService(store, logger).ExportXLSX(context.Background(), "")
	if err != nil {
		logger.Error("failed to export analyses", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	fmt.Printf("Batch analysis complete!\n")
	fmt.Printf("- Documents ingested: %d\n", len(results))
	fmt.Printf("- Completed: %d\n", completed)
	fmt.Printf("- Failed: %d\n", failed)
	fmt.Printf("- Output: %s\n", *out)
}

func writeJSON(ctx context.Context, store repository.DocumentStore, dir string, id uuid.UUID, title string) error {
	a, err := store.GetAnalysis(ctx, id)
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	name := strings.TrimSuffix(title, filepath.Ext(title)) + "." + id.String()[:8] + ".json"
	return os.WriteFile(filepath.Join(dir, name), raw, 0o644)
}
