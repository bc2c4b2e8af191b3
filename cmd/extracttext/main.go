package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/pipeline"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	timeout := flag.Duration("timeout", 2*time.Minute, "extraction timeout")
	normalized := flag.Bool("normalized", false, "print preprocessed text instead of raw extraction")
	flag.Parse()
	if flag.NArg() != 1 {
		logger.Error("usage", "cmd", "extracttext [-normalized] <file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	cfg := common.LoadConfig()
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	extractor := pipeline.NewExtractor(cfg.Extract, logger)
	start := time.Now()
	res, err := extractor.ExtractFile(ctx, path)
	dur := time.Since(start)
	if err != nil {
		logger.Error("text extraction failed", "path", path, "error", err, "duration_ms", dur.Milliseconds())
		os.Exit(1)
	}

	text := res.Text
	if *normalized {
		text = preprocess.Process(res.Text).Text()
	}
	fmt.Println(text)

	logger.Info("text extraction OK",
		"path", path,
		"source_type", res.SourceType,
		"method", res.Method,
		"pages", res.Pages,
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"bytes", len(res.Text),
		"duration_ms", dur.Milliseconds(),
	)
}
