package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/legal-analyzer/internal/common"
	"github.com/joseph-ayodele/legal-analyzer/internal/extract"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

// ExtractStage loads a document's bytes and turns them into a preprocessed
// document. Every error it returns is fatal for the run.
type ExtractStage struct {
	Store         Store
	TextExtractor extract.TextExtractor
	Logger        *slog.Logger
}

func NewExtractStage(store Store, tx extract.TextExtractor, logger *slog.Logger) *ExtractStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractStage{Store: store, TextExtractor: tx, Logger: logger}
}

func (s *ExtractStage) Run(ctx context.Context, id uuid.UUID) (*preprocess.Document, extract.Result, error) {
	data, fileType, err := s.Store.GetRawBytes(ctx, id)
	if err != nil {
		return nil, extract.Result{}, fmt.Errorf("get raw bytes: %w", err)
	}

	res, err := s.TextExtractor.Extract(ctx, data, fileType)
	if err != nil {
		return nil, res, err
	}

	doc := preprocess.Process(res.Text)
	if doc.IsEmpty() {
		return nil, res, common.NewExtractionError("no sentences in extracted text", nil)
	}
	common.LoggerFrom(ctx, s.Logger).Debug("pipeline.extract.ok",
		"document_id", id,
		"method", res.Method,
		"pages", res.Pages,
		"sentences", doc.Len(),
		"words", doc.WordCount(),
	)
	return doc, res, nil
}
