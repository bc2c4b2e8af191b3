package extract

import (
	"context"
	"time"
)

// TextExtractor is the first pipeline stage: raw bytes + declared type -> text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, fileType string) (Result, error)
}

// Result is the outcome of one extraction.
type Result struct {
	Text       string
	Pages      int
	SourceType string // constants.TEXT | PDF | WORD | HTML | IMAGE
	Method     string // "plain" | "pdf-text" | "pdf-ocr" | "docconv" | "html" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32 // 1 for text layers, OCR estimate otherwise
}
