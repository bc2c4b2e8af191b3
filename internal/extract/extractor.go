package extract

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
)

type Config struct {
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // rasterization DPI for scanned PDFs, default 300
	MaxPages      int // 0 = no limit

	EnableOCR           bool // allow OCR for images and text-less PDFs
	EnableTSVConfidence bool
	MinOCRChars         int // OCR output shorter than this is an extraction failure, default 10

	PSM int // e.g., 6 is good for uniform block of text
	OEM int // 1 = LSTM; leave 0 to use default
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

type Option func(*Extractor)

// WithRunner swaps the external command runner (tests use a fake).
func WithRunner(r Runner) Option {
	return func(e *Extractor) {
		if r != nil {
			e.runner = r
		}
	}
}

func NewExtractor(cfg Config, logger *slog.Logger, opts ...Option) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MinOCRChars <= 0 {
		cfg.MinOCRChars = 10
	}
	e := &Extractor{cfg: cfg, runner: execRunner{logger: logger}, logger: logger}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Extract picks a strategy based on the declared file type (an extension such
// as "pdf" or ".docx"). Every failure is an ExtractionError.
func (e *Extractor) Extract(ctx context.Context, data []byte, fileType string) (Result, error) {
	start := time.Now()
	ext := constants.NormalizeExt(fileType)
	format := constants.MapExtToFormat(ext)
	e.logger.Debug("extract.start", "ext", ext, "format", format, "bytes", len(data))

	if format == "" {
		e.logger.Error("extract.unsupported", "ext", ext)
		return Result{}, common.NewExtractionError(fmt.Sprintf("unsupported file type %q", ext), nil)
	}
	if len(data) == 0 {
		return Result{SourceType: format}, common.NewExtractionError("document is empty", nil)
	}

	var (
		res Result
		err error
	)
	switch format {
	case constants.TEXT:
		res = e.extractPlain(data)
	case constants.PDF:
		res, err = e.extractPDF(ctx, data)
	case constants.WORD:
		res, err = e.extractWord(data, ext)
	case constants.HTML:
		res, err = e.extractHTML(data)
	case constants.IMAGE:
		res, err = e.extractImage(ctx, data, ext)
	}
	res.SourceType = format
	res.Duration = time.Since(start)
	if err != nil {
		e.logger.Error("extract.failed", "format", format, "error", err, "elapsed_ms", res.Duration.Milliseconds())
		return res, common.NewExtractionError(fmt.Sprintf("%s extraction failed", strings.ToLower(format)), err)
	}

	res.Text = Normalize(res.Text)
	if res.Text == "" {
		e.logger.Warn("extract.empty", "format", format, "method", res.Method)
		return res, common.NewExtractionError("no text recovered", nil)
	}

	e.logger.Info("extract.ok",
		"format", format,
		"method", res.Method,
		"pages", res.Pages,
		"chars", utf8.RuneCountInString(res.Text),
		"confidence", res.Confidence,
		"warnings", len(res.Warnings),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// ExtractFile reads path and extracts it using its extension as the file type.
func (e *Extractor) ExtractFile(ctx context.Context, path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, common.NewExtractionError("read file", err)
	}
	return e.Extract(ctx, data, filepath.Ext(path))
}

func (e *Extractor) extractPlain(data []byte) Result {
	s := string(data)
	s = strings.TrimPrefix(s, "\uFEFF")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	return Result{Text: s, Pages: 1, Method: "plain", Confidence: 1}
}
