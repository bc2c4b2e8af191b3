package extract

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// extractPDF reads the text layer and falls back to OCR when the layer is
// missing or looks like garbage.
func (e *Extractor) extractPDF(ctx context.Context, data []byte) (Result, error) {
	var warns []string

	pages, err := pdfPageCount(data)
	if err != nil {
		// pdfcpu is strict; ledongthuc still gets a chance below
		warns = append(warns, err.Error())
	}

	text, n, err := e.pdfText(data)
	if err != nil {
		warns = append(warns, err.Error())
	}
	if pages == 0 {
		pages = n
	}

	q := assessQuality(text, pages)
	if !q.NeedsOCR() {
		return Result{Text: text, Pages: pages, Method: "pdf-text", Warnings: warns, Confidence: 1}, nil
	}
	e.logger.Info("extract.pdf.low_quality",
		"pages", pages,
		"chars", q.Chars,
		"printable_ratio", q.PrintableRatio,
		"chars_per_page", q.CharsPerPage,
	)

	if !e.cfg.EnableOCR {
		if q.Chars == 0 {
			return Result{Pages: pages, Warnings: warns}, fmt.Errorf("pdf has no text layer and OCR is disabled")
		}
		warns = append(warns, "low quality text layer; OCR disabled")
		return Result{Text: text, Pages: pages, Method: "pdf-text", Warnings: warns, Confidence: 0.5}, nil
	}

	ocrText, ocrPages, w, err := e.pdfToOCR(ctx, data)
	warns = append(warns, w...)
	if err != nil {
		if q.Chars > 0 {
			warns = append(warns, "ocr failed: "+err.Error())
			return Result{Text: text, Pages: pages, Method: "pdf-text", Warnings: warns, Confidence: 0.5}, nil
		}
		return Result{Pages: pages, Warnings: warns}, err
	}
	return Result{
		Text:       ocrText,
		Pages:      ocrPages,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(ocrText),
	}, nil
}

func pdfPageCount(data []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(data), conf)
	if err != nil {
		return 0, fmt.Errorf("pdfcpu read: %w", err)
	}
	return ctx.PageCount, nil
}

func (e *Extractor) pdfText(data []byte) (text string, pages int, err error) {
	defer func() {
		// ledongthuc panics on some malformed xref tables
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", 0, fmt.Errorf("open pdf: %w", err)
	}
	pages = r.NumPage()
	limit := pages
	if e.cfg.MaxPages > 0 && limit > e.cfg.MaxPages {
		limit = e.cfg.MaxPages
	}

	var b strings.Builder
	for i := 1; i <= limit; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		content, err := p.GetPlainText(nil)
		if err != nil {
			e.logger.Warn("extract.pdf.page_failed", "page", i, "error", err)
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(content)
	}
	return b.String(), pages, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, data []byte) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "la-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("extract.tmp.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return "", 0, nil, err
	}
	prefix := filepath.Join(tmpDir, "page")
	args := []string{"-r", fmt.Sprintf("%d", e.cfg.DPI), "-png"}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", fmt.Sprintf("%d", e.cfg.MaxPages))
	}
	// pdftoppm -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, append(args, in, prefix)...)
	if err != nil {
		return "", 0, []string{string(errb)}, fmt.Errorf("pdftoppm: %w", err)
	}

	// prefix-1.png, prefix-2.png, ...
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		if err := ctx.Err(); err != nil {
			return "", 0, warns, err
		}
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", len(matches), warns, fmt.Errorf("ocr produced no text")
	}
	return b.String(), len(matches), warns, nil
}
