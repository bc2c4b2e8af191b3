package extract

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

func (e *Extractor) extractImage(ctx context.Context, data []byte, ext string) (Result, error) {
	if !e.cfg.EnableOCR {
		return Result{}, fmt.Errorf("image documents need OCR, which is disabled")
	}
	f, err := os.CreateTemp("", "la-img-*."+ext)
	if err != nil {
		return Result{}, err
	}
	path := f.Name()
	defer func() { _ = os.Remove(path) }()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return Result{}, err
	}
	if err := f.Close(); err != nil {
		return Result{}, err
	}

	txt, warn, err := e.tesseractOCR(ctx, path)
	if err != nil {
		return Result{Warnings: warn}, err
	}
	if n := utf8.RuneCountInString(strings.TrimSpace(txt)); n < e.cfg.MinOCRChars {
		return Result{Warnings: warn}, fmt.Errorf("ocr recovered %d chars, need at least %d", n, e.cfg.MinOCRChars)
	}

	var ocrConf float32
	if e.cfg.EnableTSVConfidence {
		if c, err := e.tesseractTSVConfidence(ctx, path); err == nil {
			ocrConf = c
		} else {
			warn = append(warn, err.Error())
		}
	}
	conf := heuristicConfidence(txt)
	if ocrConf > 0 {
		conf = 0.7*ocrConf + 0.3*conf
	}
	if conf > 1.0 {
		conf = 1.0
	}

	return Result{
		Text:       txt,
		Pages:      1,
		Method:     "image-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warn,
		Confidence: conf,
	}, nil
}

func (e *Extractor) tesseractArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Extractor) tesseractOCR(ctx context.Context, path string) (string, []string, error) {
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.tesseractArgs(path)...)
	if err != nil {
		return "", []string{string(errb)}, fmt.Errorf("tesseract: %w", err)
	}
	return reBoxNoise.ReplaceAllString(string(out), ""), nil, nil
}

// tesseractTSVConfidence returns the mean word confidence in 0..1.
func (e *Extractor) tesseractTSVConfidence(ctx context.Context, path string) (float32, error) {
	out, _, err := e.runner.Run(ctx, e.cfg.Tesseract, append(e.tesseractArgs(path), "tsv")...)
	if err != nil {
		return 0, fmt.Errorf("tesseract TSV: %w", err)
	}
	var sum, n float64
	for i, ln := range strings.Split(string(out), "\n") {
		if i == 0 || ln == "" {
			continue
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		c := cols[len(cols)-1]
		if c == "" || c == "-1" {
			continue
		}
		if v, err := strconv.ParseFloat(c, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	return float32(sum / n / 100.0), nil
}

var (
	reLegalTerms = regexp.MustCompile(`\b(agreement|party|parties|shall|hereby|whereas|section|contract)\b`)
	reDateLike   = regexp.MustCompile(`\b\d{1,2}[/\-.]\d{1,2}[/\-.]\d{2,4}\b|\b(19|20)\d{2}\b`)
)

// heuristicConfidence scores OCR output by how much it looks like a contract.
func heuristicConfidence(txt string) float32 {
	l := strings.ToLower(txt)
	score := float32(0.2)
	if n := len(reLegalTerms.FindAllStringIndex(l, 5)); n > 0 {
		score += 0.1 * float32(n)
	}
	if reDateLike.MatchString(l) {
		score += 0.1
	}
	if len(txt) > 500 {
		score += 0.2
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
