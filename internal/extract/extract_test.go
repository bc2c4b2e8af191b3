package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/common"
)

type fakeRunner struct {
	ocrText string
	pages   int
	calls   []string
	err     error
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	f.calls = append(f.calls, name)
	if f.err != nil {
		return nil, []byte("boom"), f.err
	}
	if name == "pdftoppm" {
		prefix := args[len(args)-1]
		for i := 1; i <= f.pages; i++ {
			_ = os.WriteFile(prefix+"-"+string(rune('0'+i))+".png", []byte("png"), 0o600)
		}
		return nil, nil, nil
	}
	return []byte(f.ocrText), nil, nil
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"spaces", "a  \t  b", "a b"},
		{"blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"nfkc ligature", "ﬁnal", "final"},
		{"control chars", "a\x00b\x07c", "abc"},
		{"trim", "  hello  \n", "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestExtractPlainText(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	res, err := e.Extract(context.Background(), []byte("\uFEFFThis Agreement  is made\r\nbetween the parties."), "txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Text != "This Agreement is made\nbetween the parties." {
		t.Errorf("text = %q", res.Text)
	}
	if res.SourceType != constants.TEXT || res.Method != "plain" {
		t.Errorf("source/method = %s/%s", res.SourceType, res.Method)
	}
}

func TestExtractErrors(t *testing.T) {
	e := NewExtractor(Config{}, nil)
	tests := []struct {
		name     string
		data     []byte
		fileType string
	}{
		{"unsupported", []byte("x"), "exe"},
		{"empty bytes", nil, "txt"},
		{"whitespace only", []byte(" \n\t "), "md"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Extract(context.Background(), tt.data, tt.fileType)
			if !errors.Is(err, common.ErrExtraction) {
				t.Fatalf("want ExtractionError, got %v", err)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	page := `<html><head><title>t</title><style>p{}</style></head><body>
<script>var x = 1;</script><h1>Services Agreement</h1><p>The Client shall pay.</p><p>Either party may terminate.</p></body></html>`
	e := NewExtractor(Config{}, nil)
	res, err := e.Extract(context.Background(), []byte(page), ".html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(res.Text, "var x") || strings.Contains(res.Text, "p{}") {
		t.Errorf("script/style leaked: %q", res.Text)
	}
	for _, want := range []string{"Services Agreement", "The Client shall pay.", "Either party may terminate."} {
		if !strings.Contains(res.Text, want) {
			t.Errorf("missing %q in %q", want, res.Text)
		}
	}
	if !strings.Contains(res.Text, "pay.\n\nEither") {
		t.Errorf("paragraphs not separated: %q", res.Text)
	}
}

func TestExtractImage(t *testing.T) {
	t.Run("ocr text", func(t *testing.T) {
		r := &fakeRunner{ocrText: "This Agreement is entered into by the parties.\n-----\n"}
		e := NewExtractor(Config{EnableOCR: true}, nil, WithRunner(r))
		res, err := e.Extract(context.Background(), []byte("img"), "png")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Text != "This Agreement is entered into by the parties." {
			t.Errorf("text = %q", res.Text)
		}
		if res.Method != "image-ocr" || res.Confidence <= 0 {
			t.Errorf("method=%s confidence=%v", res.Method, res.Confidence)
		}
	})
	t.Run("too little text", func(t *testing.T) {
		r := &fakeRunner{ocrText: "ab"}
		e := NewExtractor(Config{EnableOCR: true}, nil, WithRunner(r))
		if _, err := e.Extract(context.Background(), []byte("img"), "jpg"); !errors.Is(err, common.ErrExtraction) {
			t.Fatalf("want ExtractionError, got %v", err)
		}
	})
	t.Run("ocr disabled", func(t *testing.T) {
		e := NewExtractor(Config{EnableOCR: false}, nil, WithRunner(&fakeRunner{}))
		if _, err := e.Extract(context.Background(), []byte("img"), "tiff"); !errors.Is(err, common.ErrExtraction) {
			t.Fatalf("want ExtractionError, got %v", err)
		}
	})
}

func TestExtractPDFFallsBackToOCR(t *testing.T) {
	r := &fakeRunner{ocrText: "Scanned page text of the lease agreement.", pages: 2}
	e := NewExtractor(Config{EnableOCR: true}, nil, WithRunner(r))
	res, err := e.Extract(context.Background(), []byte("%PDF-1.4 not really a pdf"), "pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Method != "pdf-ocr" || res.Pages != 2 {
		t.Errorf("method=%s pages=%d", res.Method, res.Pages)
	}
	if r.calls[0] != "pdftoppm" {
		t.Errorf("first call = %s", r.calls[0])
	}
	if strings.Count(res.Text, "Scanned page") != 2 {
		t.Errorf("text = %q", res.Text)
	}
}

func TestAssessQuality(t *testing.T) {
	if !assessQuality("", 1).NeedsOCR() {
		t.Error("empty text should need OCR")
	}
	if !assessQuality("short", 3).NeedsOCR() {
		t.Error("sparse pages should need OCR")
	}
	long := strings.Repeat("The parties agree to the terms below. ", 10)
	if assessQuality(long, 1).NeedsOCR() {
		t.Error("dense clean text should not need OCR")
	}
	if !assessQuality(strings.Repeat("\x01\x02\x03", 100), 1).NeedsOCR() {
		t.Error("control garbage should need OCR")
	}
}

func TestExecRunnerMissingHelper(t *testing.T) {
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	_, _, err := r.Run(context.Background(), "legal-analyzer-no-such-helper")
	if !errors.Is(err, common.ErrExtraction) {
		t.Fatalf("err = %v, want ErrExtraction", err)
	}
}
