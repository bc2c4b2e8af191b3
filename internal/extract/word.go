package extract

import (
	"bytes"
	"fmt"

	"code.sajari.com/docconv/v2"

	"github.com/joseph-ayodele/legal-analyzer/constants"
)

// extractWord handles docx/doc/odt/rtf through docconv.
func (e *Extractor) extractWord(data []byte, ext string) (Result, error) {
	mime := constants.WordMIMEType(ext)
	if mime == "" {
		return Result{}, fmt.Errorf("no converter for %q", ext)
	}
	resp, err := docconv.Convert(bytes.NewReader(data), mime, false)
	if err != nil {
		return Result{}, fmt.Errorf("docconv: %w", err)
	}
	return Result{Text: resp.Body, Pages: 1, Method: "docconv", Confidence: 1}, nil
}
