package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const blockSelectors = "p, div, li, tr, br, h1, h2, h3, h4, h5, h6, section, article, blockquote, pre"

func (e *Extractor) extractHTML(data []byte) (Result, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, noscript, template, head").Remove()
	// keep paragraph structure; Text() would otherwise glue blocks together
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	body := doc.Find("body")
	text := body.Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	return Result{Text: text, Pages: 1, Method: "html", Confidence: 1}, nil
}
