package extract

import (
	"unicode"
	"unicode/utf8"
)

const (
	// MinPrintableRatio below this the text layer is treated as garbage.
	MinPrintableRatio = 0.85
	// MinCharsPerPage below this a PDF page is treated as scanned.
	MinCharsPerPage = 50
)

type textQuality struct {
	Chars          int
	PrintableRatio float64
	CharsPerPage   float64
}

func assessQuality(text string, pages int) textQuality {
	q := textQuality{Chars: utf8.RuneCountInString(text)}
	if q.Chars == 0 {
		return q
	}
	printable := 0
	for _, r := range text {
		if r == utf8.RuneError {
			continue
		}
		if unicode.IsPrint(r) || unicode.IsSpace(r) {
			printable++
		}
	}
	q.PrintableRatio = float64(printable) / float64(q.Chars)
	if pages < 1 {
		pages = 1
	}
	q.CharsPerPage = float64(q.Chars) / float64(pages)
	return q
}

func (q textQuality) NeedsOCR() bool {
	return q.Chars == 0 || q.PrintableRatio < MinPrintableRatio || q.CharsPerPage < MinCharsPerPage
}
