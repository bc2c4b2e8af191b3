// Package preprocess turns normalized text into an immutable sequence of
// paragraphs, sentences and tokens shared by every analysis stage.
package preprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type TokenKind int

const (
	Word TokenKind = iota
	Number
	Punct
)

func (k TokenKind) String() string {
	switch k {
	case Word:
		return "word"
	case Number:
		return "number"
	default:
		return "punct"
	}
}

// Token is a word, number or punctuation mark with its byte span in the full text.
type Token struct {
	Text  string
	Kind  TokenKind
	Start int
	End   int
}

// Sentence carries its byte span into the full text; Text is whitespace-collapsed.
type Sentence struct {
	Index     int
	Paragraph int
	Start     int
	End       int
	Text      string
	Tokens    []Token
}

// Words returns the word tokens of s.
func (s Sentence) Words() []Token {
	out := make([]Token, 0, len(s.Tokens))
	for _, t := range s.Tokens {
		if t.Kind == Word {
			out = append(out, t)
		}
	}
	return out
}

type Paragraph struct {
	Index int
	Start int
	End   int
}

// Document is read-only after Process returns and safe for concurrent readers.
type Document struct {
	text       string
	paragraphs []Paragraph
	sentences  []Sentence
	words      int
}

func (d *Document) Text() string { return d.text }
func (d *Document) Len() int { return len(d.sentences) }
func (d *Document) Sentences() []Sentence { return d.sentences }
func (d *Document) Paragraphs() []Paragraph { return d.paragraphs }
func (d *Document) WordCount() int { return d.words }
func (d *Document) IsEmpty() bool { return len(d.sentences) == 0 }

// Sentence returns the i-th sentence.
func (d *Document) Sentence(i int) (Sentence, bool) {
	if i < 0 || i >= len(d.sentences) {
		return Sentence{}, false
	}
	return d.sentences[i], true
}

var reParaBreak = regexp.MustCompile(`\n[ \t]*\n\s*`)

// Process splits text into paragraphs and sentences. It is deterministic.
func Process(text string) *Document {
	d := &Document{text: text}
	if strings.TrimSpace(text) == "" {
		return d
	}

	start := 0
	bounds := reParaBreak.FindAllStringIndex(text, -1)
	bounds = append(bounds, []int{len(text), len(text)})
	for _, b := range bounds {
		ps, pe := trimSpan(text, start, b[0])
		start = b[1]
		if ps >= pe {
			continue
		}
		p := Paragraph{Index: len(d.paragraphs), Start: ps, End: pe}
		d.paragraphs = append(d.paragraphs, p)
		for _, span := range splitSentences(text, ps, pe) {
			s := Sentence{
				Index:     len(d.sentences),
				Paragraph: p.Index,
				Start:     span[0],
				End:       span[1],
				Text:      strings.Join(strings.Fields(text[span[0]:span[1]]), " "),
				Tokens:    Tokenize(text[span[0]:span[1]], span[0]),
			}
			for _, t := range s.Tokens {
				if t.Kind == Word {
					d.words++
				}
			}
			d.sentences = append(d.sentences, s)
		}
	}
	return d
}

func trimSpan(text string, s, e int) (int, int) {
	for s < e {
		r, n := utf8.DecodeRuneInString(text[s:])
		if !unicode.IsSpace(r) {
			break
		}
		s += n
	}
	for e > s {
		r, n := utf8.DecodeLastRuneInString(text[:e])
		if !unicode.IsSpace(r) {
			break
		}
		e -= n
	}
	return s, e
}
