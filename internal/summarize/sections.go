package summarize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

const (
	introductionTitle = "Introduction"
	maxSections       = 50
	maxKeyTerms       = 5
	maxHeadingRunes   = 80
)

var reNumberedHeading = regexp.MustCompile(`^((\d+\.)+\d*|\d+|(?i:article|section)\s+(?i:[ivxlc]+|\d+(\.\d+)*))[.:)]?\s+\p{Lu}`)

// isHeading reports whether a line reads as a section header. Headers are
// either all capitals or short capitalized titles (optionally numbered) with
// no closing punctuation.
func isHeading(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || len([]rune(line)) > maxHeadingRunes {
		return false
	}
	if strings.ContainsAny(line[len(line)-1:], ".;,") {
		return false
	}
	words := len(strings.Fields(line))
	letters, upper := 0, 0
	for _, r := range line {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsUpper(r) {
				upper++
			}
		}
	}
	switch {
	case letters > 1 && upper == letters:
		return true
	case words <= 8 && reNumberedHeading.MatchString(line):
		return true
	case words <= 5 && unicode.IsUpper([]rune(line)[0]):
		return true
	}
	return false
}

type section struct {
	title string
	body  []string
}

// splitSections groups paragraphs under the heading that precedes them. Text
// before the first heading falls under "Introduction". Sections with no body
// are dropped.
func splitSections(doc *preprocess.Document) []section {
	text := doc.Text()
	var out []section
	cur := section{title: introductionTitle}
	flush := func() {
		if len(cur.body) > 0 {
			out = append(out, cur)
		}
	}
	for _, p := range doc.Paragraphs() {
		para := text[p.Start:p.End]
		first, rest, _ := strings.Cut(para, "\n")
		if isHeading(first) {
			flush()
			cur = section{title: strings.Join(strings.Fields(first), " ")}
			para = rest
		}
		if strings.TrimSpace(para) != "" {
			cur.body = append(cur.body, para)
		}
	}
	flush()
	if len(out) > maxSections {
		out = out[:maxSections]
	}
	return out
}

// sectionSummaries runs the extractive ranking inside each section, keeping
// about a fifth of its sentences, and lists its most frequent content words.
func sectionSummaries(doc *preprocess.Document, ents entity.Entities, maxChars int) []entity.SectionSummary {
	out := []entity.SectionSummary{}
	for _, sec := range splitSections(doc) {
		sub := preprocess.Process(strings.Join(sec.body, "\n\n"))
		if sub.IsEmpty() {
			continue
		}
		n := max(1, sub.Len()/5)
		out = append(out, entity.SectionSummary{
			Title:    sec.title,
			Summary:  capAtSentence(extractive(sub, ents, n), maxChars),
			KeyTerms: keyTerms(sub),
		})
	}
	return out
}

// modalVerbs carry obligation, not topic; they never name a section.
var modalVerbs = map[string]struct{}{
	"shall": {}, "must": {}, "may": {}, "will": {}, "might": {}, "cannot": {},
}

// keyTerms returns the most frequent content words, ties broken alphabetically.
func keyTerms(doc *preprocess.Document) []entity.KeyTerm {
	freq := map[string]int{}
	for _, s := range doc.Sentences() {
		for _, w := range contentTerms(s) {
			if _, modal := modalVerbs[w]; modal {
				continue
			}
			freq[w]++
		}
	}
	out := make([]entity.KeyTerm, 0, len(freq))
	for w, n := range freq {
		out = append(out, entity.KeyTerm{Term: w, Frequency: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Term < out[j].Term
	})
	if len(out) > maxKeyTerms {
		out = out[:maxKeyTerms]
	}
	return out
}
