// Package stats computes word counts and Flesch-Kincaid readability.
package stats

import (
	"strings"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

const DefaultWPM = 200.0

type Computer struct {
	wpm float64
}

func NewComputer(wpm float64) *Computer {
	if wpm <= 0 {
		wpm = DefaultWPM
	}
	return &Computer{wpm: wpm}
}

// Compute never fails; an empty document yields zero statistics.
func (c *Computer) Compute(doc *preprocess.Document) entity.Statistics {
	var words, syllables int
	for _, s := range doc.Sentences() {
		for _, t := range s.Tokens {
			if t.Kind != preprocess.Word {
				continue
			}
			words++
			syllables += Syllables(t.Text)
		}
	}
	st := entity.Statistics{
		WordCount:     words,
		SentenceCount: doc.Len(),
		ReadingTime:   float64(words) / c.wpm,
	}
	if words > 0 && st.SentenceCount > 0 {
		st.ReadingLevel = 0.39*float64(words)/float64(st.SentenceCount) +
			11.8*float64(syllables)/float64(words) - 15.59
	}
	return st
}

func isVowel(r rune) bool {
	return strings.ContainsRune("aeiouy", r)
}

// Syllables estimates English syllables by counting vowel groups.
func Syllables(word string) int {
	w := strings.ToLower(strings.Trim(word, "'’-"))
	if w == "" {
		return 0
	}
	rs := []rune(w)
	n := 0
	prev := false
	for _, r := range rs {
		v := isVowel(r)
		if v && !prev {
			n++
		}
		prev = v
	}
	// silent trailing e, but keep "-le" as in "table"
	if len(rs) > 2 && rs[len(rs)-1] == 'e' && !isVowel(rs[len(rs)-2]) &&
		!(rs[len(rs)-2] == 'l' && !isVowel(rs[len(rs)-3])) {
		n--
	}
	if strings.HasSuffix(w, "ed") && len(rs) > 3 && !strings.HasSuffix(w, "ted") && !strings.HasSuffix(w, "ded") {
		n--
	}
	if n < 1 {
		n = 1
	}
	return n
}
