package summarize

import (
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

// chunkUnits packs units, in order, into chunks of at most max runes joined by sep.
// A unit longer than max is split at word boundaries first.
func chunkUnits(units []string, max int, sep string) []string {
	var out []string
	var cur strings.Builder
	curLen := 0
	sepLen := utf8.RuneCountInString(sep)
	flush := func() {
		if curLen > 0 {
			out = append(out, cur.String())
			cur.Reset()
			curLen = 0
		}
	}
	for _, u := range units {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		pieces := []string{u}
		if utf8.RuneCountInString(u) > max {
			pieces = splitLong(u, max)
		}
		for _, p := range pieces {
			n := utf8.RuneCountInString(p)
			if curLen > 0 && curLen+sepLen+n > max {
				flush()
			}
			if curLen > 0 {
				cur.WriteString(sep)
				curLen += sepLen
			}
			cur.WriteString(p)
			curLen += n
		}
	}
	flush()
	return out
}

// splitLong cuts s into pieces of at most max runes, preferring word boundaries.
func splitLong(s string, max int) []string {
	var out []string
	for utf8.RuneCountInString(s) > max {
		cut := byteOffset(s, max)
		if sp := strings.LastIndexAny(s[:cut], " \n\t"); sp > 0 {
			cut = sp
		}
		out = append(out, strings.TrimSpace(s[:cut]))
		s = strings.TrimSpace(s[cut:])
	}
	if s != "" {
		out = append(out, s)
	}
	return out
}

// byteOffset returns the byte index of the n-th rune of s.
func byteOffset(s string, n int) int {
	i := 0
	for pos := range s {
		if i == n {
			return pos
		}
		i++
	}
	return len(s)
}

// sentenceChunks groups the sentences of doc into chunks of at most max runes.
func sentenceChunks(doc *preprocess.Document, max int) []string {
	units := make([]string, 0, doc.Len())
	for _, s := range doc.Sentences() {
		units = append(units, s.Text)
	}
	return chunkUnits(units, max, " ")
}

// capAtSentence bounds s to max runes, dropping whole trailing sentences. A
// single sentence longer than max is cut at the last word boundary.
func capAtSentence(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	var b strings.Builder
	n := 0
	for _, sent := range preprocess.Process(s).Sentences() {
		l := utf8.RuneCountInString(sent.Text)
		extra := l
		if n > 0 {
			extra++
		}
		if n+extra > max {
			break
		}
		if n > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(sent.Text)
		n += extra
	}
	if n > 0 {
		return b.String()
	}
	return splitLong(s, max)[0]
}
