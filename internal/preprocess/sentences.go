package preprocess

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// abbreviations never end a sentence. Keys are lowercase without the final dot.
var abbreviations = map[string]struct{}{
	"mr": {}, "mrs": {}, "ms": {}, "dr": {}, "prof": {}, "sr": {}, "jr": {}, "st": {},
	"inc": {}, "ltd": {}, "llc": {}, "llp": {}, "corp": {}, "co": {}, "plc": {}, "bros": {},
	"no": {}, "nos": {}, "sec": {}, "secs": {}, "art": {}, "para": {}, "cl": {}, "ch": {},
	"vs": {}, "v": {}, "etc": {}, "e.g": {}, "i.e": {}, "viz": {}, "cf": {}, "al": {},
	"jan": {}, "feb": {}, "mar": {}, "apr": {}, "jun": {}, "jul": {}, "aug": {},
	"sep": {}, "sept": {}, "oct": {}, "nov": {}, "dec": {},
	"approx": {}, "dept": {}, "est": {}, "fig": {}, "p": {}, "pp": {}, "u.s": {}, "u.k": {},
}

// reInitials matches dotted initialisms such as U.S.A or N.V.
var reInitials = regexp.MustCompile(`^(\p{L}\.)+\p{L}$`)

func isAbbreviation(word string) bool {
	w := strings.ToLower(strings.TrimLeft(word, `("'[`))
	if w == "" {
		return false
	}
	if _, ok := abbreviations[w]; ok {
		return true
	}
	if reInitials.MatchString(w) {
		return true
	}
	// single capital initial, e.g. "John A. Smith"
	return utf8.RuneCountInString(w) == 1 && unicode.IsLetter([]rune(w)[0])
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’', '»':
		return true
	}
	return false
}

func isSentenceStart(r rune) bool {
	if unicode.IsUpper(r) || unicode.IsDigit(r) {
		return true
	}
	switch r {
	case '"', '\'', '(', '[', '“', '‘', '«', '§':
		return true
	}
	return false
}

// splitSentences returns trimmed [start,end) spans inside text[ps:pe].
func splitSentences(text string, ps, pe int) [][2]int {
	var spans [][2]int
	start := ps
	emit := func(end int) {
		s, e := trimSpan(text, start, end)
		if s < e {
			spans = append(spans, [2]int{s, e})
		}
		start = end
	}

	i := ps
	for i < pe {
		r, n := utf8.DecodeRuneInString(text[i:])
		if r != '.' && r != '!' && r != '?' {
			i += n
			continue
		}
		end := i + n
		for end < pe {
			c, cn := utf8.DecodeRuneInString(text[end:])
			if c != '.' && c != '!' && c != '?' && !isCloser(c) {
				break
			}
			end += cn
		}
		if end >= pe {
			break
		}
		ws, _ := utf8.DecodeRuneInString(text[end:])
		if !unicode.IsSpace(ws) {
			i = end
			continue
		}
		next := end
		for next < pe {
			c, cn := utf8.DecodeRuneInString(text[next:])
			if !unicode.IsSpace(c) {
				break
			}
			next += cn
		}
		nr, _ := utf8.DecodeRuneInString(text[next:])
		if next >= pe || !isSentenceStart(nr) {
			i = end
			continue
		}
		if r == '.' {
			w := lastWord(text, start, i)
			if isAbbreviation(w) || isListNumber(text, start, i) {
				i = end
				continue
			}
		}
		emit(end)
		i = next
	}
	emit(pe)
	return spans
}

// lastWord returns the run of non-space characters ending right before the dot at i.
func lastWord(text string, start, i int) string {
	j := i
	for j > start {
		r, n := utf8.DecodeLastRuneInString(text[:j])
		if unicode.IsSpace(r) {
			break
		}
		j -= n
	}
	return text[j:i]
}

// isListNumber reports a leading enumerator such as "1." or "IV." that opens a sentence.
func isListNumber(text string, start, i int) bool {
	head := strings.TrimSpace(text[start:i])
	if head == "" || len(head) > 4 {
		return false
	}
	for _, r := range head {
		if !unicode.IsDigit(r) && !strings.ContainsRune("IVXivx", r) {
			return false
		}
	}
	return true
}
