package preprocess

import (
	"regexp"
	"unicode"
	"unicode/utf8"
)

var reToken = regexp.MustCompile(`\p{L}[\p{L}\p{M}'’\-]*\p{L}|\p{L}|\p{N}[\p{N}.,]*\p{N}|\p{N}|[^\s\p{L}\p{N}]`)

// Tokenize splits s into tokens; spans are shifted by offset.
func Tokenize(s string, offset int) []Token {
	idx := reToken.FindAllStringIndex(s, -1)
	out := make([]Token, 0, len(idx))
	for _, m := range idx {
		txt := s[m[0]:m[1]]
		r, _ := utf8.DecodeRuneInString(txt)
		kind := Punct
		switch {
		case unicode.IsLetter(r):
			kind = Word
		case unicode.IsNumber(r):
			kind = Number
		}
		out = append(out, Token{Text: txt, Kind: kind, Start: m[0] + offset, End: m[1] + offset})
	}
	return out
}
