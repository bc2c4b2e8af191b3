package summarize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

const (
	keyPointThreshold = 0.5
	maxKeyPoints      = 10
)

var (
	reLegalRef = regexp.MustCompile(`(?i)\b(section|article|clause|paragraph)\b`)

	categoryRules = []struct {
		category string
		re       *regexp.Regexp
	}{
		{"OBLIGATION", regexp.MustCompile(`(?i)\b(shall|must|will|agrees?)\b`)},
		{"REPRESENTATION", regexp.MustCompile(`(?i)\b(represents?|warrants?|acknowledges?)\b`)},
		{"TERMINATION", regexp.MustCompile(`(?i)\b(terminat\w*|cancel\w*|end)\b`)},
		{"PAYMENT", regexp.MustCompile(`(?i)\b(pay|payment|payments|fees?|costs?)\b`)},
	}
)

// Importance scores how much a sentence carries operative content, in [0,1].
func Importance(s preprocess.Sentence, terms []string) float64 {
	score := phraseScore(s.Text) + entityScore(strings.ToLower(s.Text), terms)
	for _, t := range s.Tokens {
		if t.Kind == preprocess.Number {
			score += 0.1
			break
		}
	}
	if reLegalRef.MatchString(s.Text) {
		score += 0.1
	}
	return min(1, score)
}

// Categorize tags a key point. Obligation wins over the other categories.
func Categorize(text string) string {
	for _, r := range categoryRules {
		if r.re.MatchString(text) {
			return r.category
		}
	}
	return "GENERAL"
}

// keyPoints returns up to ten sentences scoring above the threshold, most important first.
func keyPoints(doc *preprocess.Document, ents entity.Entities) []entity.KeyPoint {
	terms := entityTerms(ents)
	out := []entity.KeyPoint{}
	for _, s := range doc.Sentences() {
		imp := Importance(s, terms)
		if imp <= keyPointThreshold {
			continue
		}
		out = append(out, entity.KeyPoint{Text: s.Text, Category: Categorize(s.Text), Importance: imp})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Importance > out[j].Importance })
	if len(out) > maxKeyPoints {
		out = out[:maxKeyPoints]
	}
	return out
}
