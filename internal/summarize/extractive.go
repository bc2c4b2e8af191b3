package summarize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

var stopwords = map[string]struct{}{}

func init() {
	for _, w := range strings.Fields(`a about above after again against all also am an and any are as at be
		because been before being below between both but by can could did do does doing down during each
		few for from further had has have having he her here hers him his how i if in into is it its itself
		just me more most my no nor not of off on once only or other our ours out over own same she should
		so some such than that the their theirs them then there these they this those through to too under
		until up very was we were what when where which while who whom why with would you your yours`) {
		stopwords[w] = struct{}{}
	}
}

// Phrases that mark operative language; each hit adds 0.1, capped at 0.5.
var legalPhrases = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bagrees? to\b`),
	regexp.MustCompile(`(?i)\bshall\b`),
	regexp.MustCompile(`(?i)\bmust\b`),
	regexp.MustCompile(`(?i)\bwill\b`),
	regexp.MustCompile(`(?i)\brepresents and warrants\b`),
	regexp.MustCompile(`(?i)\bsubject to\b`),
	regexp.MustCompile(`(?i)\bin accordance with\b`),
	regexp.MustCompile(`(?i)\bnotwithstanding\b`),
	regexp.MustCompile(`(?i)\bhereby\b`),
	regexp.MustCompile(`(?i)\bpursuant to\b`),
}

func phraseScore(s string) float64 {
	score := 0.0
	for _, re := range legalPhrases {
		if re.MatchString(s) {
			score += 0.1
		}
	}
	return min(0.5, score)
}

func positionScore(i, n int) float64 {
	switch {
	case i == 0:
		return 0.3
	case i == n-1:
		return 0.2
	case float64(i) < float64(n)*0.1:
		return 0.1
	}
	return 0
}

// entityTerms lowercases every entity text for substring lookups.
func entityTerms(ents entity.Entities) []string {
	var out []string
	for _, list := range [][]string{ents.Organizations, ents.People, ents.Dates, ents.Money, ents.Locations} {
		for _, e := range list {
			if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
				out = append(out, e)
			}
		}
	}
	return out
}

func entityScore(lower string, terms []string) float64 {
	hits := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			hits++
		}
	}
	return min(0.3, float64(hits)*0.1)
}

func contentTerms(s preprocess.Sentence) []string {
	var out []string
	for _, t := range s.Words() {
		w := strings.ToLower(t.Text)
		if _, stop := stopwords[w]; stop || len([]rune(w)) < 3 {
			continue
		}
		out = append(out, w)
	}
	return out
}

// extractive picks the n most salient sentences of doc and returns them in
// document order.
func extractive(doc *preprocess.Document, ents entity.Entities, n int) string {
	sents := doc.Sentences()
	if len(sents) == 0 || n <= 0 {
		return ""
	}

	terms := make([][]string, len(sents))
	tf := map[string]int{}
	maxTF := 0
	for i, s := range sents {
		terms[i] = contentTerms(s)
		for _, w := range terms[i] {
			tf[w]++
			maxTF = max(maxTF, tf[w])
		}
	}

	entTerms := entityTerms(ents)
	scores := make([]float64, len(sents))
	for i, s := range sents {
		sal := 0.0
		if len(terms[i]) > 0 && maxTF > 0 {
			for _, w := range terms[i] {
				sal += float64(tf[w]) / float64(maxTF)
			}
			sal /= float64(len(terms[i]))
		}
		lower := strings.ToLower(s.Text)
		scores[i] = sal + positionScore(i, len(sents)) + phraseScore(s.Text) + entityScore(lower, entTerms)
	}

	idx := make([]int, len(sents))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return scores[idx[a]] > scores[idx[b]] })
	if len(idx) > n {
		idx = idx[:n]
	}
	sort.Ints(idx)

	parts := make([]string, len(idx))
	for i, j := range idx {
		parts[i] = sents[j].Text
	}
	return strings.Join(parts, " ")
}
