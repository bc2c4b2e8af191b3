package entities

import (
	"regexp"
	"sort"
	"strings"
)

// Span is one recognized mention with a recognizer-native label (ORG, PERSON, ...).
type Span struct {
	Text  string
	Label string
	Start int
	End   int
}

// Recognizer finds entity mentions in text. Implementations must be safe for
// concurrent use.
type Recognizer interface {
	Recognize(text string) []Span
}

type rule struct {
	label string
	re    *regexp.Regexp
	group int // submatch holding the entity text; 0 = whole match
}

// RuleRecognizer is a regex and gazetteer recognizer tuned for contracts.
type RuleRecognizer struct {
	rules []rule
}

const (
	capWord    = `[A-Z][A-Za-z0-9&'\-]*`
	orgSuffix  = `(?:Inc|Incorporated|LLC|L\.L\.C|Ltd|Limited|Corp|Corporation|Company|Co|LLP|LP|PLC|GmbH|AG|S\.A|N\.V|B\.V|Pty|Holdings|Group|Partners|Bank|Trust|Foundation|Association|University)`
	monthNames = `(?:January|February|March|April|May|June|July|August|September|October|November|December|Jan|Feb|Mar|Apr|Jun|Jul|Aug|Sep|Sept|Oct|Nov|Dec)`
	personName = `[A-Z][a-z]+(?:\s+[A-Z]\.)?(?:\s+[A-Z][a-z]+(?:-[A-Z][a-z]+)?){1,2}`
)

// leadingNoise are capitalized sentence openers the ORG pattern tends to swallow.
var leadingNoise = []string{"The ", "This ", "That ", "Between ", "And ", "By ", "With ", "Whereas ", "WHEREAS ", "Each ", "For "}

// gazetteer of jurisdictions commonly named in governing-law and venue clauses.
var jurisdictions = []string{
	"Alabama", "Alaska", "Arizona", "Arkansas", "California", "Colorado", "Connecticut", "Delaware",
	"Florida", "Georgia", "Hawaii", "Idaho", "Illinois", "Indiana", "Iowa", "Kansas", "Kentucky",
	"Louisiana", "Maine", "Maryland", "Massachusetts", "Michigan", "Minnesota", "Mississippi",
	"Missouri", "Montana", "Nebraska", "Nevada", "New Hampshire", "New Jersey", "New Mexico",
	"New York", "North Carolina", "North Dakota", "Ohio", "Oklahoma", "Oregon", "Pennsylvania",
	"Rhode Island", "South Carolina", "South Dakota", "Tennessee", "Texas", "Utah", "Vermont",
	"Virginia", "Washington", "West Virginia", "Wisconsin", "Wyoming", "District of Columbia",
	"United States", "United States of America", "United Kingdom", "England and Wales", "England",
	"Scotland", "Ireland", "Canada", "Ontario", "Quebec", "British Columbia", "Australia",
	"New South Wales", "Germany", "France", "Spain", "Italy", "Netherlands", "Switzerland",
	"Singapore", "Hong Kong", "Japan", "China", "India", "Brazil", "Mexico", "Israel",
	"Luxembourg", "Sweden", "Norway", "Denmark", "Belgium", "Austria", "Nigeria", "South Africa",
	"London", "Paris", "Berlin", "Sydney", "Toronto", "Chicago", "Los Angeles", "San Francisco",
	"Boston", "Seattle", "Houston", "Dallas", "Miami", "Atlanta", "Wilmington", "New York City",
	"Cook County", "Santa Clara County", "New Castle County",
}

func gazetteerPattern(names []string) string {
	sorted := append([]string(nil), names...)
	// longest first so "New York City" beats "New York"
	sort.Slice(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })
	quoted := make([]string, len(sorted))
	for i, n := range sorted {
		quoted[i] = regexp.QuoteMeta(n)
	}
	return `\b(?:` + strings.Join(quoted, "|") + `)\b`
}

// NewRuleRecognizer compiles the default rule set.
func NewRuleRecognizer() *RuleRecognizer {
	return &RuleRecognizer{rules: []rule{
		{label: "ORG", re: regexp.MustCompile(`\b(?:` + capWord + `\s+){0,4}` + capWord + `,?\s+` + orgSuffix + `\b\.?`)},
		{label: "PERSON", re: regexp.MustCompile(`\b(?:Mr|Mrs|Ms|Miss|Dr|Prof|Hon)\.?\s+(` + personName + `|[A-Z][a-z]+)`), group: 1},
		{label: "PERSON", re: regexp.MustCompile(`(?m)\b(?:By|Name|Signed|Signature|Attn|Attention):[ \t]*(` + personName + `)`), group: 1},
		{label: "PERSON", re: regexp.MustCompile(`\b(` + personName + `),\s+(?:an individual|Chief Executive Officer|CEO|President|Director|Secretary|Manager)\b`), group: 1},
		{label: "DATE", re: regexp.MustCompile(`\b` + monthNames + `\.?\s+\d{1,2}(?:st|nd|rd|th)?,?\s+\d{4}\b`)},
		{label: "DATE", re: regexp.MustCompile(`\b\d{1,2}(?:st|nd|rd|th)?\s+(?:day\s+of\s+)?` + monthNames + `,?\s+\d{4}\b`)},
		{label: "DATE", re: regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b|\b\d{4}-\d{2}-\d{2}\b`)},
		{label: "MONEY", re: regexp.MustCompile(`[$€£¥]\s?\d[\d,]*(?:\.\d+)?(?:\s?(?:million|billion|thousand))?`)},
		{label: "MONEY", re: regexp.MustCompile(`\b(?:USD|EUR|GBP|CAD|AUD)\s?\d[\d,]*(?:\.\d+)?\b|\b\d[\d,]*(?:\.\d+)?\s?(?:USD|EUR|GBP|CAD|AUD|dollars|euros|pounds)\b`)},
		{label: "GPE", re: regexp.MustCompile(gazetteerPattern(jurisdictions))},
	}}
}

// Recognize returns non-overlapping spans in text order. On overlap the longer
// span wins; equal lengths keep the earlier rule.
func (r *RuleRecognizer) Recognize(text string) []Span {
	var spans []Span
	for _, ru := range r.rules {
		for _, m := range ru.re.FindAllStringSubmatchIndex(text, -1) {
			s, e := m[0], m[1]
			if ru.group > 0 && len(m) > 2*ru.group+1 && m[2*ru.group] >= 0 {
				s, e = m[2*ru.group], m[2*ru.group+1]
			}
			t := text[s:e]
			if ru.label == "ORG" {
				for _, p := range leadingNoise {
					if strings.HasPrefix(t, p) {
						t = t[len(p):]
						s += len(p)
					}
				}
			}
			t = strings.TrimRight(t, ",; ")
			if strings.TrimSpace(t) == "" {
				continue
			}
			spans = append(spans, Span{Text: t, Label: ru.label, Start: s, End: s + len(t)})
		}
	}
	sort.SliceStable(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End-spans[i].Start > spans[j].End-spans[j].Start
	})

	out := spans[:0]
	lastEnd := -1
	for _, sp := range spans {
		if sp.Start < lastEnd {
			prev := &out[len(out)-1]
			if sp.End-sp.Start > prev.End-prev.Start {
				*prev = sp
				lastEnd = sp.End
			}
			continue
		}
		out = append(out, sp)
		lastEnd = sp.End
	}
	return out
}
