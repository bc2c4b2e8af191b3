// Package classify guesses the document type from weighted phrase evidence.
package classify

import (
	"regexp"
	"sort"
	"strings"
)

const (
	Unknown        = "UNKNOWN"
	minScore       = 0.1
	perMatchScore  = 0.2
	maxAlternative = 2
)

type docType struct {
	name     string
	weight   float64
	patterns []*regexp.Regexp
}

func phrases(ps ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(ps))
	for i, p := range ps {
		out[i] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(p), " ", `\s+`) + `\b`)
	}
	return out
}

var types = []docType{
	{"EMPLOYMENT_AGREEMENT", 1.0, phrases("employment agreement", "employment contract", "work agreement",
		"labor contract", "compensation", "salary", "wages", "job duties", "work schedule", "employee", "employer")},
	{"NON_DISCLOSURE", 1.0, phrases("non-disclosure agreement", "confidentiality agreement", "confidential information",
		"trade secrets", "proprietary information", "confidentiality obligations")},
	{"SERVICE_AGREEMENT", 1.0, phrases("service agreement", "services agreement", "consulting agreement",
		"professional services", "statement of work", "service provider", "scope of services")},
	{"LEASE_AGREEMENT", 1.0, phrases("lease agreement", "rental agreement", "landlord", "tenant", "premises",
		"rent payment", "security deposit")},
	{"TERMS_AND_CONDITIONS", 0.8, phrases("terms and conditions", "terms of service", "terms of use",
		"user agreement", "acceptable use", "service terms")},
	{"PRIVACY_POLICY", 0.8, phrases("privacy policy", "data protection", "personal information", "data collection",
		"privacy rights", "data processing")},
	{"PURCHASE_AGREEMENT", 0.9, phrases("purchase agreement", "sales contract", "bill of sale", "purchase order",
		"buyer", "seller", "purchase price")},
}

type Alternative struct {
	Type  string  `json:"type"`
	Score float64 `json:"score"`
}

type Result struct {
	Type         string        `json:"type"`
	Confidence   float64       `json:"confidence"`
	Alternatives []Alternative `json:"alternatives,omitempty"`
}

type Classifier struct{}

func NewClassifier() *Classifier { return &Classifier{} }

// Classify scores every type as min(1, 0.2 * matches * weight). The best type
// above 0.1 wins; ties keep table order.
func (c *Classifier) Classify(text string) Result {
	scored := make([]Alternative, 0, len(types))
	for _, t := range types {
		n := 0
		for _, re := range t.patterns {
			n += len(re.FindAllStringIndex(text, -1))
		}
		s := perMatchScore * float64(n) * t.weight
		if s > 1 {
			s = 1
		}
		if s > minScore {
			scored = append(scored, Alternative{Type: t.name, Score: s})
		}
	}
	if len(scored) == 0 {
		return Result{Type: Unknown}
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	res := Result{Type: scored[0].Type, Confidence: scored[0].Score}
	for i := 1; i < len(scored) && i <= maxAlternative; i++ {
		res.Alternatives = append(res.Alternatives, scored[i])
	}
	return res
}
