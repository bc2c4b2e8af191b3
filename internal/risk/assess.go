package risk

import (
	"fmt"
	"math"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

const (
	maxComplianceSamples = 3
	balanceThreshold     = 0.3
)

var compliancePatterns = []struct {
	category string
	re       *regexp.Regexp
}{
	{"data_privacy", regexp.MustCompile(`(?i)\b(personal\s+data|privacy|gdpr|ccpa|hipaa|data\s+protection)\b`)},
	{"employment", regexp.MustCompile(`(?i)\b(employees?|employment|workers?|staff|personnel)\b`)},
	{"financial", regexp.MustCompile(`(?i)\b(financial|monetary|tax(es)?|revenue|audit)\b`)},
	{"environmental", regexp.MustCompile(`(?i)\b(environmental|sustainability|pollution|hazardous\s+waste)\b`)},
	{"health_safety", regexp.MustCompile(`(?i)\b(health|safety|hazards?|osha)\b`)},
	{"regulatory", regexp.MustCompile(`(?i)\b(regulations?|regulatory|compliance|applicable\s+laws?)\b`)},
}

var vagueTerms = []string{
	"reasonable", "substantial", "material", "appropriate", "satisfactory",
	"good faith", "fair", "promptly", "best efforts", "timely",
}

var reVague = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(vagueTerms))
	for _, t := range vagueTerms {
		m[t] = regexp.MustCompile(`(?i)\b` + strings.ReplaceAll(regexp.QuoteMeta(t), " ", `\s+`) + `\b`)
	}
	return m
}()

// essential elements of an enforceable agreement, in report order
var essentialElements = []struct {
	name string
	re   *regexp.Regexp
}{
	{"jurisdiction", regexp.MustCompile(`(?i)\b(jurisdiction|venue|governing\s+law)\b`)},
	{"severability", regexp.MustCompile(`(?i)\b(severab\w*|sever(ed)?|unenforceable)\b`)},
	{"consideration", regexp.MustCompile(`(?i)\b(consideration|in\s+exchange\s+for)\b`)},
	{"capacity", regexp.MustCompile(`(?i)\b(capacity|authority|authorized|power\s+to)\b`)},
	{"consent", regexp.MustCompile(`(?i)\b(consent|agrees?|agreed|accepts?|approve)\b`)},
}

// Compliance counts mentions per regulatory area with a few sample contexts.
func Compliance(text string) []entity.ComplianceRequirement {
	var out []entity.ComplianceRequirement
	for _, cp := range compliancePatterns {
		locs := cp.re.FindAllStringIndex(text, -1)
		if len(locs) == 0 {
			continue
		}
		req := entity.ComplianceRequirement{Category: cp.category, Instances: len(locs)}
		for i, l := range locs {
			if i >= maxComplianceSamples {
				break
			}
			req.Samples = append(req.Samples, window(text, l[0], l[1], 50))
		}
		out = append(out, req)
	}
	return out
}

// Assess computes the complexity, ambiguity and enforceability heuristics.
func Assess(text string) entity.Assessment {
	a := entity.Assessment{
		Complexity: math.Min(1, float64(utf8.RuneCountInString(text))/5000),
	}
	found := 0
	for _, t := range vagueTerms {
		if reVague[t].MatchString(text) {
			found++
		}
	}
	a.Ambiguity = math.Min(1, float64(found)/10)

	for _, el := range essentialElements {
		if !el.re.MatchString(text) {
			a.MissingClauses = append(a.MissingClauses, el.name)
		}
	}
	a.Enforceability = math.Max(0, 1-float64(len(a.MissingClauses))/float64(len(essentialElements)))
	a.Balance = Balance(text)
	return a
}

var clauseConcerns = []struct {
	re      *regexp.Regexp
	concern string
}{
	{regexp.MustCompile(`(?i)\b(unlimited|unrestricted)\b`), "overly broad or unlimited scope"},
	{regexp.MustCompile(`(?i)\b(perpetual|perpetuity|forever|indefinite(ly)?)\b`), "indefinite or excessive duration"},
	{regexp.MustCompile(`(?i)\b(all|any)\s+(\w+\s+){0,3}(damages|liabilit(y|ies))\b`), "extensive liability or damages"},
	{regexp.MustCompile(`(?i)\b(sole|absolute)\s+(\w+\s+){0,2}(discretion|right)\b`), "unilateral or absolute rights"},
	{regexp.MustCompile(`(?i)\b(warrants?|represents?|guarantees?)\b`), "strong warranties or representations"},
}

// Concerns lists the concerning wording found in a clause, in table order.
func Concerns(content string) []string {
	out := []string{}
	for _, cc := range clauseConcerns {
		if cc.re.MatchString(content) {
			out = append(out, cc.concern)
		}
	}
	return out
}

var (
	partyPatterns = [2]*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(company|employer|lessor|licensor|landlord|vendor|seller|disclosing\s+party)\b`),
		regexp.MustCompile(`(?i)\b(employee|contractor|lessee|licensee|tenant|customer|buyer|client|receiving\s+party|recipient)\b`),
	}
	reObligation = regexp.MustCompile(`(?i)\b(shall|must|required|obligations?|duty|duties)\b`)
	reRight      = regexp.MustCompile(`(?i)\b(may|entitled|rights?|options?|discretion)\b`)
)

// Balance attributes each sentence to the party named first in it and counts
// its obligation and right phrases. The score is the gap between the two
// sides' rights-per-obligation ratios, capped at 1.
func Balance(text string) entity.Balance {
	var sides [2]entity.PartyTerms
	for _, s := range preprocess.Process(text).Sentences() {
		side, at := -1, len(s.Text)
		for i, re := range partyPatterns {
			if loc := re.FindStringIndex(s.Text); loc != nil && loc[0] < at {
				side, at = i, loc[0]
			}
		}
		if side < 0 {
			continue
		}
		sides[side].Obligations += len(reObligation.FindAllStringIndex(s.Text, -1))
		sides[side].Rights += len(reRight.FindAllStringIndex(s.Text, -1))
	}
	ratio := func(p entity.PartyTerms) float64 {
		return float64(p.Rights) / float64(max(1, p.Obligations))
	}
	return entity.Balance{
		Score:       math.Min(1, math.Abs(ratio(sides[0])-ratio(sides[1]))),
		FirstParty:  sides[0],
		SecondParty: sides[1],
	}
}

// Recommend turns a report and the critical clauses into review advice. The
// order is stable: high-risk categories, clause concerns, compliance, then
// document-level heuristics.
func Recommend(rep Report, critical []entity.CriticalClause) []string {
	var out []string
	seen := map[string]struct{}{}
	add := func(s string) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}

	for _, f := range rep.Factors {
		if f.Severity == entity.SeverityHigh {
			add(fmt.Sprintf("Review %s provisions carefully: they contain high-risk elements", f.Type))
		}
	}
	for _, c := range critical {
		if len(c.Concerns) > 0 {
			add(fmt.Sprintf("Address concerns in %s: %s", c.Type, strings.Join(c.Concerns, ", ")))
		}
	}
	for _, req := range rep.Compliance {
		add(fmt.Sprintf("Ensure compliance with %s requirements", req.Category))
	}
	a := rep.Assessment
	if a.Complexity > 0.7 {
		add("Consider simplifying document language and structure")
	}
	if a.Ambiguity > 0.5 {
		add("Clarify ambiguous terms and provide specific definitions")
	}
	if a.Enforceability < 0.7 {
		add("Add missing essential clauses to improve enforceability: " + strings.Join(a.MissingClauses, ", "))
	}
	if a.Balance.Score > balanceThreshold {
		add("Review rights and obligations to ensure fair balance between parties")
	}
	return out
}
