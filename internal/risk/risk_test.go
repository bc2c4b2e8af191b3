package risk

import (
	"context"
	"math"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

func score(t *testing.T, s *Scorer, text string) Report {
	t.Helper()
	rep, err := s.Score(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return rep
}

func TestScoreIndemnifyAndHoldHarmless(t *testing.T) {
	rep := score(t, NewScorer(nil, Options{}, nil), "The Party shall indemnify and hold harmless the Company from any third-party demands.")
	if len(rep.Factors) != 1 {
		t.Fatalf("factors = %+v, want exactly one", rep.Factors)
	}
	f := rep.Factors[0]
	if f.Type != "indemnification" || f.Severity != entity.SeverityHigh {
		t.Errorf("factor = %s/%s", f.Type, f.Severity)
	}
	if !strings.Contains(strings.ToLower(f.PatternMatched), "indemnify and hold harmless") {
		t.Errorf("pattern_matched = %q", f.PatternMatched)
	}
	if !strings.Contains(f.Context, "The Party shall") {
		t.Errorf("context = %q", f.Context)
	}
	if math.Abs(rep.OverallScore-0.2) > 1e-9 {
		t.Errorf("overall = %v, want 0.2", rep.OverallScore)
	}
}

func TestScoreCollapsesOverlapsToLongest(t *testing.T) {
	rep := score(t, NewScorer(nil, Options{}, nil), "Vendor will defend, indemnify and hold harmless Customer.")
	var got []string
	for _, f := range rep.Factors {
		if f.Type == "indemnification" {
			got = append(got, f.PatternMatched)
		}
	}
	if len(got) != 1 || got[0] != "indemnify and hold harmless" {
		t.Fatalf("indemnification matches = %q", got)
	}
}

func TestScoreLiabilityIgnoresIndemnity(t *testing.T) {
	rep := score(t, NewScorer(nil, Options{}, nil), "Vendor shall indemnify Client. Vendor shall hold harmless Client.")
	for _, f := range rep.Factors {
		if strings.Contains(f.Type, "liability") {
			t.Errorf("unexpected %s match %q", f.Type, f.PatternMatched)
		}
	}
}

func TestScoreCapCountsAllMatches(t *testing.T) {
	text := strings.Repeat("Any breach is serious. ", 7)
	rep := score(t, NewScorer(nil, Options{}, nil), text)
	if len(rep.Factors) != DefaultMaxPerCategory {
		t.Errorf("factors = %d, want %d", len(rep.Factors), DefaultMaxPerCategory)
	}
	if rep.Matches != 7 {
		t.Errorf("matches = %d, want 7", rep.Matches)
	}
	if rep.OverallScore != 1 {
		t.Errorf("overall = %v, want 1 (saturated)", rep.OverallScore)
	}
	for i := 1; i < len(rep.Factors); i++ {
		if rep.Factors[i].Context == "" {
			t.Errorf("factor %d has no context", i)
		}
	}
}

func TestScoreMonotonic(t *testing.T) {
	s := NewScorer(nil, Options{}, nil)
	phrases := []string{
		"The venue is Dallas.",
		"Use reasonable care.",
		"This is confidential.",
		"Licensee may assign this agreement.",
		"Late fees apply.",
		"Either party may terminate for convenience.",
		"Litigation is costly.",
	}
	prev := 0.0
	var b strings.Builder
	for _, p := range phrases {
		b.WriteString(p + " ")
		got := score(t, s, b.String()).OverallScore
		if got < prev {
			t.Fatalf("score dropped from %v to %v after %q", prev, got, p)
		}
		prev = got
	}
	if prev <= 0 {
		t.Fatal("score never increased")
	}
}

func TestScoreSeverityIsCategoryFunction(t *testing.T) {
	reg := DefaultRegistry()
	text := "In no event shall Vendor be liable. Breach of this confidential agreement results in penalties. " +
		"Company may act in its sole discretion. This Agreement renews automatically. The seller may assign it."
	rep := score(t, NewScorer(reg, Options{}, nil), text)
	if len(rep.Factors) == 0 {
		t.Fatal("no factors")
	}
	for _, f := range rep.Factors {
		want, ok := reg.SeverityOf(f.Type)
		if !ok || f.Severity != want {
			t.Errorf("%s: severity %s, registry says %s", f.Type, f.Severity, want)
		}
	}
}

func TestWindowRespectsRuneBoundaries(t *testing.T) {
	text := strings.Repeat("é", 150) + "breach" + strings.Repeat("ü", 150)
	start := strings.Index(text, "breach")
	w := window(text, start, start+len("breach"), 100)
	if !utf8.ValidString(w) {
		t.Fatalf("window is not valid UTF-8")
	}
	if n := utf8.RuneCountInString(w); n != 206 {
		t.Errorf("window runes = %d, want 206", n)
	}
}

func TestParseRulesOverrideSeverity(t *testing.T) {
	reg, err := ParseRules([]byte(`
risks:
  - category: governing_law
    severity: medium
    description: Choice of law
    patterns: ['\bgoverning\s+law\b']
  - category: audit_rights
    severity: low
    description: Audit access
    patterns: ['\baudit\b']
`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sev, _ := reg.SeverityOf("governing_law"); sev != entity.SeverityMedium {
		t.Errorf("governing_law severity = %s", sev)
	}
	rep := score(t, NewScorer(reg, Options{}, nil), "The governing law is Texas. Client may audit Vendor.")
	if math.Abs(rep.OverallScore-(0.5+0.2)/5) > 1e-9 {
		t.Errorf("overall = %v", rep.OverallScore)
	}
	if _, err := ParseRules([]byte("risks:\n  - category: x\n    severity: extreme\n    patterns: ['x']\n")); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestAssessAndRecommend(t *testing.T) {
	bare := Assess("Hello world.")
	if bare.Enforceability != 0 || len(bare.MissingClauses) != 5 {
		t.Errorf("bare assessment = %+v", bare)
	}
	full := Assess("The parties agree, in consideration of the fees, that each has authority to sign. " +
		"Any provision held unenforceable shall be severed. The courts of Ohio have jurisdiction.")
	if full.Enforceability != 1 || len(full.MissingClauses) != 0 {
		t.Errorf("full assessment = %+v", full)
	}
	if long := Assess(strings.Repeat("x", 10000)); long.Complexity != 1 {
		t.Errorf("complexity = %v", long.Complexity)
	}

	s := NewScorer(nil, Options{}, nil)
	rep := score(t, s, "Vendor shall indemnify Client under GDPR rules.")
	critical := s.CriticalClauses([]entity.Clause{{Type: "liability_clause", Content: "Vendor accepts unlimited liability for all damages."}})
	recs := Recommend(rep, critical)
	want := []string{
		"Review indemnification provisions carefully: they contain high-risk elements",
		"Address concerns in liability_clause: overly broad or unlimited scope, extensive liability or damages",
		"Ensure compliance with data_privacy requirements",
	}
	for i, w := range want {
		if i >= len(recs) || recs[i] != w {
			t.Fatalf("recommendations = %q\nwant prefix %q", recs, want)
		}
	}
	last := recs[len(recs)-1]
	if !strings.HasPrefix(last, "Add missing essential clauses") {
		t.Errorf("last recommendation = %q", last)
	}
}

func TestCompliance(t *testing.T) {
	text := "Vendor shall process personal data under GDPR. Vendor complies with applicable laws. " +
		"Privacy notices apply. Privacy audits happen yearly. Privacy officers report. Privacy is reviewed."
	got := Compliance(text)
	byCat := map[string]entity.ComplianceRequirement{}
	for _, c := range got {
		byCat[c.Category] = c
	}
	privacy, ok := byCat["data_privacy"]
	if !ok {
		t.Fatalf("missing data_privacy in %+v", got)
	}
	if privacy.Instances != 6 || len(privacy.Samples) != maxComplianceSamples {
		t.Errorf("data_privacy = %d instances, %d samples", privacy.Instances, len(privacy.Samples))
	}
	if _, ok := byCat["regulatory"]; !ok {
		t.Error("missing regulatory")
	}
	if _, ok := byCat["environmental"]; ok {
		t.Error("unexpected environmental")
	}
	if len(Compliance("Nothing relevant here.")) != 0 {
		t.Error("expected no compliance hits")
	}
}

func TestCriticalClauses(t *testing.T) {
	s := NewScorer(nil, Options{}, nil)
	clauses := []entity.Clause{
		{Type: "payment_terms_clause", Content: "Client pays invoices within 30 days."},
		{Type: "liability_clause", Content: "Vendor accepts unlimited liability for all damages."},
		{Type: "indemnification_clause", Content: "Contractor shall indemnify the Company in perpetuity at the Company's sole discretion."},
		{Type: "confidentiality_clause", Content: "The Recipient shall keep the terms confidential."},
	}
	tests := []struct {
		clause int
		want   float64
	}{
		{0, 0},
		// unlimited_liability, two concerns, negative wording
		{1, 0.7},
		// indemnification, unilateral_discretion, binding, two concerns
		{2, 1},
		// confidentiality plus binding stays under the threshold
		{3, 0.4},
	}
	for _, tt := range tests {
		if got := s.ClauseRisk(clauses[tt.clause]); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("ClauseRisk(%s) = %v, want %v", clauses[tt.clause].Type, got, tt.want)
		}
	}

	got := s.CriticalClauses(clauses)
	if len(got) != 2 {
		t.Fatalf("critical = %+v, want two", got)
	}
	if got[0].Type != "indemnification_clause" || got[1].Type != "liability_clause" {
		t.Errorf("order = %s, %s; want riskiest first", got[0].Type, got[1].Type)
	}
	wantConcerns := []string{"indefinite or excessive duration", "unilateral or absolute rights"}
	if strings.Join(got[0].Concerns, "|") != strings.Join(wantConcerns, "|") {
		t.Errorf("concerns = %q, want %q", got[0].Concerns, wantConcerns)
	}
	if empty := s.CriticalClauses(nil); empty == nil || len(empty) != 0 {
		t.Errorf("no clauses should give an empty list, got %#v", empty)
	}
}

func TestBalance(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		first, sec  entity.PartyTerms
		score       float64
		recommended bool
	}{
		{
			name: "one sided",
			text: "The Company may terminate at its discretion. The Company may audit records. " +
				"The Employee shall work full time. The Employee must keep records.",
			first: entity.PartyTerms{Rights: 3},
			sec:   entity.PartyTerms{Obligations: 2},
			score: 1, recommended: true,
		},
		{
			name: "even",
			text: "The Licensor shall deliver the software and may invoice. " +
				"The Licensee shall pay the fees and may use the software.",
			first: entity.PartyTerms{Obligations: 1, Rights: 1},
			sec:   entity.PartyTerms{Obligations: 1, Rights: 1},
		},
		{
			name: "first named party takes the sentence",
			text: "The Tenant shall pay the Landlord monthly.",
			sec:  entity.PartyTerms{Obligations: 1},
		},
		{name: "no parties", text: "Payment is due monthly."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Balance(tt.text)
			if b.FirstParty != tt.first || b.SecondParty != tt.sec {
				t.Errorf("sides = %+v / %+v, want %+v / %+v", b.FirstParty, b.SecondParty, tt.first, tt.sec)
			}
			if math.Abs(b.Score-tt.score) > 1e-9 {
				t.Errorf("score = %v, want %v", b.Score, tt.score)
			}
			recs := Recommend(Report{Assessment: entity.Assessment{Enforceability: 1, Balance: b}}, nil)
			has := len(recs) == 1 && strings.HasPrefix(recs[0], "Review rights and obligations")
			if has != tt.recommended {
				t.Errorf("recommendations = %q", recs)
			}
		})
	}
}
