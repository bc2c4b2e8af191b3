package risk

import (
	"math"
	"regexp"
	"sort"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

// CriticalThreshold is the clause risk level above which a clause is reported
// as critical.
const CriticalThreshold = 0.6

var reBinding = regexp.MustCompile(`(?i)\b(shall|must|is\s+required\s+to|(may|shall|must)\s+not|prohibited)\b`)

// ClauseRisk scores one clause in [0,1]. Every matching risk category adds
// 0.4 when high and 0.2 when medium, binding language adds 0.2, each concern
// adds 0.1 and negative wording adds 0.1.
func (s *Scorer) ClauseRisk(c entity.Clause) float64 {
	level := 0.0
	for _, def := range s.reg.defs {
		if !matchesAny(def, c.Content) {
			continue
		}
		switch def.Severity {
		case entity.SeverityHigh:
			level += 0.4
		case entity.SeverityMedium:
			level += 0.2
		}
	}
	if reBinding.MatchString(c.Content) {
		level += 0.2
	}
	level += 0.1 * float64(len(Concerns(c.Content)))
	if s.sent.Analyze(preprocess.Process(c.Content)).Polarity < -0.2 {
		level += 0.1
	}
	// two decimals keep sums such as 0.4+0.2 from drifting past the threshold
	return math.Min(1, math.Round(level*100)/100)
}

// CriticalClauses returns the clauses whose risk level exceeds
// CriticalThreshold, riskiest first. Ties keep detection order.
func (s *Scorer) CriticalClauses(clauses []entity.Clause) []entity.CriticalClause {
	out := []entity.CriticalClause{}
	for _, c := range clauses {
		level := s.ClauseRisk(c)
		if level <= CriticalThreshold {
			continue
		}
		out = append(out, entity.CriticalClause{
			Type:      c.Type,
			Content:   c.Content,
			RiskLevel: level,
			Concerns:  Concerns(c.Content),
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RiskLevel > out[j].RiskLevel })
	return out
}

func matchesAny(def Definition, text string) bool {
	for _, re := range def.res {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
