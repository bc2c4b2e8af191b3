// Package clauses classifies sentences into legal clause types.
package clauses

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

type Detector struct {
	reg    *Registry
	logger *slog.Logger
}

func NewDetector(reg *Registry, logger *slog.Logger) *Detector {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Detector{reg: reg, logger: logger}
}

// Score is the noisy-or of the weights of the patterns found in s.
func (d Definition) Score(s string) float64 {
	miss := 1.0
	for _, p := range d.Patterns {
		if p.re.MatchString(s) {
			miss *= 1 - p.Weight
		}
	}
	return 1 - miss
}

// Detect emits at most one clause per sentence: the highest score at or above
// its threshold, earliest registration on ties.
func (x *Detector) Detect(ctx context.Context, doc *preprocess.Document) ([]entity.Clause, error) {
	out := []entity.Clause{}
	for _, s := range doc.Sentences() {
		if err := ctx.Err(); err != nil {
			return []entity.Clause{}, err
		}
		best, bestScore := -1, 0.0
		for i, def := range x.reg.defs {
			sc := def.Score(s.Text)
			if sc < def.Threshold {
				continue
			}
			if best < 0 || sc > bestScore {
				best, bestScore = i, sc
			}
		}
		if best < 0 {
			continue
		}
		out = append(out, entity.Clause{
			Type:       x.reg.defs[best].ID,
			Content:    s.Text,
			Confidence: bestScore,
		})
	}
	x.logger.Debug("clauses.detected", "sentences", doc.Len(), "clauses", len(out))
	return out, nil
}
