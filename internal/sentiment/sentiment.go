// Package sentiment scores polarity and subjectivity with a small lexicon.
package sentiment

import (
	"math"
	"strings"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/preprocess"
)

type score struct {
	polarity     float64
	subjectivity float64
}

var lexicon = map[string]score{
	"good": {0.7, 0.6}, "great": {0.8, 0.75}, "excellent": {1.0, 1.0}, "fair": {0.5, 0.6},
	"reasonable": {0.3, 0.5}, "beneficial": {0.6, 0.5}, "favorable": {0.6, 0.6}, "benefit": {0.4, 0.4},
	"protect": {0.3, 0.3}, "protection": {0.3, 0.3}, "mutual": {0.2, 0.2}, "satisfactory": {0.4, 0.5},
	"valid": {0.3, 0.3}, "secure": {0.4, 0.4}, "success": {0.6, 0.5}, "successful": {0.7, 0.6},
	"agree": {0.2, 0.2}, "approve": {0.3, 0.3}, "cooperate": {0.3, 0.3}, "best": {0.9, 0.3},
	"bad": {-0.7, 0.65}, "poor": {-0.4, 0.6}, "unfair": {-0.6, 0.7}, "unreasonable": {-0.5, 0.6},
	"breach": {-0.5, 0.4}, "default": {-0.3, 0.3}, "damages": {-0.4, 0.3}, "damage": {-0.4, 0.3},
	"loss": {-0.4, 0.3}, "losses": {-0.4, 0.3}, "penalty": {-0.5, 0.4}, "penalties": {-0.5, 0.4},
	"liable": {-0.3, 0.3}, "failure": {-0.5, 0.4}, "fail": {-0.5, 0.4}, "fails": {-0.5, 0.4},
	"negligence": {-0.6, 0.5}, "negligent": {-0.6, 0.5}, "fraud": {-0.8, 0.6}, "terminate": {-0.2, 0.2},
	"termination": {-0.2, 0.2}, "dispute": {-0.4, 0.4}, "harm": {-0.6, 0.5}, "harmful": {-0.7, 0.6},
	"prohibited": {-0.3, 0.3}, "forfeit": {-0.5, 0.4}, "invalid": {-0.4, 0.4}, "risk": {-0.2, 0.3},
	"unlimited": {-0.2, 0.4}, "late": {-0.3, 0.3}, "terrible": {-1.0, 1.0}, "violation": {-0.6, 0.5},
}

var intensifiers = map[string]float64{
	"very": 1.3, "extremely": 1.5, "highly": 1.3, "substantially": 1.2, "materially": 1.2,
	"fully": 1.1, "gross": 1.4, "grossly": 1.4, "slightly": 0.6, "somewhat": 0.7, "partially": 0.7,
}

var negations = map[string]struct{}{
	"not": {}, "no": {}, "never": {}, "neither": {}, "nor": {}, "without": {}, "none": {},
	"cannot": {}, "won't": {}, "don't": {}, "doesn't": {}, "isn't": {},
}

const negationWindow = 3

// Analyzer is read-only and safe for concurrent use.
type Analyzer struct{}

func NewAnalyzer() *Analyzer { return &Analyzer{} }

// Neutral is the default for empty or unscored text.
func Neutral() entity.Sentiment { return entity.Sentiment{} }

// Analyze averages lexicon hits across the document. Polarity is clamped to
// [-1,1] and subjectivity to [0,1].
func (a *Analyzer) Analyze(doc *preprocess.Document) entity.Sentiment {
	var pol, subj float64
	hits := 0
	for _, s := range doc.Sentences() {
		words := s.Words()
		for i, w := range words {
			lw := strings.ToLower(w.Text)
			sc, ok := lexicon[lw]
			if !ok {
				continue
			}
			p, sj := sc.polarity, sc.subjectivity
			if i > 0 {
				if m, ok := intensifiers[strings.ToLower(words[i-1].Text)]; ok {
					p *= m
					sj *= m
				}
			}
			for j := i - 1; j >= 0 && j >= i-negationWindow; j-- {
				if _, ok := negations[strings.ToLower(words[j].Text)]; ok {
					p *= -0.5
					break
				}
			}
			pol += clamp(p, -1, 1)
			subj += clamp(sj, 0, 1)
			hits++
		}
	}
	if hits == 0 {
		return Neutral()
	}
	return entity.Sentiment{
		Polarity:     clamp(pol/float64(hits), -1, 1),
		Subjectivity: clamp(subj/float64(hits), 0, 1),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
