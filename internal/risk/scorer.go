// Package risk finds risk indicator phrases and aggregates them into an
// overall document risk score.
package risk

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
	"github.com/joseph-ayodele/legal-analyzer/internal/sentiment"
)

const (
	DefaultContextChars   = 100
	DefaultMaxPerCategory = 5
	DefaultNorm           = 5.0
)

type Options struct {
	ContextChars   int
	MaxPerCategory int
	Norm           float64
}

type Scorer struct {
	reg    *Registry
	opts   Options
	sent   *sentiment.Analyzer
	logger *slog.Logger
}

// Report is the risk stage output.
type Report struct {
	Factors      []entity.RiskFactor
	OverallScore float64
	// Matches counts collapsed matches before the per-category cap.
	Matches    int
	Compliance []entity.ComplianceRequirement
	Assessment entity.Assessment
}

func NewScorer(reg *Registry, opts Options, logger *slog.Logger) *Scorer {
	if reg == nil {
		reg = DefaultRegistry()
	}
	if opts.ContextChars <= 0 {
		opts.ContextChars = DefaultContextChars
	}
	if opts.MaxPerCategory <= 0 {
		opts.MaxPerCategory = DefaultMaxPerCategory
	}
	if opts.Norm <= 0 {
		opts.Norm = DefaultNorm
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{reg: reg, opts: opts, sent: sentiment.NewAnalyzer(), logger: logger}
}

type match struct {
	start, end int
}

// Score scans text once per category.
func (s *Scorer) Score(ctx context.Context, text string) (Report, error) {
	rep := Report{Factors: []entity.RiskFactor{}}
	var sum float64
	for _, def := range s.reg.defs {
		if err := ctx.Err(); err != nil {
			return Report{Factors: []entity.RiskFactor{}}, err
		}
		ms := collapse(findAll(def, text))
		rep.Matches += len(ms)
		sum += float64(len(ms)) * Weight(def.Severity)
		for i, m := range ms {
			if i >= s.opts.MaxPerCategory {
				break
			}
			rep.Factors = append(rep.Factors, entity.RiskFactor{
				Type:           def.Category,
				Description:    def.Description,
				Severity:       def.Severity,
				PatternMatched: text[m.start:m.end],
				Context:        window(text, m.start, m.end, s.opts.ContextChars),
			})
		}
	}
	rep.OverallScore = math.Min(1, sum/s.opts.Norm)
	rep.Compliance = Compliance(text)
	rep.Assessment = Assess(text)

	s.logger.Debug("risk.scored",
		"matches", rep.Matches,
		"factors", len(rep.Factors),
		"overall", rep.OverallScore,
	)
	return rep, nil
}

func findAll(def Definition, text string) []match {
	var out []match
	for _, re := range def.res {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			if loc[1] > loc[0] {
				out = append(out, match{loc[0], loc[1]})
			}
		}
	}
	return out
}

// collapse keeps the longest match of every run of overlapping matches and
// returns the survivors in document order.
func collapse(ms []match) []match {
	if len(ms) == 0 {
		return nil
	}
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].start < ms[j].start })
	out := []match{ms[0]}
	clusterEnd := ms[0].end
	for _, m := range ms[1:] {
		if m.start < clusterEnd {
			last := &out[len(out)-1]
			if m.end-m.start > last.end-last.start {
				*last = m
			}
			if m.end > clusterEnd {
				clusterEnd = m.end
			}
			continue
		}
		out = append(out, m)
		clusterEnd = m.end
	}
	return out
}

// window returns up to n runes on each side of text[start:end], whitespace collapsed.
func window(text string, start, end, n int) string {
	lo := start
	for i := 0; i < n && lo > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:lo])
		lo -= size
	}
	hi := end
	for i := 0; i < n && hi < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[hi:])
		hi += size
	}
	return strings.Join(strings.Fields(text[lo:hi]), " ")
}
