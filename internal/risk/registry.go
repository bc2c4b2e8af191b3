package risk

import (
	"fmt"
	"regexp"

	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

// Definition is one risk category. Severity belongs to the category, so every
// match in it carries the same severity.
type Definition struct {
	Category    string          `yaml:"category"`
	Severity    entity.Severity `yaml:"severity"`
	Description string          `yaml:"description"`
	Patterns    []string        `yaml:"patterns"`
	Disabled    bool            `yaml:"disabled"`

	res []*regexp.Regexp
}

// Registry is the ordered, compiled risk table. Read-only after construction.
type Registry struct {
	defs []Definition
}

// Weight is the contribution of one match of severity s to the overall score.
func Weight(s entity.Severity) float64 {
	switch s {
	case entity.SeverityHigh:
		return 1.0
	case entity.SeverityMedium:
		return 0.5
	case entity.SeverityLow:
		return 0.2
	}
	return 0
}

func NewRegistry(defs []Definition) (*Registry, error) {
	out := make([]Definition, 0, len(defs))
	seen := map[string]struct{}{}
	for _, d := range defs {
		if d.Disabled {
			continue
		}
		if d.Category == "" {
			return nil, fmt.Errorf("risk definition without category")
		}
		if _, dup := seen[d.Category]; dup {
			return nil, fmt.Errorf("duplicate risk category %q", d.Category)
		}
		seen[d.Category] = struct{}{}
		if Weight(d.Severity) == 0 {
			return nil, fmt.Errorf("risk %s: unknown severity %q", d.Category, d.Severity)
		}
		if len(d.Patterns) == 0 {
			return nil, fmt.Errorf("risk %s: no patterns", d.Category)
		}
		d.res = make([]*regexp.Regexp, 0, len(d.Patterns))
		for _, p := range d.Patterns {
			re, err := regexp.Compile(`(?i)` + p)
			if err != nil {
				return nil, fmt.Errorf("risk %s: %w", d.Category, err)
			}
			d.res = append(d.res, re)
		}
		out = append(out, d)
	}
	return &Registry{defs: out}, nil
}

func (r *Registry) Definitions() []Definition { return r.defs }

// SeverityOf returns the severity configured for category.
func (r *Registry) SeverityOf(category string) (entity.Severity, bool) {
	for _, d := range r.defs {
		if d.Category == category {
			return d.Severity, true
		}
	}
	return "", false
}

const indemnify = `indemnif(y|ies|ied|ication)`

func DefaultDefinitions() []Definition {
	return []Definition{
		{Category: "indemnification", Severity: entity.SeverityHigh,
			Description: "Obligation to indemnify or hold the other party harmless",
			Patterns: []string{
				`\b` + indemnify + `\s+and\s+hold\s+harmless\b`,
				`\bdefend,?\s+` + indemnify + `\b`,
				`\b` + indemnify + `\b`,
				`\bhold\s+harmless\b`,
			}},
		{Category: "unlimited_liability", Severity: entity.SeverityHigh,
			Description: "Liability that is not capped",
			Patterns: []string{
				`\bunlimited\s+liability\b`,
				`\bliability\s+(shall|will)\s+not\s+be\s+limited\b`,
				`\bwithout\s+limitation\s+as\s+to\s+amount\b`,
				`\bfully\s+liable\b`,
			}},
		{Category: "termination_for_convenience", Severity: entity.SeverityHigh,
			Description: "Agreement may be ended without cause",
			Patterns: []string{
				`\bterminat\w*\s+(this\s+agreement\s+)?for\s+(any\s+reason|convenience)\b`,
				`\bfor\s+convenience\b`,
				`\bwithout\s+cause\b`,
				`\bat\s+any\s+time\s+(and\s+)?for\s+any\s+reason\b`,
			}},
		{Category: "non_compete", Severity: entity.SeverityHigh,
			Description: "Restriction on competing or soliciting",
			Patterns: []string{
				`\bnon-?compet(e|ition)\b`,
				`\bnot\s+(to\s+)?compete\b`,
				`\bnon-?solicit(ation)?\b`,
				`\bprohibited\s+from\s+competing\b`,
			}},
		{Category: "penalty", Severity: entity.SeverityHigh,
			Description: "Penalties, liquidated damages or late fees",
			Patterns: []string{
				`\bpenalt(y|ies)\b`,
				`\bliquidated\s+damages\b`,
				`\blate\s+(payment\s+)?fees?\b`,
				`\bforfeit(s|ure)?\b`,
			}},
		{Category: "litigation", Severity: entity.SeverityHigh,
			Description: "Reference to lawsuits or legal proceedings",
			Patterns: []string{
				`\blitigation\b`,
				`\blawsuits?\b`,
				`\blegal\s+proceedings?\b`,
				`\bclass\s+action\b`,
			}},
		{Category: "breach", Severity: entity.SeverityHigh,
			Description: "Breach or default consequences",
			Patterns: []string{
				`\bmaterial\s+breach\b`,
				`\bbreach(es|ed)?\b`,
				`\bevent\s+of\s+default\b`,
			}},
		{Category: "liability_limitation", Severity: entity.SeverityMedium,
			Description: "Caps or exclusions of liability",
			Patterns: []string{
				`\blimitation\s+of\s+liability\b`,
				`\b(shall|will)\s+not\s+be\s+liable\b`,
				`\bin\s+no\s+event\s+shall\b`,
				`\baggregate\s+liability\b`,
				`\bliability\s+(is\s+|shall\s+be\s+)?limited\s+to\b`,
			}},
		{Category: "auto_renewal", Severity: entity.SeverityMedium,
			Description: "Term renews unless notice is given",
			Patterns: []string{
				`\bautomatic(ally)?\s+renew(s|ed|al)?\b`,
				`\bauto-?renew(s|al)?\b`,
				`\bevergreen\b`,
				`\bsuccessive\s+renewal\s+(terms?|periods?)\b`,
			}},
		{Category: "confidentiality", Severity: entity.SeverityMedium,
			Description: "Confidentiality or non-disclosure obligations",
			Patterns: []string{
				`\bconfidential(ity)?\b`,
				`\bnon-?disclosure\b`,
				`\btrade\s+secrets?\b`,
			}},
		{Category: "unilateral_discretion", Severity: entity.SeverityMedium,
			Description: "One party decides alone",
			Patterns: []string{
				`\bsole\s+and\s+absolute\s+discretion\b`,
				`\b(sole|absolute)\s+discretion\b`,
				`\breserves\s+the\s+right\b`,
				`\bwithout\s+(prior\s+)?notice\b`,
			}},
		{Category: "assignment", Severity: entity.SeverityLow,
			Description: "Rights may be assigned or transferred",
			Patterns: []string{
				`\bassign(ment|ed|s)?\b`,
				`\btransfer\s+(this\s+agreement|its\s+rights)\b`,
				`\bchange\s+of\s+control\b`,
			}},
		{Category: "ambiguous_terms", Severity: entity.SeverityLow,
			Description: "Vague standard open to interpretation",
			Patterns: []string{
				`\bcommercially\s+reasonable\b`,
				`\bbest\s+efforts\b`,
				`\breasonabl[ey]\b`,
				`\bgood\s+faith\b`,
				`\bsubstantial(ly)?\b`,
				`\bsatisfactory\b`,
			}},
		{Category: "governing_law", Severity: entity.SeverityLow,
			Description: "Choice of law or forum",
			Patterns: []string{
				`\bgoverning\s+law\b`,
				`\bgoverned\s+by\s+the\s+laws?\s+of\b`,
				`\bexclusive\s+jurisdiction\b`,
				`\bvenue\b`,
			}},
	}
}

func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}
