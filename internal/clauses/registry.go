package clauses

import (
	"fmt"
	"regexp"
)

const DefaultThreshold = 0.5

// Pattern is one weighted regex. Matching is case-insensitive.
type Pattern struct {
	Regex  string  `yaml:"regex"`
	Weight float64 `yaml:"weight"`

	re *regexp.Regexp
}

// Definition is one clause type in the registry.
type Definition struct {
	ID        string    `yaml:"id"`
	Patterns  []Pattern `yaml:"patterns"`
	Threshold float64   `yaml:"threshold"`
	Disabled  bool      `yaml:"disabled"`
}

// Registry is an ordered, compiled, read-only list of clause definitions.
// Order breaks score ties.
type Registry struct {
	defs []Definition
}

// NewRegistry compiles defs in order. Threshold 0 means DefaultThreshold.
func NewRegistry(defs []Definition) (*Registry, error) {
	out := make([]Definition, 0, len(defs))
	seen := make(map[string]struct{}, len(defs))
	for _, d := range defs {
		if d.Disabled {
			continue
		}
		if d.ID == "" {
			return nil, fmt.Errorf("clause definition without id")
		}
		if _, dup := seen[d.ID]; dup {
			return nil, fmt.Errorf("duplicate clause id %q", d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.Threshold <= 0 {
			d.Threshold = DefaultThreshold
		}
		if d.Threshold > 1 {
			return nil, fmt.Errorf("clause %s: threshold %.2f out of range", d.ID, d.Threshold)
		}
		pats := make([]Pattern, 0, len(d.Patterns))
		for _, p := range d.Patterns {
			if p.Weight <= 0 || p.Weight > 1 {
				return nil, fmt.Errorf("clause %s: weight %.2f out of range for %q", d.ID, p.Weight, p.Regex)
			}
			re, err := regexp.Compile(`(?i)` + p.Regex)
			if err != nil {
				return nil, fmt.Errorf("clause %s: %w", d.ID, err)
			}
			p.re = re
			pats = append(pats, p)
		}
		d.Patterns = pats
		out = append(out, d)
	}
	return &Registry{defs: out}, nil
}

func (r *Registry) Definitions() []Definition { return r.defs }

// IDs returns clause type ids in registration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.defs))
	for i, d := range r.defs {
		ids[i] = d.ID
	}
	return ids
}

// DefaultDefinitions is the built-in clause table.
func DefaultDefinitions() []Definition {
	return []Definition{
		{ID: "termination_clause", Patterns: []Pattern{
			{Regex: `\bterminat(e|es|ed|ion)\b`, Weight: 0.6},
			{Regex: `\bnotice\b`, Weight: 0.3},
			{Regex: `\bfor\s+(cause|convenience)\b`, Weight: 0.3},
			{Regex: `\bexpir(e|es|ed|ation)\b`, Weight: 0.2},
		}},
		{ID: "indemnification_clause", Patterns: []Pattern{
			{Regex: `\bindemnif(y|ies|ied|ication)\b`, Weight: 0.7},
			{Regex: `\bhold\s+harmless\b`, Weight: 0.5},
			{Regex: `\bdefend\b`, Weight: 0.2},
			{Regex: `\b(claims?|losses|damages)\b`, Weight: 0.1},
		}},
		{ID: "confidentiality_clause", Patterns: []Pattern{
			{Regex: `\bconfidential(ity)?\b`, Weight: 0.6},
			{Regex: `\bnon-?disclosure\b`, Weight: 0.6},
			{Regex: `\b(disclose|disclosure)\b`, Weight: 0.2},
			{Regex: `\bproprietary\s+information\b`, Weight: 0.3},
		}},
		{ID: "non_compete_clause", Patterns: []Pattern{
			{Regex: `\bnon-?compet(e|ition)\b`, Weight: 0.7},
			{Regex: `\bnot\s+(to\s+)?compete\b`, Weight: 0.6},
			{Regex: `\bnon-?solicit(ation)?\b`, Weight: 0.5},
			{Regex: `\bcompeting\s+business\b`, Weight: 0.3},
		}},
		{ID: "intellectual_property_clause", Patterns: []Pattern{
			{Regex: `\bintellectual\s+property\b`, Weight: 0.6},
			{Regex: `\b(copyrights?|patents?|trademarks?|trade\s+secrets?)\b`, Weight: 0.4},
			{Regex: `\bwork\s+(made\s+)?for\s+hire\b`, Weight: 0.5},
			{Regex: `\blicen[cs]e\b`, Weight: 0.2},
		}},
		{ID: "payment_terms_clause", Patterns: []Pattern{
			{Regex: `\b(payment|pay|payable|paid)\b`, Weight: 0.4},
			{Regex: `\b(invoice|invoices|invoiced)\b`, Weight: 0.3},
			{Regex: `\bfees?\b`, Weight: 0.2},
			{Regex: `\bwithin\s+\d+\s+days\b`, Weight: 0.2},
			{Regex: `[$€£]\s?\d`, Weight: 0.2},
		}},
		{ID: "liability_clause", Patterns: []Pattern{
			{Regex: `\bliabilit(y|ies)\b`, Weight: 0.5},
			{Regex: `\bliable\b`, Weight: 0.4},
			{Regex: `\b(consequential|incidental|indirect|punitive)\s+damages\b`, Weight: 0.4},
			{Regex: `\bin\s+no\s+event\b`, Weight: 0.3},
		}},
		{ID: "force_majeure_clause", Patterns: []Pattern{
			{Regex: `\bforce\s+majeure\b`, Weight: 0.9},
			{Regex: `\bacts?\s+of\s+god\b`, Weight: 0.6},
			{Regex: `\bbeyond\s+(its|their|the)\s+reasonable\s+control\b`, Weight: 0.5},
		}},
		{ID: "governing_law_clause", Patterns: []Pattern{
			{Regex: `\bgoverning\s+law\b`, Weight: 0.7},
			{Regex: `\bgoverned\s+by\b`, Weight: 0.5},
			{Regex: `\blaws\s+of\s+the\s+(state|province|commonwealth)\b`, Weight: 0.3},
			{Regex: `\bjurisdiction\b`, Weight: 0.2},
		}},
		{ID: "dispute_resolution_clause", Patterns: []Pattern{
			{Regex: `\barbitrat(e|ion|or)\b`, Weight: 0.6},
			{Regex: `\bmediat(e|ion|or)\b`, Weight: 0.5},
			{Regex: `\bdisputes?\b`, Weight: 0.3},
			{Regex: `\b(venue|courts?\s+of)\b`, Weight: 0.2},
		}},
		{ID: "assignment_clause", Patterns: []Pattern{
			{Regex: `\bassign(ment|ed|s)?\b`, Weight: 0.5},
			{Regex: `\b(delegate|transfer)\b`, Weight: 0.2},
			{Regex: `\bprior\s+written\s+consent\b`, Weight: 0.3},
		}},
		{ID: "renewal_clause", Patterns: []Pattern{
			{Regex: `\brenew(al|ed|s)?\b`, Weight: 0.6},
			{Regex: `\bautomatic(ally)?\b`, Weight: 0.2},
			{Regex: `\bsuccessive\s+(terms?|periods?)\b`, Weight: 0.3},
			{Regex: `\binitial\s+term\b`, Weight: 0.2},
		}},
	}
}

// DefaultRegistry compiles DefaultDefinitions; it panics on a bad table.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(DefaultDefinitions())
	if err != nil {
		panic(err)
	}
	return r
}
