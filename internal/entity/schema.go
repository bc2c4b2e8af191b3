package entity

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// AnalysisJSONSchema returns the retrieval schema consumed by the dashboard.
// Only the stable fields are required; additive fields are allowed.
func AnalysisJSONSchema() map[string]any {
	stringList := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	unit := map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
			"entities": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"organizations": stringList,
					"people":        stringList,
					"dates":         stringList,
					"money":         stringList,
					"locations":     stringList,
				},
				"required": []string{"organizations", "people", "dates", "money", "locations"},
			},
			"key_clauses": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":       map[string]any{"type": "string", "minLength": 1},
						"content":    map[string]any{"type": "string"},
						"confidence": unit,
					},
					"required": []string{"type", "content", "confidence"},
				},
			},
			"critical_clauses": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":       map[string]any{"type": "string", "minLength": 1},
						"content":    map[string]any{"type": "string"},
						"risk_level": unit,
						"concerns":   stringList,
					},
					"required": []string{"type", "content", "risk_level", "concerns"},
				},
			},
			"section_summaries": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":   map[string]any{"type": "string", "minLength": 1},
						"summary": map[string]any{"type": "string"},
						"key_terms": map[string]any{
							"type": "array",
							"items": map[string]any{
								"type": "object",
								"properties": map[string]any{
									"term":      map[string]any{"type": "string", "minLength": 1},
									"frequency": map[string]any{"type": "integer", "minimum": 1},
								},
								"required": []string{"term", "frequency"},
							},
						},
					},
					"required": []string{"title", "summary", "key_terms"},
				},
			},
			"assessment": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"complexity":     unit,
					"ambiguity":      unit,
					"enforceability": unit,
					"balance": map[string]any{
						"type":       "object",
						"properties": map[string]any{"score": unit},
						"required":   []string{"score"},
					},
				},
			},
			"risk_factors": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"type":            map[string]any{"type": "string", "minLength": 1},
						"description":     map[string]any{"type": "string"},
						"severity":        map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
						"pattern_matched": map[string]any{"type": "string"},
					},
					"required": []string{"type", "description", "severity", "pattern_matched"},
				},
			},
			"statistics": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"word_count":     map[string]any{"type": "integer", "minimum": 0},
					"sentence_count": map[string]any{"type": "integer", "minimum": 0},
					"reading_level":  map[string]any{"type": "number"},
					"reading_time":   map[string]any{"type": "number", "minimum": 0.0},
				},
				"required": []string{"word_count", "sentence_count", "reading_level", "reading_time"},
			},
			"sentiment": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"polarity":     map[string]any{"type": "number", "minimum": -1.0, "maximum": 1.0},
					"subjectivity": unit,
				},
				"required": []string{"polarity", "subjectivity"},
			},
			"overall_risk_score": unit,
		},
		"required": []string{"summary", "entities", "key_clauses", "risk_factors", "statistics", "sentiment", "overall_risk_score"},
	}
}

var (
	analysisSchemaOnce sync.Once
	analysisSchema     *jsonschema.Schema
	analysisSchemaErr  error
)

func compiledAnalysisSchema() (*jsonschema.Schema, error) {
	analysisSchemaOnce.Do(func() {
		b, err := json.Marshal(AnalysisJSONSchema())
		if err != nil {
			analysisSchemaErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("analysis.json", bytes.NewReader(b)); err != nil {
			analysisSchemaErr = fmt.Errorf("add schema: %w", err)
			return
		}
		analysisSchema, analysisSchemaErr = compiler.Compile("analysis.json")
	})
	return analysisSchema, analysisSchemaErr
}

// Validate checks a marshalled Analysis against AnalysisJSONSchema.
func (a *Analysis) Validate() error {
	schema, err := compiledAnalysisSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	raw, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("unmarshal analysis: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("analysis does not match schema: %w", err)
	}
	return nil
}

// Normalize repairs the fields AnalysisJSONSchema constrains: scores are
// clamped into range (NaN becomes 0), nil lists become empty and list items
// without a type are dropped. It returns one note per repair, in field order.
func (a *Analysis) Normalize() []string {
	var notes []string
	unit := func(name string, v *float64, lo, hi float64) {
		switch {
		case math.IsNaN(*v):
			*v = 0
		case *v < lo:
			*v = lo
		case *v > hi:
			*v = hi
		default:
			return
		}
		notes = append(notes, name+" clamped")
	}

	if a.KeyPoints == nil {
		a.KeyPoints = []KeyPoint{}
	}
	for i := range a.KeyPoints {
		unit("key_points.importance", &a.KeyPoints[i].Importance, 0, 1)
	}
	for _, list := range []*[]string{&a.Entities.Organizations, &a.Entities.People, &a.Entities.Dates, &a.Entities.Money, &a.Entities.Locations} {
		if *list == nil {
			*list = []string{}
			notes = append(notes, "entities list filled")
		}
	}

	clauses := make([]Clause, 0, len(a.KeyClauses))
	for _, c := range a.KeyClauses {
		if c.Type == "" {
			notes = append(notes, "untyped clause dropped")
			continue
		}
		unit("key_clauses.confidence", &c.Confidence, 0, 1)
		clauses = append(clauses, c)
	}
	a.KeyClauses = clauses

	critical := make([]CriticalClause, 0, len(a.CriticalClauses))
	for _, c := range a.CriticalClauses {
		if c.Type == "" {
			notes = append(notes, "untyped critical clause dropped")
			continue
		}
		unit("critical_clauses.risk_level", &c.RiskLevel, 0, 1)
		if c.Concerns == nil {
			c.Concerns = []string{}
		}
		critical = append(critical, c)
	}
	a.CriticalClauses = critical

	if a.SectionSummaries == nil {
		a.SectionSummaries = []SectionSummary{}
	}
	for i := range a.SectionSummaries {
		s := &a.SectionSummaries[i]
		if s.Title == "" {
			s.Title = "Untitled"
			notes = append(notes, "section title filled")
		}
		terms := make([]KeyTerm, 0, len(s.KeyTerms))
		for _, t := range s.KeyTerms {
			if t.Term == "" || t.Frequency <= 0 {
				notes = append(notes, "empty key term dropped")
				continue
			}
			terms = append(terms, t)
		}
		s.KeyTerms = terms
	}

	factors := make([]RiskFactor, 0, len(a.RiskFactors))
	for _, f := range a.RiskFactors {
		switch {
		case f.Type == "":
			notes = append(notes, "untyped risk factor dropped")
			continue
		case f.Severity != SeverityLow && f.Severity != SeverityMedium && f.Severity != SeverityHigh:
			notes = append(notes, "risk factor "+f.Type+" with unknown severity dropped")
			continue
		}
		factors = append(factors, f)
	}
	a.RiskFactors = factors

	if a.Statistics.WordCount < 0 || a.Statistics.SentenceCount < 0 {
		a.Statistics.WordCount = max(0, a.Statistics.WordCount)
		a.Statistics.SentenceCount = max(0, a.Statistics.SentenceCount)
		notes = append(notes, "statistics counts clamped")
	}
	if math.IsNaN(a.Statistics.ReadingLevel) || math.IsInf(a.Statistics.ReadingLevel, 0) {
		a.Statistics.ReadingLevel = 0
		notes = append(notes, "statistics.reading_level cleared")
	}
	unit("statistics.reading_time", &a.Statistics.ReadingTime, 0, math.MaxFloat64)
	unit("sentiment.polarity", &a.Sentiment.Polarity, -1, 1)
	unit("sentiment.subjectivity", &a.Sentiment.Subjectivity, 0, 1)
	unit("overall_risk_score", &a.OverallRiskScore, 0, 1)

	if as := a.Assessment; as != nil {
		unit("assessment.complexity", &as.Complexity, 0, 1)
		unit("assessment.ambiguity", &as.Ambiguity, 0, 1)
		unit("assessment.enforceability", &as.Enforceability, 0, 1)
		unit("assessment.balance.score", &as.Balance.Score, 0, 1)
	}
	return notes
}
