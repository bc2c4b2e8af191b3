package entity

import (
	"math"
	"time"

	"github.com/joseph-ayodele/legal-analyzer/constants"
)

// Severity is the categorical risk level assigned by the risk rule table.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Entity is a single recognized name with its output category.
type Entity struct {
	Text     string                   `json:"text"`
	Category constants.EntityCategory `json:"category"`
}

// Entities groups deduplicated entity texts by category.
type Entities struct {
	Organizations []string `json:"organizations"`
	People        []string `json:"people"`
	Dates         []string `json:"dates"`
	Money         []string `json:"money"`
	Locations     []string `json:"locations"`
}

// EmptyEntities returns Entities with non-nil empty lists so JSON renders [].
func EmptyEntities() Entities {
	return Entities{
		Organizations: []string{},
		People:        []string{},
		Dates:         []string{},
		Money:         []string{},
		Locations:     []string{},
	}
}

// List returns the slice backing a category.
func (e *Entities) List(c constants.EntityCategory) *[]string {
	switch c {
	case constants.Organization:
		return &e.Organizations
	case constants.Person:
		return &e.People
	case constants.Date:
		return &e.Dates
	case constants.Money:
		return &e.Money
	case constants.Location:
		return &e.Locations
	}
	return nil
}

// Count is the total number of entities across categories.
func (e Entities) Count() int {
	return len(e.Organizations) + len(e.People) + len(e.Dates) + len(e.Money) + len(e.Locations)
}

// Clause is a sentence classified as a legal clause type.
type Clause struct {
	Type       string  `json:"type"`
	Content    string  `json:"content"`
	Confidence float64 `json:"confidence"`
}

// RiskFactor is a matched risk indicator.
type RiskFactor struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	PatternMatched string   `json:"pattern_matched"`
	Context        string   `json:"context,omitempty"`
}

// Statistics holds readability numbers. ReadingTime is in minutes, unrounded.
type Statistics struct {
	WordCount     int     `json:"word_count"`
	SentenceCount int     `json:"sentence_count"`
	ReadingLevel  float64 `json:"reading_level"`
	ReadingTime   float64 `json:"reading_time"`
}

// ReadingMinutes rounds reading time up to whole minutes for display.
func (s Statistics) ReadingMinutes() int {
	return int(math.Ceil(s.ReadingTime))
}

// Sentiment holds polarity in [-1,1] and subjectivity in [0,1].
type Sentiment struct {
	Polarity     float64 `json:"polarity"`
	Subjectivity float64 `json:"subjectivity"`
}

// KeyPoint is an important sentence tagged with a category.
type KeyPoint struct {
	Text       string  `json:"text"`
	Category   string  `json:"category"`
	Importance float64 `json:"importance"`
}

// ComplianceRequirement records a regulatory area mentioned by the document.
type ComplianceRequirement struct {
	Category  string   `json:"category"`
	Instances int      `json:"instances"`
	Samples   []string `json:"samples,omitempty"`
}

// CriticalClause is a detected clause whose own risk level crossed the
// critical threshold, with the concerns that were found in its wording.
type CriticalClause struct {
	Type      string   `json:"type"`
	Content   string   `json:"content"`
	RiskLevel float64  `json:"risk_level"`
	Concerns  []string `json:"concerns"`
}

// PartyTerms counts obligation and right phrases attributed to one party.
type PartyTerms struct {
	Obligations int `json:"obligations"`
	Rights      int `json:"rights"`
}

// Balance compares the rights-to-obligations ratio of the two sides. Score is
// 0 when both sides are even and grows toward 1 as one side dominates.
type Balance struct {
	Score       float64    `json:"score"`
	FirstParty  PartyTerms `json:"first_party"`
	SecondParty PartyTerms `json:"second_party"`
}

// Assessment holds document-level risk heuristics, each in [0,1].
type Assessment struct {
	Complexity     float64  `json:"complexity"`
	Ambiguity      float64  `json:"ambiguity"`
	Enforceability float64  `json:"enforceability"`
	Balance        Balance  `json:"balance"`
	MissingClauses []string `json:"missing_clauses,omitempty"`
}

// KeyTerm is a frequent content word of a section.
type KeyTerm struct {
	Term      string `json:"term"`
	Frequency int    `json:"frequency"`
}

// SectionSummary is the extractive digest of one headed section.
type SectionSummary struct {
	Title    string    `json:"title"`
	Summary  string    `json:"summary"`
	KeyTerms []KeyTerm `json:"key_terms"`
}

// StageError records a non-fatal stage failure for diagnostics.
type StageError struct {
	Stage string `json:"stage"`
	Error string `json:"error"`
}

// Analysis is the immutable record produced by one successful pipeline run.
type Analysis struct {
	Summary          string                  `json:"summary"`
	SummaryMethod    string                  `json:"summary_method,omitempty"`
	KeyPoints        []KeyPoint              `json:"key_points"`
	DocumentType     string                  `json:"document_type,omitempty"`
	Entities         Entities                `json:"entities"`
	KeyClauses       []Clause                `json:"key_clauses"`
	CriticalClauses  []CriticalClause        `json:"critical_clauses"`
	SectionSummaries []SectionSummary        `json:"section_summaries"`
	RiskFactors      []RiskFactor            `json:"risk_factors"`
	Statistics       Statistics              `json:"statistics"`
	Sentiment        Sentiment               `json:"sentiment"`
	OverallRiskScore float64                 `json:"overall_risk_score"`
	Compliance       []ComplianceRequirement `json:"compliance,omitempty"`
	Recommendations  []string                `json:"recommendations,omitempty"`
	Assessment       *Assessment             `json:"assessment,omitempty"`
	StageErrors      []StageError            `json:"stage_errors,omitempty"`
	AnalyzedAt       time.Time               `json:"analyzed_at"`
}

// NewAnalysis returns an Analysis whose lists are empty rather than nil.
func NewAnalysis() *Analysis {
	return &Analysis{
		KeyPoints:        []KeyPoint{},
		Entities:         EmptyEntities(),
		KeyClauses:       []Clause{},
		CriticalClauses:  []CriticalClause{},
		SectionSummaries: []SectionSummary{},
		RiskFactors:      []RiskFactor{},
	}
}
