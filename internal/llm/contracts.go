package llm

import "context"

// Mode tells the backend whether it is summarizing a chunk of the document or
// merging chunk summaries into the final one.
type Mode string

const (
	ModeChunk      Mode = "chunk"
	ModeSynthesize Mode = "synthesize"
)

// Key point categories accepted from a backend.
var KeyPointCategories = []string{"OBLIGATION", "REPRESENTATION", "TERMINATION", "PAYMENT", "GENERAL"}

type SummaryRequest struct {
	Text         string
	Mode         Mode
	DocumentType string   // optional classifier hint
	Parties      []string // optional entity hint
	MaxChars     int
}

// KeyPoint is one item of the generated key points.
type KeyPoint struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// SummaryResult is the normalized shape we want from the backend.
type SummaryResult struct {
	Summary   string     `json:"summary"`
	KeyPoints []KeyPoint `json:"key_points,omitempty"`
}

// Generator is the interface the summarizer depends on. Implementations must
// be safe for concurrent calls.
type Generator interface {
	Name() string
	Summarize(ctx context.Context, req SummaryRequest) (SummaryResult, []byte /*rawJSON*/, error)
}
