package llm

import (
	"encoding/json"
	"strconv"
	"strings"
)

// BuildSystemPrompt composes the system message for a summary request.
func BuildSystemPrompt(req SummaryRequest) string {
	parts := []string{
		"You are a legal analyst summarizing contracts for a business reader.",
		"Return ONLY JSON that matches the provided JSON Schema.",
		"Stay faithful to the text: never invent parties, amounts, dates or obligations.",
		"Use plain English and the defined terms the document itself uses.",
		"Key point categories: " + strings.Join(KeyPointCategories, ", ") + ". Use GENERAL when none fits.",
	}
	switch req.Mode {
	case ModeSynthesize:
		parts = append(parts,
			"The input is a list of partial summaries of consecutive sections of one document.",
			"Merge them into a single executive summary without repeating points.")
	default:
		parts = append(parts, "The input is one section of a longer document; summarize only that section.")
	}
	if req.MaxChars > 0 {
		parts = append(parts, "Keep 'summary' under "+strconv.Itoa(req.MaxChars)+" characters.")
	}
	if t := strings.TrimSpace(req.DocumentType); t != "" && t != "UNKNOWN" {
		parts = append(parts, "The document appears to be a "+strings.ReplaceAll(strings.ToLower(t), "_", " ")+".")
	}
	if len(req.Parties) > 0 {
		parts = append(parts, "Parties named in the document: "+strings.Join(req.Parties, "; ")+".")
	}
	parts = append(parts, "Never output null. If there are no key points, omit 'key_points'.")
	return strings.Join(parts, " ")
}

// BuildUserPrompt wraps the text to summarize.
func BuildUserPrompt(req SummaryRequest) string {
	var b strings.Builder
	if req.Mode == ModeSynthesize {
		b.WriteString("Section summaries:\n\n")
	} else {
		b.WriteString("Document section:\n\n")
	}
	b.WriteString(req.Text)
	b.WriteString("\n\nReturn ONLY JSON that matches the provided schema.")
	return b.String()
}

// SchemaPrompt renders the summary schema for backends without native schema support.
func SchemaPrompt() string {
	b, _ := json.MarshalIndent(BuildSummaryJSONSchema(), "", "  ")
	return "JSON Schema:\n" + string(b)
}
