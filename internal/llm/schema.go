package llm

// BuildSummaryJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// It is sent to the backend as an output constraint and used locally to validate.
func BuildSummaryJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"summary"},
		"properties": map[string]any{
			"summary": map[string]any{"type": "string", "minLength": 1},
			"key_points": map[string]any{
				"type":     "array",
				"maxItems": 10,
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required":             []string{"text", "category"},
					"properties": map[string]any{
						"text":     map[string]any{"type": "string", "minLength": 1},
						"category": map[string]any{"type": "string", "enum": KeyPointCategories},
					},
				},
			},
		},
	}
}
