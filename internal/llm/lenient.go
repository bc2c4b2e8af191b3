package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

var categorySynonyms = map[string]string{
	"OBLIGATIONS":     "OBLIGATION",
	"DUTY":            "OBLIGATION",
	"REPRESENTATIONS": "REPRESENTATION",
	"WARRANTY":        "REPRESENTATION",
	"WARRANTIES":      "REPRESENTATION",
	"TERM":            "TERMINATION",
	"PAYMENTS":        "PAYMENT",
	"FEES":            "PAYMENT",
	"FINANCIAL":       "PAYMENT",
	"OTHER":           "GENERAL",
}

// SanitizeSummaryJSON strips code fences, renames known keys, drops empty or
// unknown optionals and maps key point categories onto the allowed set, so a
// mostly-right answer still validates.
func SanitizeSummaryJSON(raw []byte) ([]byte, error) {
	s := strings.TrimSpace(string(raw))
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	var m map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &m); err != nil {
		return nil, fmt.Errorf("sanitize: decode: %w", err)
	}
	if _, ok := m["summary"]; !ok {
		for _, alt := range []string{"executive_summary", "Summary"} {
			if v, ok := m[alt]; ok {
				m["summary"] = v
				break
			}
		}
	}
	if _, ok := m["key_points"]; !ok {
		if v, ok := m["keyPoints"]; ok {
			m["key_points"] = v
		}
	}

	out := map[string]any{}
	if v, ok := m["summary"].(string); ok {
		out["summary"] = strings.TrimSpace(v)
	} else if v, ok := m["summary"]; ok {
		out["summary"] = v
	}

	if items, ok := m["key_points"].([]any); ok {
		kept := make([]any, 0, len(items))
		for _, it := range items {
			var text, cat string
			switch t := it.(type) {
			case string:
				text = t
			case map[string]any:
				text, _ = t["text"].(string)
				cat, _ = t["category"].(string)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			kept = append(kept, map[string]any{"text": text, "category": normalizeCategory(cat)})
			if len(kept) == 10 {
				break
			}
		}
		if len(kept) > 0 {
			out["key_points"] = kept
		}
	}
	return json.Marshal(out)
}

func normalizeCategory(c string) string {
	c = strings.ToUpper(strings.TrimSpace(c))
	for _, k := range KeyPointCategories {
		if c == k {
			return c
		}
	}
	if v, ok := categorySynonyms[c]; ok {
		return v
	}
	return "GENERAL"
}
