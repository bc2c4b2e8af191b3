package constants

import (
	"strings"
)

// EntityCategory is one of the five output buckets for named entities.
type EntityCategory string

const (
	Organization EntityCategory = "organization"
	Person       EntityCategory = "person"
	Date         EntityCategory = "date"
	Money        EntityCategory = "money"
	Location     EntityCategory = "location"
)

var allCategories = []EntityCategory{
	Organization,
	Person,
	Date,
	Money,
	Location,
}

// EntityCategories returns the categories in output order.
func EntityCategories() []EntityCategory {
	out := make([]EntityCategory, len(allCategories))
	copy(out, allCategories)
	return out
}

// CategoryForLabel maps a recognizer-native label (ORG, PERSON, GPE, ...) onto
// an output category. Labels with no bucket (NORP, PRODUCT, ...) return false.
func CategoryForLabel(label string) (EntityCategory, bool) {
	if label == "" {
		return "", false
	}

	normalized := strings.ToUpper(strings.TrimSpace(label))

	// synonyms map
	synonyms := map[string]EntityCategory{
		"ORG":          Organization,
		"ORGANIZATION": Organization,
		"COMPANY":      Organization,
		"PERSON":       Person,
		"PER":          Person,
		"DATE":         Date,
		"MONEY":        Money,
		"GPE":          Location,
		"LOC":          Location,
		"LOCATION":     Location,
		"FAC":          Location,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if strings.EqualFold(normalized, string(cat)) {
			return cat, true
		}
	}

	return "", false
}
