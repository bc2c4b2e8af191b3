// Package entities groups recognized names into the five output categories.
package entities

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/joseph-ayodele/legal-analyzer/constants"
	"github.com/joseph-ayodele/legal-analyzer/internal/entity"
)

const DefaultMaxPerCategory = 20

type Extractor struct {
	rec    Recognizer
	max    int
	logger *slog.Logger
}

// NewExtractor uses the rule recognizer when rec is nil.
func NewExtractor(rec Recognizer, maxPerCategory int, logger *slog.Logger) *Extractor {
	if rec == nil {
		rec = NewRuleRecognizer()
	}
	if maxPerCategory <= 0 {
		maxPerCategory = DefaultMaxPerCategory
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{rec: rec, max: maxPerCategory, logger: logger}
}

// Extract recognizes entities in text. A normalized form lands in the first
// category it was seen in; each category keeps the first max distinct texts.
func (x *Extractor) Extract(ctx context.Context, text string) (entity.Entities, error) {
	out := entity.EmptyEntities()
	if err := ctx.Err(); err != nil {
		return out, err
	}

	seen := make(map[string]struct{})
	dropped := 0
	for _, sp := range x.rec.Recognize(text) {
		cat, ok := constants.CategoryForLabel(sp.Label)
		if !ok {
			continue
		}
		key := DedupKey(sp.Text)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		list := out.List(cat)
		if len(*list) >= x.max {
			dropped++
			continue
		}
		*list = append(*list, strings.Join(strings.Fields(sp.Text), " "))
	}
	if dropped > 0 {
		x.logger.Debug("entities.capped", "dropped", dropped, "max_per_category", x.max)
	}
	return out, nil
}

// DedupKey folds case, compatibility forms and whitespace.
func DedupKey(s string) string {
	s = norm.NFKC.String(s)
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
