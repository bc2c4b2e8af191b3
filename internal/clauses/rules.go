package clauses

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Clauses []Definition `yaml:"clauses"`
}

// Merge overlays overrides onto base: same id replaces in place, disabled
// removes, new ids are appended.
func Merge(base, overrides []Definition) []Definition {
	out := append([]Definition(nil), base...)
	idx := make(map[string]int, len(out))
	for i, d := range out {
		idx[d.ID] = i
	}
	for _, o := range overrides {
		if i, ok := idx[o.ID]; ok {
			out[i] = o
			continue
		}
		idx[o.ID] = len(out)
		out = append(out, o)
	}
	return out
}

// ParseRules reads the `clauses:` section of a rules document and merges it
// with the defaults.
func ParseRules(data []byte) (*Registry, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse clause rules: %w", err)
	}
	return NewRegistry(Merge(DefaultDefinitions(), f.Clauses))
}

// LoadRegistry returns the default registry when path is empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clause rules: %w", err)
	}
	return ParseRules(data)
}
