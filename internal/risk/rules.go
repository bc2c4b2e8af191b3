package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type rulesFile struct {
	Risks []Definition `yaml:"risks"`
}

// Merge overlays overrides by category; new categories are appended.
func Merge(base, overrides []Definition) []Definition {
	out := append([]Definition(nil), base...)
	idx := make(map[string]int, len(out))
	for i, d := range out {
		idx[d.Category] = i
	}
	for _, o := range overrides {
		if i, ok := idx[o.Category]; ok {
			out[i] = o
			continue
		}
		idx[o.Category] = len(out)
		out = append(out, o)
	}
	return out
}

// ParseRules reads the `risks:` section of a rules document.
func ParseRules(data []byte) (*Registry, error) {
	var f rulesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse risk rules: %w", err)
	}
	return NewRegistry(Merge(DefaultDefinitions(), f.Risks))
}

func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read risk rules: %w", err)
	}
	return ParseRules(data)
}
