package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrInvalidOutput marks backend output that failed decoding or schema checks.
var ErrInvalidOutput = errors.New("invalid model output")

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	schema, err := compileSchema(schemaMap)
	if err != nil {
		return err
	}
	return validateCompiled(schema, data)
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

func validateCompiled(schema *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

var (
	summarySchemaOnce sync.Once
	summarySchema     *jsonschema.Schema
	summarySchemaErr  error
)

// DecodeSummary sanitizes, validates and decodes a backend JSON payload. The
// returned bytes are the cleaned document.
func DecodeSummary(raw []byte) (SummaryResult, []byte, error) {
	summarySchemaOnce.Do(func() {
		summarySchema, summarySchemaErr = compileSchema(BuildSummaryJSONSchema())
	})
	if summarySchemaErr != nil {
		return SummaryResult{}, raw, summarySchemaErr
	}

	cleaned, err := SanitizeSummaryJSON(raw)
	if err != nil {
		return SummaryResult{}, raw, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	if err := validateCompiled(summarySchema, cleaned); err != nil {
		return SummaryResult{}, cleaned, fmt.Errorf("%w: %w", ErrInvalidOutput, err)
	}
	var out SummaryResult
	if err := json.Unmarshal(cleaned, &out); err != nil {
		return SummaryResult{}, cleaned, fmt.Errorf("%w: unmarshal summary: %w", ErrInvalidOutput, err)
	}
	return out, cleaned, nil
}
