package semantic

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/noah-isme/cro-score-api/internal/scoring"
)

const schemaURL = "cro-score-response.json"

// responseSchema is the per-request output contract: every requested
// criterion is a required property and nothing else is allowed. raw is the
// document sent to the provider.
type responseSchema struct {
	raw      json.RawMessage
	compiled *jsonschema.Schema
}

func buildSchema(criteria []scoring.Criterion) (responseSchema, error) {
	criterionSchema := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"score", "rationale", "suggestions"},
		"properties": map[string]any{
			"score":       map[string]any{"type": "integer"},
			"rationale":   map[string]any{"type": "string"},
			"suggestions": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		},
	}

	keys := make([]string, len(criteria))
	properties := make(map[string]any, len(criteria))
	for i, c := range criteria {
		keys[i] = c.Key
		properties[c.Key] = criterionSchema
	}

	scores := map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             keys,
		"properties":           properties,
	}

	// Strict provider modes need every property listed as required; notes
	// stays optional when the answer is checked.
	raw, err := json.Marshal(envelopeSchema(scores, "scores", "notes"))
	if err != nil {
		return responseSchema{}, fmt.Errorf("marshal response schema: %w", err)
	}
	accepted, err := json.Marshal(envelopeSchema(scores, "scores"))
	if err != nil {
		return responseSchema{}, fmt.Errorf("marshal validation schema: %w", err)
	}

	compiled, err := jsonschema.CompileString(schemaURL, string(accepted))
	if err != nil {
		return responseSchema{}, fmt.Errorf("compile response schema: %w", err)
	}

	return responseSchema{raw: raw, compiled: compiled}, nil
}

func envelopeSchema(scores map[string]any, required ...string) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             required,
		"properties": map[string]any{
			"scores": scores,
			"notes":  map[string]any{"type": "string"},
		},
	}
}

// validate decodes content as JSON and checks it against the schema.
func (s responseSchema) validate(content string) error {
	decoder := json.NewDecoder(strings.NewReader(content))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return fmt.Errorf("response is not valid json: %w", err)
	}
	if decoder.More() {
		return fmt.Errorf("response contains trailing data")
	}

	if err := s.compiled.Validate(value); err != nil {
		return err
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose some models add
// around the object.
func extractJSON(content string) string {
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")

	start := strings.IndexByte(trimmed, '{')
	end := strings.LastIndexByte(trimmed, '}')
	if start < 0 || end < start {
		return strings.TrimSpace(trimmed)
	}
	return trimmed[start : end+1]
}
