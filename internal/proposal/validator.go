package proposal

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/doccollate/internal/common"
	"github.com/joseph-ayodele/doccollate/internal/llm"
)

// Schema is the JSON schema of a proposal. Validation is structural only.
func Schema() map[string]any {
	placeholderProps := map[string]any{}
	for _, p := range PlaceholderFields {
		placeholderProps[p] = map[string]any{"type": "string"}
	}

	tableProps := map[string]any{}
	tableNames := make([]string, 0, len(TableSpecs))
	for _, ts := range TableSpecs {
		rowProps := map[string]any{}
		for _, k := range ts.Keys {
			rowProps[k] = map[string]any{"type": "string"}
		}
		table := map[string]any{
			"type":     "array",
			"minItems": ts.MinRows,
			"items": map[string]any{
				"type":                 "object",
				"properties":           rowProps,
				"required":             ts.Keys,
				"additionalProperties": false,
			},
		}
		if ts.Exact {
			table["maxItems"] = ts.MinRows
		}
		tableProps[ts.Name] = table
		tableNames = append(tableNames, ts.Name)
	}

	return map[string]any{
		"type":                 "object",
		"required":             []string{"placeholders", "tables"},
		"additionalProperties": false,
		"properties": map[string]any{
			"placeholders": map[string]any{
				"type":                 "object",
				"properties":           placeholderProps,
				"required":             PlaceholderFields,
				"additionalProperties": false,
			},
			"tables": map[string]any{
				"type":                 "object",
				"properties":           tableProps,
				"required":             tableNames,
				"additionalProperties": false,
			},
			"evidence": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"required":             []string{"field", "chunks"},
					"additionalProperties": false,
					"properties": map[string]any{
						"field":  map[string]any{"type": "string"},
						"chunks": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
				},
			},
		},
	}
}

// Validator checks proposals against Schema, compiled once.
type Validator struct {
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewValidator(logger *slog.Logger) (*Validator, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s, err := llm.CompileSchema(Schema())
	if err != nil {
		return nil, common.WrapError(err, "compile proposal schema")
	}
	return &Validator{schema: s, logger: logger}, nil
}

// Validate returns one "<instance path>: <message>" entry per leaf schema
// error. An empty result means raw is a valid proposal.
func (v *Validator) Validate(raw []byte) []string {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return []string{fmt.Sprintf("/: invalid JSON: %v", err)}
	}
	return v.ValidateValue(doc)
}

// ValidateValue validates an already decoded JSON value.
func (v *Validator) ValidateValue(doc any) []string {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return []string{"/: " + err.Error()}
	}
	var out []string
	collectLeaves(ve, &out)
	slices.Sort(out)
	out = slices.Compact(out)
	v.logger.Debug("proposal.validate.errors", "count", len(out))
	return out
}

// ValidateDocument validates a typed proposal through its JSON form.
func (v *Validator) ValidateDocument(doc *Document) []string {
	b, err := json.Marshal(doc)
	if err != nil {
		return []string{"/: " + err.Error()}
	}
	return v.Validate(b)
}

func collectLeaves(ve *jsonschema.ValidationError, out *[]string) {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		*out = append(*out, loc+": "+ve.Message)
		return
	}
	for _, c := range ve.Causes {
		collectLeaves(c, out)
	}
}
