// Package manifest loads batch run descriptions from JSON files.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Manifest describes one batch run. It mirrors the CLI flags so that a run
// can be captured in a file and repeated.
type Manifest struct {
	Inputs        []string `json:"inputs"`
	OutputDir     string   `json:"output_dir,omitempty"`
	Filetypes     []string `json:"filetypes,omitempty"` // default pdf/docx/doc
	OCR           string   `json:"ocr,omitempty"`       // "auto" (default), "force", "off"
	RemoveAccents bool     `json:"remove_accents,omitempty"`
	Lowercase     *bool    `json:"lowercase,omitempty"` // nil -> true
	Languages     []string `json:"languages,omitempty"` // empty -> en/fr/nl
	Strict        bool     `json:"strict,omitempty"`
	Workers       int      `json:"workers,omitempty"`
}

// BuildSchema returns the manifest JSON-Schema (draft 2020-12 subset) as a
// generic map.
func BuildSchema() map[string]any {
	stringArray := map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string", "minLength": 1},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"inputs": map[string]any{
				"type":     "array",
				"items":    map[string]any{"type": "string", "minLength": 1},
				"minItems": 1,
			},
			"output_dir":     map[string]any{"type": "string"},
			"filetypes":      stringArray,
			"ocr":            map[string]any{"type": "string", "enum": []string{"auto", "force", "off"}},
			"remove_accents": map[string]any{"type": "boolean"},
			"lowercase":      map[string]any{"type": "boolean"},
			"languages":      stringArray,
			"strict":         map[string]any{"type": "boolean"},
			"workers":        map[string]any{"type": "integer", "minimum": 0},
		},
		"required": []string{"inputs"},
	}
}

// Validate checks raw manifest JSON against the schema.
func Validate(data []byte) error {
	b, err := json.Marshal(BuildSchema())
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("manifest.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("manifest.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal manifest: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("manifest does not match schema: %w", err)
	}
	return nil
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	if err := Validate(data); err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.OCR == "" {
		m.OCR = "auto"
	}
	return &m, nil
}
