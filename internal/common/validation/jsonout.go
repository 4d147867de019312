// Package validation centralizes defensive parsing of LLM structured output.
//
// Model responses are JSON in the best case, and JSON wrapped in markdown code
// fences with // comments and trailing commas in the usual case. Every
// component that asks a model for JSON goes through ExtractJSON + DecodeStrict
// rather than rolling its own cleanup.
package validation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var (
	fenceRe         = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)\\s*```")
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*//.*$`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[\]}])`)
)

// ExtractJSON pulls a JSON payload out of raw model output. It prefers the
// first fenced code block, then falls back to the whole text. Line comments
// and trailing commas are stripped before the result is checked for validity.
func ExtractJSON(raw string) ([]byte, error) {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		if cleaned, ok := cleanAndCheck(m[1]); ok {
			return cleaned, nil
		}
	}

	if cleaned, ok := cleanAndCheck(raw); ok {
		return cleaned, nil
	}

	return nil, fmt.Errorf("no parseable JSON payload in model output")
}

func cleanAndCheck(s string) ([]byte, bool) {
	s = lineCommentRe.ReplaceAllString(s, "")
	s = trailingCommaRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	if s == "" || !json.Valid([]byte(s)) {
		return nil, false
	}
	return []byte(s), true
}

// ValidateSchema validates a JSON document against a JSON-Schema definition.
func ValidateSchema(document []byte, schema string) error {
	schemaLoader := gojsonschema.NewStringLoader(schema)
	documentLoader := gojsonschema.NewBytesLoader(document)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("output validation failed: %v", errs)
	}

	return nil
}

// DecodeStrict extracts the JSON payload from raw model output, validates it
// against the given schema, and unmarshals it into out. Any failure means the
// caller should use its deterministic fallback.
func DecodeStrict(raw string, schema string, out interface{}) error {
	doc, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	if err := ValidateSchema(doc, schema); err != nil {
		return err
	}
	if err := json.Unmarshal(doc, out); err != nil {
		return fmt.Errorf("unmarshal model output: %w", err)
	}
	return nil
}
