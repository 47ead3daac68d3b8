package generator

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"shopgen/internal/domain"
)

var codeFence = regexp.MustCompile("(?i)```(?:json)?")

// Parse strips markdown code fences from raw model output and decodes the
// remaining JSON object. Nothing beyond fence stripping is repaired.
func Parse(raw string) (*domain.ParsedContent, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, domain.ErrEmptyResponse
	}
	cleaned := StripCodeFences(raw)
	if cleaned == "" {
		return nil, domain.ErrEmptyResponse
	}
	var parsed domain.ParsedContent
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	return &parsed, nil
}

// StripCodeFences removes every ``` marker (with an optional json tag) and trims.
func StripCodeFences(raw string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(raw, ""))
}
