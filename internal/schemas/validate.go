// Package schemas validates the JSON bundles handed over by the control layer.
package schemas

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/lien-harvester/internal/types"
)

//go:embed search_request.schema.json
var searchRequestSchema string

// ValidationError represents schema validation failures with field paths.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation error at a specific field.
type FieldError struct {
	Field   string
	Message string
}

func (ve *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("search request validation failed:\n")
	for i, err := range ve.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.Field, err.Message))
	}
	return sb.String()
}

// ValidateSearchRequest checks raw JSON from the control layer against the
// embedded search-request schema and, on success, decodes it.
func ValidateSearchRequest(raw []byte) (*types.SearchRequest, error) {
	schemaLoader := gojsonschema.NewStringLoader(searchRequestSchema)
	documentLoader := gojsonschema.NewBytesLoader(raw)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, fmt.Errorf("search request is not valid JSON: %w", err)
	}

	if !result.Valid() {
		validationErr := &ValidationError{
			Errors: make([]FieldError, 0, len(result.Errors())),
		}
		for _, desc := range result.Errors() {
			field := desc.Field()
			if field == "" {
				field = "(root)"
			}
			validationErr.Errors = append(validationErr.Errors, FieldError{
				Field:   field,
				Message: desc.Description(),
			})
		}
		return nil, validationErr
	}

	var req types.SearchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("failed to decode search request: %w", err)
	}
	req = req.WithDefaults()
	return &req, nil
}
