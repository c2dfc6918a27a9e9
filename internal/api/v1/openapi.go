package apiv1

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// LoadSpec parses and validates the served OpenAPI document. The router calls
// this at startup so a broken document fails fast instead of being served to
// the docs UI.
func LoadSpec(path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("validate openapi document: %w", err)
	}
	return doc, nil
}
