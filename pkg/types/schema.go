package types

import (
	"encoding/json"
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// ValidateOutputSchema confirms schema is a syntactically valid JSON Schema
// document, without validating any response data against it. Requirements
// that advertise an outputSchema must pass this before being published to
// discovery (§3: "optional JSON-schema of the response").
func ValidateOutputSchema(schema json.RawMessage) error {
	if len(schema) == 0 {
		return nil
	}
	loader := gojsonschema.NewBytesLoader(schema)
	if _, err := gojsonschema.NewSchema(loader); err != nil {
		return fmt.Errorf("types: invalid output schema: %w", err)
	}
	return nil
}
