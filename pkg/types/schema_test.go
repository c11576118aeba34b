package types

import "testing"

func TestValidateOutputSchema(t *testing.T) {
	if err := ValidateOutputSchema(nil); err != nil {
		t.Errorf("empty schema should be valid, got %v", err)
	}

	valid := []byte(`{"type": "object", "properties": {"price": {"type": "number"}}}`)
	if err := ValidateOutputSchema(valid); err != nil {
		t.Errorf("expected valid schema to pass, got %v", err)
	}

	invalid := []byte(`{"type": "object", "properties": [1, 2, 3]}`)
	if err := ValidateOutputSchema(invalid); err == nil {
		t.Error("expected invalid schema to fail")
	}
}
