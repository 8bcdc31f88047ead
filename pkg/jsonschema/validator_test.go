package jsonschema

import (
	"errors"
	"strings"
	"testing"
)

const counterSchema = `{
	"type": "object",
	"required": ["status", "count"],
	"properties": {
		"status": {"const": "success"},
		"count": {"type": "integer", "minimum": 0}
	}
}`

func TestValidator_Validate(t *testing.T) {
	v, err := Compile(counterSchema)
	if err != nil {
		t.Fatalf("Compile() error = %v", err)
	}

	tests := []struct {
		name        string
		body        string
		wantValid   bool
		wantSchema  bool // the failure is a schema violation rather than bad JSON
		wantMessage string
	}{
		{name: "valid", body: `{"status":"success","count":42}`, wantValid: true},
		{name: "missing property", body: `{"status":"success"}`, wantSchema: true, wantMessage: "count"},
		{name: "wrong const", body: `{"status":"failed","count":1}`, wantSchema: true, wantMessage: "/status"},
		{name: "negative count", body: `{"status":"success","count":-1}`, wantSchema: true, wantMessage: "/count"},
		{name: "not an integer", body: `{"status":"success","count":1.5}`, wantSchema: true},
		{name: "not JSON", body: `<html>`, wantMessage: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate([]byte(tt.body))
			if tt.wantValid {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() error = nil, want error")
			}

			var verrs ValidationErrors
			if got := errors.As(err, &verrs); got != tt.wantSchema {
				t.Errorf("errors.As(ValidationErrors) = %v, want %v (err = %v)", got, tt.wantSchema, err)
			}
			if tt.wantMessage != "" && !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("Validate() error = %q, want it to mention %q", err, tt.wantMessage)
			}
		})
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	if _, err := Compile(`{"type": `); err == nil {
		t.Error("Compile() expected error for malformed schema")
	}
	if _, err := Compile(`{"type": "no-such-type"}`); err == nil {
		t.Error("Compile() expected error for unknown type")
	}
}

func TestValidateWithErrors(t *testing.T) {
	valid, errs := ValidateWithErrors(`{"status":"success","count":0}`, counterSchema)
	if !valid || errs != nil {
		t.Errorf("ValidateWithErrors() = %v, %v; want true, nil", valid, errs)
	}

	valid, errs = ValidateWithErrors(`{}`, counterSchema)
	if valid {
		t.Error("ValidateWithErrors() = true for empty object")
	}
	if len(errs) == 0 {
		t.Error("ValidateWithErrors() returned no errors for empty object")
	}

	valid, errs = ValidateWithErrors(`{}`, `not a schema`)
	if valid || len(errs) != 1 || !strings.Contains(errs[0].Error(), "invalid schema") {
		t.Errorf("ValidateWithErrors() with bad schema = %v, %v", valid, errs)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{errors.New("first"), errors.New("second")}
	if got := errs.Error(); got != "first; second" {
		t.Errorf("Error() = %q, want %q", got, "first; second")
	}
	if got := (ValidationErrors{}).Error(); got != "" {
		t.Errorf("empty Error() = %q, want empty", got)
	}
}
