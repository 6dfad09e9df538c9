package schema

import "testing"

func floatPtr(f float64) *float64 { return &f }

func TestValidateRequired(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "name", Type: FieldText, Required: true},
		{Key: "note", Type: FieldText},
	}}

	result := s.Validate(map[string]any{"note": "hello"})
	if result.Valid {
		t.Fatal("expected validation failure")
	}
	if len(result.Errors["name"]) == 0 {
		t.Error("expected an error for missing required field")
	}
	if result.Normalized != nil {
		t.Error("normalized data must be absent when errors exist")
	}

	// Whitespace-only counts as absent.
	result = s.Validate(map[string]any{"name": "   "})
	if result.Valid {
		t.Error("whitespace-only required field should fail")
	}
}

func TestValidatePattern(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "imei", Type: FieldText, Required: true, Pattern: `^[0-9]{15}$`},
	}}

	result := s.Validate(map[string]any{"imei": "12345"})
	if result.Valid {
		t.Fatal("short IMEI should fail")
	}
	if len(result.Errors["imei"]) == 0 {
		t.Error("expected field error naming imei")
	}

	result = s.Validate(map[string]any{"imei": "123456789012345"})
	if !result.Valid {
		t.Fatalf("valid IMEI rejected: %v", result.Errors)
	}
	if result.Normalized["imei"] != "123456789012345" {
		t.Errorf("normalized imei: got %v", result.Normalized["imei"])
	}
}

func TestValidateNumberCoercion(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "qty", Type: FieldNumber, Required: true, Min: floatPtr(1), Max: floatPtr(100)},
	}}

	tests := []struct {
		name  string
		input any
		valid bool
		want  float64
	}{
		{"float", 5.0, true, 5},
		{"int", 7, true, 7},
		{"numeric string", "42", true, 42},
		{"not a number", "abc", false, 0},
		{"below min", 0, false, 0},
		{"above max", 101, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Validate(map[string]any{"qty": tt.input})
			if result.Valid != tt.valid {
				t.Fatalf("valid: got %v, want %v (errors: %v)", result.Valid, tt.valid, result.Errors)
			}
			if tt.valid && result.Normalized["qty"] != tt.want {
				t.Errorf("normalized: got %v, want %v", result.Normalized["qty"], tt.want)
			}
		})
	}
}

func TestValidateEmail(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "email", Type: FieldEmail, Required: true},
	}}

	result := s.Validate(map[string]any{"email": " User@Example.COM "})
	if !result.Valid {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Normalized["email"] != "user@example.com" {
		t.Errorf("email not normalized: got %v", result.Normalized["email"])
	}

	result = s.Validate(map[string]any{"email": "not-an-email"})
	if result.Valid {
		t.Error("invalid email accepted")
	}
}

func TestValidateCheckbox(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "agree", Type: FieldCheckbox, Required: true},
	}}

	tests := []struct {
		input any
		valid bool
		want  bool
	}{
		{true, true, true},
		{"yes", true, true},
		{"0", true, false},
		{"maybe", false, false},
		{3.14, false, false},
	}

	for _, tt := range tests {
		result := s.Validate(map[string]any{"agree": tt.input})
		if result.Valid != tt.valid {
			t.Errorf("input %v: valid = %v, want %v", tt.input, result.Valid, tt.valid)
			continue
		}
		if tt.valid && result.Normalized["agree"] != tt.want {
			t.Errorf("input %v: normalized = %v, want %v", tt.input, result.Normalized["agree"], tt.want)
		}
	}
}

func TestValidateSelect(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "region", Type: FieldSelect, Required: true, Options: []string{"us", "eu"}},
	}}

	if result := s.Validate(map[string]any{"region": "eu"}); !result.Valid {
		t.Errorf("unexpected errors: %v", result.Errors)
	}
	if result := s.Validate(map[string]any{"region": "apac"}); result.Valid {
		t.Error("unknown option accepted")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	s := Schema{Fields: []Field{
		{Key: "imei", Type: FieldText, Required: true, Pattern: `^[0-9]{15}$`},
		{Key: "email", Type: FieldEmail, Required: true},
		{Key: "qty", Type: FieldNumber, Required: true},
	}}

	result := s.Validate(map[string]any{
		"imei":  "bad",
		"email": "also-bad",
		// qty missing entirely
	})

	if result.Valid {
		t.Fatal("expected failure")
	}
	for _, key := range []string{"imei", "email", "qty"} {
		if len(result.Errors[key]) == 0 {
			t.Errorf("expected collected error for %q, got %v", key, result.Errors)
		}
	}
}

func TestValidateRulesSkippedWhenTypeFails(t *testing.T) {
	// Length rules must not run when the base type check fails.
	s := Schema{Fields: []Field{
		{Key: "code", Type: FieldText, Required: true, MinLength: 5},
	}}

	result := s.Validate(map[string]any{"code": 12345})
	if result.Valid {
		t.Fatal("expected failure")
	}
	if got := result.Errors["code"]; len(got) != 1 || got[0] != "must be a string" {
		t.Errorf("expected only the type error, got %v", got)
	}
}
