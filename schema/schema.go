// Package schema validates dynamic per-service input forms against a
// declarative field schema. Schemas are data, not code: a service defines
// its fields at runtime and validation dispatches on the field type tag.
package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FieldType is the closed set of supported form field types.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldNumber   FieldType = "number"
	FieldEmail    FieldType = "email"
	FieldCheckbox FieldType = "checkbox"
	FieldSelect   FieldType = "select"
)

// emailPattern is deliberately loose: one @, non-empty local and domain
// parts, a dot in the domain.
var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Field declares a single form field and its validation rules.
// Rules beyond Required apply only when the base type check passes.
type Field struct {
	Key       string    `json:"key"`
	Label     string    `json:"label,omitempty"`
	Type      FieldType `json:"type"`
	Required  bool      `json:"required"`
	Pattern   string    `json:"pattern,omitempty"`
	MinLength int       `json:"min_length,omitempty"`
	MaxLength int       `json:"max_length,omitempty"`
	Min       *float64  `json:"min,omitempty"`
	Max       *float64  `json:"max,omitempty"`
	Options   []string  `json:"options,omitempty"`
}

// Schema is an ordered list of field declarations.
type Schema struct {
	Fields []Field `json:"fields"`
}

// Result is the outcome of a validation pass. Errors collects every
// failing field; Normalized carries type-coerced data and is populated
// only when the input is fully valid.
type Result struct {
	Valid      bool                `json:"valid"`
	Errors     map[string][]string `json:"errors,omitempty"`
	Normalized map[string]any      `json:"normalized,omitempty"`
}

// Validate checks input against the schema. All field errors are collected
// in a single pass so the caller can report every problem at once.
func (s Schema) Validate(input map[string]any) Result {
	errs := make(map[string][]string)
	normalized := make(map[string]any, len(s.Fields))

	for _, f := range s.Fields {
		raw, present := input[f.Key]
		if !present || isEmpty(raw) {
			if f.Required {
				errs[f.Key] = append(errs[f.Key], "field is required")
			}
			continue
		}

		value, fieldErrs := f.check(raw)
		if len(fieldErrs) > 0 {
			errs[f.Key] = append(errs[f.Key], fieldErrs...)
			continue
		}
		normalized[f.Key] = value
	}

	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}
	return Result{Valid: true, Normalized: normalized}
}

// check coerces the raw value to the field's type and, if the type check
// passes, applies the remaining rules.
func (f Field) check(raw any) (any, []string) {
	switch f.Type {
	case FieldNumber:
		return f.checkNumber(raw)
	case FieldEmail:
		return f.checkEmail(raw)
	case FieldCheckbox:
		return f.checkCheckbox(raw)
	case FieldSelect:
		return f.checkSelect(raw)
	case FieldText, FieldTextarea:
		return f.checkText(raw)
	default:
		return nil, []string{fmt.Sprintf("unknown field type %q", f.Type)}
	}
}

func (f Field) checkText(raw any) (any, []string) {
	s, ok := raw.(string)
	if !ok {
		return nil, []string{"must be a string"}
	}

	var errs []string
	if f.MinLength > 0 && len(s) < f.MinLength {
		errs = append(errs, fmt.Sprintf("must be at least %d characters", f.MinLength))
	}
	if f.MaxLength > 0 && len(s) > f.MaxLength {
		errs = append(errs, fmt.Sprintf("must be at most %d characters", f.MaxLength))
	}
	if f.Pattern != "" {
		re, err := regexp.Compile(f.Pattern)
		if err != nil {
			errs = append(errs, "invalid pattern in schema")
		} else if !re.MatchString(s) {
			errs = append(errs, fmt.Sprintf("must match pattern %s", f.Pattern))
		}
	}
	if len(f.Options) > 0 && !contains(f.Options, s) {
		errs = append(errs, "must be one of the allowed options")
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return s, nil
}

func (f Field) checkNumber(raw any) (any, []string) {
	var n float64
	switch v := raw.(type) {
	case float64:
		n = v
	case float32:
		n = float64(v)
	case int:
		n = float64(v)
	case int64:
		n = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, []string{"must be a number"}
		}
		n = parsed
	default:
		return nil, []string{"must be a number"}
	}

	var errs []string
	if f.Min != nil && n < *f.Min {
		errs = append(errs, fmt.Sprintf("must be at least %g", *f.Min))
	}
	if f.Max != nil && n > *f.Max {
		errs = append(errs, fmt.Sprintf("must be at most %g", *f.Max))
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return n, nil
}

func (f Field) checkEmail(raw any) (any, []string) {
	s, ok := raw.(string)
	if !ok {
		return nil, []string{"must be a string"}
	}

	s = strings.TrimSpace(strings.ToLower(s))
	if !emailPattern.MatchString(s) {
		return nil, []string{"must be a valid email address"}
	}
	return s, nil
}

func (f Field) checkCheckbox(raw any) (any, []string) {
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off", "":
			return false, nil
		}
		return nil, []string{"must be a boolean"}
	default:
		return nil, []string{"must be a boolean"}
	}
}

func (f Field) checkSelect(raw any) (any, []string) {
	s, ok := raw.(string)
	if !ok {
		return nil, []string{"must be a string"}
	}

	if !contains(f.Options, s) {
		return nil, []string{"must be one of the allowed options"}
	}
	return s, nil
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

func contains(options []string, s string) bool {
	for _, o := range options {
		if o == s {
			return true
		}
	}
	return false
}
