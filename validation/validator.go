package validation

import (
	"fmt"
	"strings"

	"github.com/kbukum/rendergraph/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Validate returns an AppError if there are validation errors, nil otherwise.
func (v *Validator) Validate() *errors.AppError {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.errors))
	for i, e := range v.errors {
		messages[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}

	appErr := errors.Validation(strings.Join(messages, "; "))
	appErr.Details = map[string]any{
		"fields": v.errors,
	}

	return appErr
}

// Required checks if a string is non-empty.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Identifier checks that a non-empty string is usable as a pass, port or option name.
func (v *Validator) Identifier(field, value string) *Validator {
	if value == "" {
		return v
	}
	if !IsIdentifier(value) {
		v.AddError(field, "must start with a letter or underscore and contain only letters, digits, '_' or '-'")
	}
	return v
}

// Range checks if a number is within a closed range. Nil bounds are open.
func (v *Validator) Range(field string, value float64, minVal, maxVal *float64) *Validator {
	if minVal != nil && value < *minVal {
		v.AddError(field, fmt.Sprintf("must be at least %g", *minVal))
	}
	if maxVal != nil && value > *maxVal {
		v.AddError(field, fmt.Sprintf("must be %g or less", *maxVal))
	}
	return v
}

// OneOf checks if a value is one of the allowed values.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	return v
}

// Unique checks that no value appears twice, reporting each repeat once.
func (v *Validator) Unique(field string, values []string) *Validator {
	seen := make(map[string]int, len(values))
	for _, s := range values {
		seen[s]++
		if seen[s] == 2 {
			v.AddError(field, fmt.Sprintf("%q is declared more than once", s))
		}
	}
	return v
}

// Custom applies a custom validation condition.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}
