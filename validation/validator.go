package validation

import (
	"fmt"
	"strings"

	"github.com/maltyxx/zenject/errors"
)

// FieldError describes one failed check on a named field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field checks and converts them into a single
// error. A failing check never stops later ones, so callers report every
// problem in one pass. Checks chain:
//
//	err := validation.New().
//	    Required("name", m.Name).
//	    Custom(fn != nil, "loader", "is nil").
//	    Validate()
type Validator struct {
	fields []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// AddError records a failed check against a field.
func (v *Validator) AddError(field, message string) {
	v.fields = append(v.fields, FieldError{Field: field, Message: message})
}

// HasErrors reports whether any check failed.
func (v *Validator) HasErrors() bool {
	return len(v.fields) > 0
}

// Errors returns the recorded failures.
func (v *Validator) Errors() []FieldError {
	return v.fields
}

// Required fails when the value is empty or whitespace only.
func (v *Validator) Required(field, value string) *Validator {
	if strings.TrimSpace(value) == "" {
		v.AddError(field, "is required")
	}
	return v
}

// Custom fails with the given message when the condition is false.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Validate returns an INVALID_INPUT error carrying every recorded
// failure, or nil when all checks passed.
func (v *Validator) Validate() *errors.Error {
	return v.ValidateAs(errors.ErrCodeInvalidInput)
}

// ValidateAs is Validate with a caller-chosen error code, for callers
// whose descriptor failures belong to a more specific taxonomy entry.
func (v *Validator) ValidateAs(code errors.ErrorCode) *errors.Error {
	if !v.HasErrors() {
		return nil
	}

	messages := make([]string, len(v.fields))
	for i, f := range v.fields {
		messages[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}

	return errors.New(code, strings.Join(messages, "; ")).
		WithDetail("fields", v.fields)
}
