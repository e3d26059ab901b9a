package catalog

import (
	"strings"
)

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError is returned when user input breaks a catalog rule.
// Problems keeps the order in which fields were checked.
type ValidationError struct {
	Problems []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid input"
	}
	return e.Problems[0].Message
}

// Field returns the first rejected field name.
func (e *ValidationError) Field() string {
	if len(e.Problems) == 0 {
		return ""
	}
	return e.Problems[0].Field
}

// For returns the message for field, or "" when the field passed.
func (e *ValidationError) For(field string) string {
	for _, p := range e.Problems {
		if strings.EqualFold(p.Field, field) {
			return p.Message
		}
	}
	return ""
}

func (e *ValidationError) add(field, msg string) {
	e.Problems = append(e.Problems, FieldError{Field: field, Message: msg})
}

func (e *ValidationError) orNil() error {
	if len(e.Problems) == 0 {
		return nil
	}
	return e
}

func invalid(field, msg string) *ValidationError {
	return &ValidationError{Problems: []FieldError{{Field: field, Message: msg}}}
}
