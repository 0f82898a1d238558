package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation        = errors.New("validation error")
	ErrNotFound          = errors.New("not found")
	ErrTemplateNotFound  = errors.New("template not found")
	ErrNoHealthyProvider = errors.New("no healthy provider available")
)

// MissingFieldsError reports template data keys required by a template but
// absent from the caller-supplied data. It unwraps to ErrValidation.
type MissingFieldsError struct {
	TemplateID string
	Fields     []string
}

func (e *MissingFieldsError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("template %q: missing required fields: %s", e.TemplateID, strings.Join(e.Fields, ", "))
}

func (e *MissingFieldsError) Unwrap() error {
	return ErrValidation
}
