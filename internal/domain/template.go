package domain

import (
	"fmt"
	"strings"
)

// Template is a registered, reusable definition of subject and body content
// with declared required fields. Templates are registered once and read-only
// thereafter; jobs reference templates by id and never mutate them.
type Template struct {
	ID             string
	Name           string
	Type           JobType
	Subject        string
	HTMLTemplate   string
	TextTemplate   string
	RequiredFields []string
	// DefaultData is merged under caller-supplied data at render time.
	DefaultData map[string]any
	Priority    Priority
	Tags        []string
}

func (t *Template) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: template is required", ErrValidation)
	}
	if strings.TrimSpace(t.ID) == "" {
		return fmt.Errorf("%w: template id is required", ErrValidation)
	}
	if strings.TrimSpace(t.Subject) == "" {
		return fmt.Errorf("%w: template subject is required", ErrValidation)
	}
	if !t.Type.IsValid() {
		return fmt.Errorf("%w: invalid template type %q", ErrValidation, t.Type)
	}
	if !t.Priority.IsValid() {
		return fmt.Errorf("%w: invalid template priority %q", ErrValidation, t.Priority)
	}
	return nil
}

// MissingFields returns the required field names absent from data, in the
// order they were declared.
func (t *Template) MissingFields(data map[string]any) []string {
	var missing []string
	for _, field := range t.RequiredFields {
		if _, ok := data[field]; !ok {
			missing = append(missing, field)
		}
	}
	return missing
}
