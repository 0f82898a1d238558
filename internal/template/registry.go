package template

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/viajora/leadnotify/internal/domain"
)

// Registry holds registered notification templates. Templates are immutable
// once registered.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]domain.Template
}

func NewRegistry() *Registry {
	return &Registry{
		templates: make(map[string]domain.Template),
	}
}

func (r *Registry) Register(t domain.Template) error {
	if err := t.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.templates[t.ID]; exists {
		return fmt.Errorf("%w: template %q already registered", domain.ErrValidation, t.ID)
	}
	r.templates[t.ID] = t
	return nil
}

func (r *Registry) Get(id string) (domain.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.templates[strings.TrimSpace(id)]
	if !ok {
		return domain.Template{}, fmt.Errorf("%w: %q", domain.ErrTemplateNotFound, id)
	}
	return t, nil
}

func (r *Registry) List() []domain.Template {
	r.mu.RLock()
	defer r.mu.RUnlock()

	templates := make([]domain.Template, 0, len(r.templates))
	for _, t := range r.templates {
		templates = append(templates, t)
	}
	sort.Slice(templates, func(i, j int) bool { return templates[i].ID < templates[j].ID })
	return templates
}

// Rendered is the output of rendering a template against caller data.
type Rendered struct {
	Subject string
	HTML    string
	Text    string
}

// Renderer renders registered templates. Missing required fields fail the
// render; unresolved placeholders do not.
type Renderer struct {
	registry *Registry
}

func NewRenderer(registry *Registry) (*Renderer, error) {
	if registry == nil {
		return nil, fmt.Errorf("template registry is required")
	}
	return &Renderer{registry: registry}, nil
}

func (r *Renderer) Render(templateID string, data map[string]any) (*Rendered, error) {
	tmpl, err := r.registry.Get(templateID)
	if err != nil {
		return nil, err
	}

	if missing := tmpl.MissingFields(data); len(missing) > 0 {
		return nil, &domain.MissingFieldsError{TemplateID: tmpl.ID, Fields: missing}
	}

	merged := MergeData(tmpl.DefaultData, data)

	subject, err := Expand(tmpl.Subject, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to render subject for template %q: %w", tmpl.ID, err)
	}
	html, err := Expand(tmpl.HTMLTemplate, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to render html body for template %q: %w", tmpl.ID, err)
	}
	text, err := Expand(tmpl.TextTemplate, merged)
	if err != nil {
		return nil, fmt.Errorf("failed to render text body for template %q: %w", tmpl.ID, err)
	}

	return &Rendered{Subject: subject, HTML: html, Text: text}, nil
}

// MergeData layers caller data over template defaults without mutating either
// map.
func MergeData(defaults, data map[string]any) map[string]any {
	merged := make(map[string]any, len(defaults)+len(data))
	for k, v := range defaults {
		merged[k] = v
	}
	for k, v := range data {
		merged[k] = v
	}
	return merged
}
