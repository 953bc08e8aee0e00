// Package prompt holds the versioned critique instructions sent to the
// providers and assembles them with optional user context.
package prompt

import (
	"fmt"
	"strings"
)

// Template is one versioned critique instruction
type Template interface {
	Text() string
	GetTemplateName() string
}

// ChecklistTemplate is the short five-criterion checklist
type ChecklistTemplate struct{}

// NewChecklistTemplate creates the checklist template
func NewChecklistTemplate() Template {
	return ChecklistTemplate{}
}

// Text returns the instruction text
func (ChecklistTemplate) Text() string { return checklistText }

// GetTemplateName returns the template name
func (ChecklistTemplate) GetTemplateName() string { return "checklist" }

// DetailedTemplate demands 3-7 entries in the extended schema
type DetailedTemplate struct{}

// NewDetailedTemplate creates the detailed template
func NewDetailedTemplate() Template {
	return DetailedTemplate{}
}

// Text returns the instruction text
func (DetailedTemplate) Text() string { return detailedText }

// GetTemplateName returns the template name
func (DetailedTemplate) GetTemplateName() string { return "detailed" }

// TemplateByName resolves a configured variant name
func TemplateByName(name string) (Template, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "detailed":
		return NewDetailedTemplate(), nil
	case "checklist":
		return NewChecklistTemplate(), nil
	default:
		return nil, fmt.Errorf("unknown prompt template: %q", name)
	}
}

// Builder assembles the final instruction sent with each image
type Builder struct {
	template Template
}

// NewBuilder creates a builder for the given template
func NewBuilder(template Template) *Builder {
	return &Builder{template: template}
}

// SetTemplate changes the template used by Build
func (b *Builder) SetTemplate(template Template) {
	b.template = template
}

// GetCurrentTemplate returns the current template name
func (b *Builder) GetCurrentTemplate() string {
	return b.template.GetTemplateName()
}

// Build returns the instruction text, prefixed with a context block when
// userContext is not blank.
func (b *Builder) Build(userContext string) string {
	base := b.template.Text()
	if strings.TrimSpace(userContext) == "" {
		return base
	}
	return fmt.Sprintf("**User-provided context:**\n%q\n\n"+
		"Using the context above, analyze the following image according to the instructions below.\n\n"+
		"---\n\n%s", userContext, base)
}
