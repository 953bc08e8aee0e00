package prompt

import (
	"strings"
	"testing"
)

func TestBuilder_Build_NoContext(t *testing.T) {
	b := NewBuilder(NewDetailedTemplate())

	for _, ctx := range []string{"", "   ", "\n\t"} {
		if got := b.Build(ctx); got != detailedText {
			t.Errorf("Expected bare template for context %q", ctx)
		}
	}
}

func TestBuilder_Build_WithContext(t *testing.T) {
	b := NewBuilder(NewChecklistTemplate())

	got := b.Build("checkout page for a grocery app")

	if !strings.HasPrefix(got, "**User-provided context:**") {
		t.Errorf("Expected context block first, got: %.60s", got)
	}
	if !strings.Contains(got, `"checkout page for a grocery app"`) {
		t.Error("Expected the user context to be quoted in the prompt")
	}
	if !strings.HasSuffix(got, checklistText) {
		t.Error("Expected the template text to follow the context block")
	}
}

func TestBuilder_SetTemplate(t *testing.T) {
	b := NewBuilder(NewDetailedTemplate())
	if b.GetCurrentTemplate() != "detailed" {
		t.Errorf("Expected detailed, got %s", b.GetCurrentTemplate())
	}

	b.SetTemplate(NewChecklistTemplate())
	if b.GetCurrentTemplate() != "checklist" {
		t.Errorf("Expected checklist, got %s", b.GetCurrentTemplate())
	}
}

func TestTemplateByName(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		wantErr bool
	}{
		{"", "detailed", false},
		{"detailed", "detailed", false},
		{"Checklist", "checklist", false},
		{"verbose", "", true},
	}

	for _, tt := range tests {
		tpl, err := TemplateByName(tt.name)
		if tt.wantErr {
			if err == nil {
				t.Errorf("Expected error for %q", tt.name)
			}
			continue
		}
		if err != nil {
			t.Fatalf("Unexpected error for %q: %v", tt.name, err)
		}
		if tpl.GetTemplateName() != tt.want {
			t.Errorf("TemplateByName(%q) = %s, want %s", tt.name, tpl.GetTemplateName(), tt.want)
		}
	}
}

func TestTemplates_RequestJSONArray(t *testing.T) {
	for _, tpl := range []Template{NewChecklistTemplate(), NewDetailedTemplate()} {
		text := tpl.Text()
		for _, field := range []string{`"category"`, `"issue"`, `"suggestion"`, `"reference"`} {
			if !strings.Contains(text, field) {
				t.Errorf("%s template does not mention %s", tpl.GetTemplateName(), field)
			}
		}
	}
}
