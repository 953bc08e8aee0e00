package models

import "strings"

// Category classifies a critique finding
type Category string

const (
	CategoryUI            Category = "UI"
	CategoryUX            Category = "UX"
	CategoryAccessibility Category = "Accessibility"
	CategoryPerformance   Category = "Performance"
	CategoryBusiness      Category = "Business"
)

var categories = []Category{
	CategoryUI,
	CategoryUX,
	CategoryAccessibility,
	CategoryPerformance,
	CategoryBusiness,
}

// ParseCategory matches s case-insensitively against the known categories
// and returns the canonical spelling.
func ParseCategory(s string) (Category, bool) {
	s = strings.TrimSpace(s)
	for _, c := range categories {
		if strings.EqualFold(s, string(c)) {
			return c, true
		}
	}
	return "", false
}

// Effort is the implementation effort estimate of a suggestion
type Effort string

const (
	EffortLow    Effort = "Low"
	EffortMedium Effort = "Medium"
	EffortHigh   Effort = "High"
)

// ParseEffort matches s case-insensitively against the known effort levels.
func ParseEffort(s string) (Effort, bool) {
	s = strings.TrimSpace(s)
	for _, e := range []Effort{EffortLow, EffortMedium, EffortHigh} {
		if strings.EqualFold(s, string(e)) {
			return e, true
		}
	}
	return "", false
}

// CritiqueEntry is one structured UX/UI finding returned by a provider.
// Category, Issue, Suggestion and Reference are always present; the
// remaining fields are filled only by the detailed prompt variant.
type CritiqueEntry struct {
	Category   Category `json:"category"`
	Issue      string   `json:"issue"`
	Suggestion string   `json:"suggestion"`
	Reference  string   `json:"reference"`

	// Extended fields
	Priority  int      `json:"priority,omitempty"`
	Component string   `json:"component,omitempty"`
	Impact    string   `json:"impact,omitempty"`
	Metrics   []string `json:"metrics,omitempty"`
	Effort    Effort   `json:"effort,omitempty"`
}

// AnalysisResult is the ordered outcome of one analysis invocation
type AnalysisResult struct {
	Entries  []CritiqueEntry `json:"entries"`
	Provider Provider        `json:"provider"`
	Model    string          `json:"model,omitempty"`

	// Dropped counts entries that failed validation and were discarded
	Dropped int `json:"dropped,omitempty"`
}
