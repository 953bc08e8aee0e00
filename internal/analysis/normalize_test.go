package analysis

import (
	"strings"
	"testing"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoEntries = `[
  {"category":"UI","issue":"Low contrast","suggestion":"Use #1F2937 on white","reference":"WCAG 1.4.3"},
  {"category":"UX","issue":"Hidden checkout","suggestion":"Pin the CTA","reference":"Fitts's law"}
]`

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `[1]`, `[1]`},
		{"surrounding whitespace", "\n  [1] \n", `[1]`},
		{"untagged fence", "```\n[1]\n```", `[1]`},
		{"json fence", "```json\n[1]\n```", `[1]`},
		{"uppercase tag", "```JSON\n{\"a\":[]}\n```", `{"a":[]}`},
		{"fence on one line", "```[1]```", `[1]`},
		{"fence with padding", "  ```json\n\n[1]\n\n```  ", `[1]`},
		{"opening fence only", "```json\n[1]", `[1]`},
		{"closing fence only", "[1]\n```", `[1]`},
		{"lone marker", "```", ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecode_Shapes(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		want       ResponseShape
		wrapperKey string
	}{
		{"raw array", `[{"category":"UI"}]`, ShapeRawArray, ""},
		{"empty array", `[]`, ShapeRawArray, ""},
		{"analysis wrapper", `{"analysis":[]}`, ShapeSingleKeyWrapped, "analysis"},
		{"arbitrary wrapper key", `{"insights":[{}]}`, ShapeSingleKeyWrapped, "insights"},
		{"two keys", `{"analysis":[],"note":"x"}`, ShapeUnparseable, ""},
		{"single key not array", `{"analysis":"none"}`, ShapeUnparseable, ""},
		{"empty object", `{}`, ShapeUnparseable, ""},
		{"scalar", `42`, ShapeUnparseable, ""},
		{"prose", `Here are my findings`, ShapeUnparseable, ""},
		{"truncated", `[{"category":"UI"`, ShapeUnparseable, ""},
		{"empty", ``, ShapeUnparseable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decode(tt.in)
			assert.Equal(t, tt.want, got.Shape)
			assert.Equal(t, tt.wrapperKey, got.WrapperKey)
		})
	}
}

func TestNormalize_RawArray(t *testing.T) {
	entries, dropped, err := NewNormalizer(0).Normalize(twoEntries)

	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, entries, 2)
	assert.Equal(t, models.CritiqueEntry{
		Category:   models.CategoryUI,
		Issue:      "Low contrast",
		Suggestion: "Use #1F2937 on white",
		Reference:  "WCAG 1.4.3",
	}, entries[0])
	assert.Equal(t, models.CategoryUX, entries[1].Category)
}

func TestNormalize_WrapperAndFenceEquivalence(t *testing.T) {
	n := NewNormalizer(0)
	want, _, err := n.Normalize(twoEntries)
	require.NoError(t, err)

	variants := map[string]string{
		"analysis wrapper":  `{"analysis":` + twoEntries + `}`,
		"other wrapper key": `{"critique":` + twoEntries + `}`,
		"json fence":        "```json\n" + twoEntries + "\n```",
		"untagged fence":    "```\n" + twoEntries + "\n```",
		"fenced wrapper":    "```json\n{\"analysis\":" + twoEntries + "}\n```",
		"unclosed fence":    "```json\n" + twoEntries,
		"closing fence":     twoEntries + "\n```",
	}

	for name, raw := range variants {
		t.Run(name, func(t *testing.T) {
			got, dropped, err := n.Normalize(raw)
			require.NoError(t, err)
			assert.Zero(t, dropped)
			assert.Equal(t, want, got)
		})
	}
}

func TestNormalize_EmptyArray(t *testing.T) {
	for _, raw := range []string{`[]`, `{"analysis":[]}`, "```json\n[]\n```"} {
		entries, dropped, err := NewNormalizer(0).Normalize(raw)
		require.NoError(t, err, raw)
		assert.NotNil(t, entries)
		assert.Empty(t, entries)
		assert.Zero(t, dropped)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	inputs := []string{
		"I could not analyze this image.",
		`{"analysis":[],"extra":true}`,
		`{"analysis":{"category":"UI"}}`,
		`"just a string"`,
		"```json\n[{\"category\":\"UI\"\n```",
	}

	for _, raw := range inputs {
		entries, _, err := NewNormalizer(0).Normalize(raw)
		assert.Nil(t, entries)
		require.Error(t, err, raw)

		appErr, ok := apperrors.As(err)
		require.True(t, ok)
		assert.Equal(t, apperrors.ErrorTypeMalformedResponse, appErr.Type)
		assert.Equal(t, raw, appErr.Details)
	}
}

func TestNormalize_MalformedSampleIsTruncated(t *testing.T) {
	raw := strings.Repeat("é", 500)

	_, _, err := NewNormalizer(200).Normalize(raw)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, strings.Repeat("é", 200), appErr.Details)

	_, _, err = NewNormalizer(10).Normalize(raw)
	appErr, _ = apperrors.As(err)
	assert.Equal(t, strings.Repeat("é", 10), appErr.Details)
}

func TestNormalize_DropsInvalidEntries(t *testing.T) {
	raw := `[
		{"category":"UI","issue":"a","suggestion":"b","reference":"c"},
		{"category":"Marketing","issue":"a","suggestion":"b","reference":"c"},
		{"category":"UX","issue":"","suggestion":"b","reference":"c"},
		{"category":"UX","issue":"a","suggestion":"b"},
		{"category":"UX","issue":"a","suggestion":42,"reference":"c"},
		{"category":3,"issue":"a","suggestion":"b","reference":"c"},
		"not an object",
		null,
		{"category":"ux","issue":"kept","suggestion":"b","reference":"c"}
	]`

	entries, dropped, err := NewNormalizer(0).Normalize(raw)

	require.NoError(t, err)
	assert.Equal(t, 7, dropped)
	require.Len(t, entries, 2)
	assert.Equal(t, "a", entries[0].Issue)
	assert.Equal(t, models.CategoryUX, entries[1].Category, "category is canonicalized")
	assert.Equal(t, "kept", entries[1].Issue)
}

func TestNormalize_AllInvalidYieldsEmpty(t *testing.T) {
	entries, dropped, err := NewNormalizer(0).Normalize(`[{"category":"UI"},{"issue":"x"}]`)

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 2, dropped)
}

func TestNormalize_ExtendedFields(t *testing.T) {
	raw := `[{
		"priority": 5,
		"category": "accessibility",
		"component": "Primary CTA Button",
		"issue": "Contrast 2.8:1",
		"impact": "Low-vision users miss the action",
		"suggestion": "Background #2563EB",
		"reference": "WCAG 2.1 SC 1.4.3",
		"metrics": ["conversion_rate", 7, "", "accessibility_score"],
		"effort": "low"
	}]`

	entries, _, err := NewNormalizer(0).Normalize(raw)

	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, models.CategoryAccessibility, e.Category)
	assert.Equal(t, 5, e.Priority)
	assert.Equal(t, "Primary CTA Button", e.Component)
	assert.Equal(t, "Low-vision users miss the action", e.Impact)
	assert.Equal(t, []string{"conversion_rate", "accessibility_score"}, e.Metrics)
	assert.Equal(t, models.EffortLow, e.Effort)
}

func TestNormalize_InvalidExtendedFieldsAreOmitted(t *testing.T) {
	raw := `[
		{"category":"UI","issue":"a","suggestion":"b","reference":"c","priority":9,"effort":"Huge","metrics":"conversion_rate"},
		{"category":"UI","issue":"a","suggestion":"b","reference":"c","priority":2.5,"component":7},
		{"category":"UI","issue":"a","suggestion":"b","reference":"c","priority":"3"}
	]`

	entries, dropped, err := NewNormalizer(0).Normalize(raw)

	require.NoError(t, err)
	assert.Zero(t, dropped)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Zero(t, e.Priority)
		assert.Empty(t, e.Effort)
		assert.Empty(t, e.Metrics)
		assert.Empty(t, e.Component)
	}
}
