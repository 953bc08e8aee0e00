package analysis

import (
	"fmt"
	"regexp"
	"strings"

	apperrors "github.com/anime-shed/ux-critique-go/internal/errors"
	"github.com/anime-shed/ux-critique-go/internal/logger"
	"github.com/anime-shed/ux-critique-go/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// ResponseShape tags the top-level shape of a provider reply
type ResponseShape int

const (
	// ShapeUnparseable is anything that does not reduce to an entry array
	ShapeUnparseable ResponseShape = iota
	// ShapeRawArray is a bare JSON array of entries
	ShapeRawArray
	// ShapeSingleKeyWrapped is an object with one key holding the array, e.g. {"analysis": [...]}
	ShapeSingleKeyWrapped
)

func (s ResponseShape) String() string {
	switch s {
	case ShapeRawArray:
		return "raw_array"
	case ShapeSingleKeyWrapped:
		return "single_key_wrapped"
	default:
		return "unparseable"
	}
}

// DecodedResponse is the result of classifying a provider reply
type DecodedResponse struct {
	Shape ResponseShape
	// WrapperKey is set for ShapeSingleKeyWrapped
	WrapperKey string
	items      gjson.Result
}

var (
	openingFence = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	closingFence = regexp.MustCompile("\\s*```$")
)

// StripFences removes an opening fence marker (optionally tagged, e.g. json)
// and a closing marker, each independently, plus surrounding whitespace.
// Replies cut off before the closing marker are still unfenced.
func StripFences(raw string) string {
	text := strings.TrimSpace(raw)
	text = openingFence.ReplaceAllString(text, "")
	text = closingFence.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Decode classifies already-unfenced text into one of the response shapes
func Decode(text string) DecodedResponse {
	if !gjson.Valid(text) {
		return DecodedResponse{Shape: ShapeUnparseable}
	}

	parsed := gjson.Parse(text)
	switch {
	case parsed.IsArray():
		return DecodedResponse{Shape: ShapeRawArray, items: parsed}
	case parsed.IsObject():
		var keys []string
		var value gjson.Result
		parsed.ForEach(func(key, v gjson.Result) bool {
			keys = append(keys, key.String())
			value = v
			return true
		})
		if len(keys) == 1 && value.IsArray() {
			return DecodedResponse{Shape: ShapeSingleKeyWrapped, WrapperKey: keys[0], items: value}
		}
	}
	return DecodedResponse{Shape: ShapeUnparseable}
}

// Normalizer reduces provider text to validated critique entries.
// Entries that fail validation are dropped; the rest are kept in order.
type Normalizer struct {
	sampleSize int
}

// NewNormalizer creates a normalizer that surfaces sampleSize characters of
// unreadable replies.
func NewNormalizer(sampleSize int) *Normalizer {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &Normalizer{sampleSize: sampleSize}
}

// Normalize parses rawText into critique entries. It returns the number of
// dropped entries alongside the kept ones.
func (n *Normalizer) Normalize(rawText string) ([]models.CritiqueEntry, int, error) {
	decoded := Decode(StripFences(rawText))

	switch decoded.Shape {
	case ShapeRawArray, ShapeSingleKeyWrapped:
		entries := make([]models.CritiqueEntry, 0, len(decoded.items.Array()))
		dropped := 0
		for i, item := range decoded.items.Array() {
			entry, err := parseEntry(item)
			if err != nil {
				dropped++
				logger.WithFields(logrus.Fields{
					"index":  i,
					"reason": err.Error(),
				}).Debug("Dropping invalid critique entry")
				continue
			}
			entries = append(entries, entry)
		}
		if dropped > 0 {
			logger.WithFields(logrus.Fields{
				"shape":   decoded.Shape.String(),
				"kept":    len(entries),
				"dropped": dropped,
			}).Warn("Provider response contained invalid critique entries")
		}
		return entries, dropped, nil
	default:
		sample := n.sample(rawText)
		logger.WithField("sample", sample).Warn("Provider response is not a critique array")
		return nil, 0, apperrors.NewMalformedResponseError(sample, nil)
	}
}

func (n *Normalizer) sample(raw string) string {
	runes := []rune(raw)
	if len(runes) <= n.sampleSize {
		return raw
	}
	return string(runes[:n.sampleSize])
}

func parseEntry(item gjson.Result) (models.CritiqueEntry, error) {
	if !item.IsObject() {
		return models.CritiqueEntry{}, fmt.Errorf("entry is %s, not an object", item.Type)
	}

	var entry models.CritiqueEntry

	categoryField := item.Get("category")
	if categoryField.Type != gjson.String {
		return entry, fmt.Errorf("category must be a string")
	}
	category, ok := models.ParseCategory(categoryField.Str)
	if !ok {
		return entry, fmt.Errorf("unknown category %q", categoryField.Str)
	}
	entry.Category = category

	required := []struct {
		name   string
		target *string
	}{
		{"issue", &entry.Issue},
		{"suggestion", &entry.Suggestion},
		{"reference", &entry.Reference},
	}
	for _, f := range required {
		v := item.Get(f.name)
		if v.Type != gjson.String || strings.TrimSpace(v.Str) == "" {
			return entry, fmt.Errorf("%s must be a non-empty string", f.name)
		}
		*f.target = v.Str
	}

	// Extended fields: malformed values are omitted, the entry is kept
	if p := item.Get("priority"); p.Type == gjson.Number {
		if v := int(p.Int()); v >= 1 && v <= 5 && float64(v) == p.Num {
			entry.Priority = v
		}
	}
	if c := item.Get("component"); c.Type == gjson.String {
		entry.Component = c.Str
	}
	if i := item.Get("impact"); i.Type == gjson.String {
		entry.Impact = i.Str
	}
	if m := item.Get("metrics"); m.IsArray() {
		for _, metric := range m.Array() {
			if metric.Type == gjson.String && metric.Str != "" {
				entry.Metrics = append(entry.Metrics, metric.Str)
			}
		}
	}
	if e := item.Get("effort"); e.Type == gjson.String {
		if effort, ok := models.ParseEffort(e.Str); ok {
			entry.Effort = effort
		}
	}

	return entry, nil
}
