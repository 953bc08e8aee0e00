package analysis

import "time"

const (
	// DefaultSampleSize is the number of characters of an unreadable reply kept for diagnostics
	DefaultSampleSize = 200
	// DefaultTimeout bounds a single provider invocation
	DefaultTimeout = 55 * time.Second
)

// Options configures a Pipeline
type Options struct {
	// Prompt template variant, "detailed" or "checklist"
	PromptVariant string

	// Bound on a single provider call
	Timeout time.Duration

	// Normalization
	SampleSize int
}

// DefaultOptions returns default pipeline options
func DefaultOptions() Options {
	return Options{
		PromptVariant: "detailed",
		Timeout:       DefaultTimeout,
		SampleSize:    DefaultSampleSize,
	}
}

// ChecklistOptions returns options for the short checklist prompt
func ChecklistOptions() Options {
	opts := DefaultOptions()
	opts.PromptVariant = "checklist"
	return opts
}

// WithPromptVariant selects the prompt template
func (opts Options) WithPromptVariant(variant string) Options {
	opts.PromptVariant = variant
	return opts
}

// WithTimeout sets the per-invocation timeout
func (opts Options) WithTimeout(timeout time.Duration) Options {
	opts.Timeout = timeout
	return opts
}

// WithSampleSize sets how much of an unreadable reply is surfaced
func (opts Options) WithSampleSize(size int) Options {
	opts.SampleSize = size
	return opts
}
