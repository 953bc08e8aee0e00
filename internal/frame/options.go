package frame

// Options configures frame inspection
type Options struct {
	// Luminance spread below which a frame counts as blank
	BlankStdDevThreshold float64
	// Mean luminance below which a blank frame is also dark
	DarkLuminanceThreshold float64
	// Sobel magnitude above which a pixel is an edge
	EdgeMagnitudeThreshold float64

	// Performance options
	MaxSamples int
	MaxWorkers int
}

// DefaultOptions returns default inspection options
func DefaultOptions() Options {
	return Options{
		BlankStdDevThreshold:   0.02,
		DarkLuminanceThreshold: 0.05,
		EdgeMagnitudeThreshold: 50,
		MaxSamples:             250_000,
		MaxWorkers:             0, // Use default CPU count
	}
}

// WithMaxSamples bounds how many pixels are read per frame
func (opts Options) WithMaxSamples(n int) Options {
	opts.MaxSamples = n
	return opts
}

// WithMaxWorkers bounds the goroutines used per frame
func (opts Options) WithMaxWorkers(n int) Options {
	opts.MaxWorkers = n
	return opts
}
