// Package frame measures captured frames so that blank captures (a black
// protected window, a screen still loading) can be reported before a
// provider is paid to critique them.
package frame

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"runtime"
	"sync"

	"github.com/anime-shed/ux-critique-go/pkg/models"

	"gonum.org/v1/gonum/stat"
)

// Report describes one frame
type Report struct {
	Width  int `json:"width"`
	Height int `json:"height"`

	// Luminance in [0,1]
	AvgLuminance    float64 `json:"average_luminance"`
	LuminanceStdDev float64 `json:"luminance_stddev"`

	LaplacianVar float64 `json:"laplacian_variance"`
	// Fraction of interior pixels on an edge
	EdgeDensity float64 `json:"edge_density"`

	Blank bool `json:"blank"`
	Dark  bool `json:"dark"`
}

// Inspector computes frame reports
type Inspector interface {
	Inspect(img image.Image) Report
	InspectArtifact(artifact models.ImageArtifact) (Report, error)
}

type inspector struct {
	opts     Options
	grayPool sync.Pool
}

// NewInspector creates an inspector
func NewInspector(opts Options) Inspector {
	if opts.MaxWorkers <= 0 {
		opts.MaxWorkers = runtime.NumCPU()
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = DefaultOptions().MaxSamples
	}
	return &inspector{
		opts: opts,
		grayPool: sync.Pool{
			New: func() interface{} {
				return &image.Gray{}
			},
		},
	}
}

// InspectArtifact decodes the artifact bytes and inspects the result
func (in *inspector) InspectArtifact(artifact models.ImageArtifact) (Report, error) {
	img, _, err := image.Decode(bytes.NewReader(artifact.Bytes))
	if err != nil {
		return Report{}, fmt.Errorf("failed to decode %s artifact: %w", artifact.MimeType, err)
	}
	return in.Inspect(img), nil
}

// Inspect measures img
func (in *inspector) Inspect(img image.Image) Report {
	bounds := img.Bounds()
	report := Report{Width: bounds.Dx(), Height: bounds.Dy()}
	if report.Width == 0 || report.Height == 0 {
		report.Blank = true
		report.Dark = true
		return report
	}

	gray := in.toGray(img)
	defer in.grayPool.Put(gray)

	step := in.sampleStep(report.Width, report.Height)
	lum := in.sampleLuminance(gray, step)
	report.AvgLuminance, report.LuminanceStdDev = stat.MeanStdDev(lum, nil)
	if math.IsNaN(report.LuminanceStdDev) {
		report.LuminanceStdDev = 0
	}
	report.LaplacianVar = laplacianVariance(gray, step)
	report.EdgeDensity = in.edgeDensity(gray, step)

	report.Blank = report.LuminanceStdDev < in.opts.BlankStdDevThreshold
	report.Dark = report.Blank && report.AvgLuminance < in.opts.DarkLuminanceThreshold
	return report
}

func (in *inspector) toGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := in.grayPool.Get().(*image.Gray)
	size := bounds.Dx() * bounds.Dy()
	if cap(gray.Pix) < size {
		gray.Pix = make([]uint8, size)
	}
	gray.Pix = gray.Pix[:size]
	gray.Stride = bounds.Dx()
	gray.Rect = bounds
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// sampleStep is the pixel stride that keeps every metric within MaxSamples
func (in *inspector) sampleStep(width, height int) int {
	step := 1
	for (width/step)*(height/step) > in.opts.MaxSamples {
		step++
	}
	return step
}

// sampleLuminance reads every step-th pixel of every step-th row, in
// horizontal strips processed in parallel
func (in *inspector) sampleLuminance(gray *image.Gray, step int) []float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	rows := make([]int, 0, height/step+1)
	for y := bounds.Min.Y; y < bounds.Max.Y; y += step {
		rows = append(rows, y)
	}

	numWorkers := in.opts.MaxWorkers
	if len(rows) < numWorkers {
		numWorkers = len(rows)
	}
	rowsPerWorker := (len(rows) + numWorkers - 1) / numWorkers // ceil division

	strips := make([][]float64, numWorkers)
	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		start := i * rowsPerWorker
		end := start + rowsPerWorker
		if end > len(rows) {
			end = len(rows)
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(i int, rows []int) {
			defer wg.Done()
			out := make([]float64, 0, len(rows)*(width/step+1))
			for _, y := range rows {
				for x := bounds.Min.X; x < bounds.Max.X; x += step {
					out = append(out, float64(gray.GrayAt(x, y).Y)/255)
				}
			}
			strips[i] = out
		}(i, rows[start:end])
	}
	wg.Wait()

	var all []float64
	for _, s := range strips {
		all = append(all, s...)
	}
	return all
}

// laplacianVariance applies the kernel [0 1 0; 1 -4 1; 0 1 0] at every
// step-th interior pixel and returns the variance of the response. Low
// values mean little fine detail.
func laplacianVariance(gray *image.Gray, step int) float64 {
	bounds := gray.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	data := make([]float64, 0, ((bounds.Dx()-2)/step+1)*((bounds.Dy()-2)/step+1))
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y += step {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x += step {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)
			data = append(data, -4*center+top+bottom+left+right)
		}
	}
	return stat.Variance(data, nil)
}

// edgeDensity is the share of sampled interior pixels whose Sobel magnitude
// exceeds the edge threshold
func (in *inspector) edgeDensity(gray *image.Gray, step int) float64 {
	bounds := gray.Bounds()
	if bounds.Dx() < 3 || bounds.Dy() < 3 {
		return 0
	}

	edges, total := 0, 0
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y += step {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x += step {
			gx := sobelX(gray, x, y)
			gy := sobelY(gray, x, y)
			if math.Sqrt(float64(gx*gx+gy*gy)) > in.opts.EdgeMagnitudeThreshold {
				edges++
			}
			total++
		}
	}
	return float64(edges) / float64(total)
}

func sobelX(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) + 1*int(gray.GrayAt(x+1, y-1).Y) +
		-2*int(gray.GrayAt(x-1, y).Y) + 2*int(gray.GrayAt(x+1, y).Y) +
		-1*int(gray.GrayAt(x-1, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}

func sobelY(gray *image.Gray, x, y int) int {
	return -1*int(gray.GrayAt(x-1, y-1).Y) - 2*int(gray.GrayAt(x, y-1).Y) - 1*int(gray.GrayAt(x+1, y-1).Y) +
		1*int(gray.GrayAt(x-1, y+1).Y) + 2*int(gray.GrayAt(x, y+1).Y) + 1*int(gray.GrayAt(x+1, y+1).Y)
}
