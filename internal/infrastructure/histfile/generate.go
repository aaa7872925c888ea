package histfile

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/jobmonitor/backend/internal/domain"
)

// Shape is an unnormalised density sampled by Fill.
type Shape struct {
	Name  string
	Title string
	Low   float64
	High  float64
	PDF   func(x float64) float64
}

// SampleShapes are the distributions of the demo histogram file.
var SampleShapes = []Shape{
	{Name: "gaus", Title: "Gaussian", Low: -5, High: 5, PDF: func(x float64) float64 {
		return math.Exp(-x * x / 2)
	}},
	// Moyal approximation of the Landau distribution.
	{Name: "landau", Title: "Landau", Low: -5, High: 10, PDF: func(x float64) float64 {
		return math.Exp(-(x + math.Exp(-x)) / 2)
	}},
	{Name: "expo", Title: "Exponential", Low: 0, High: 10, PDF: func(x float64) float64 {
		return math.Exp(-x / 2)
	}},
	{Name: "pol1", Title: "First order polynomial", Low: 0, High: 10, PDF: func(x float64) float64 {
		return 1 + x
	}},
}

// Fill builds a TH1F with bins bins by drawing entries values from shape.
func Fill(rng *rand.Rand, name string, shape Shape, bins, entries int) domain.FileObject {
	obj := domain.FileObject{
		Name:     name,
		Title:    shape.Title,
		Class:    "TH1F",
		XAxis:    domain.Axis{Title: "x", Bins: bins, Low: shape.Low, High: shape.High},
		YAxis:    domain.Axis{Title: "Entries"},
		Contents: make([]float64, bins),
	}

	peak := 0.0
	width := (shape.High - shape.Low) / float64(bins)
	for i := 0; i <= bins; i++ {
		peak = math.Max(peak, shape.PDF(shape.Low+float64(i)*width))
	}
	if peak <= 0 {
		return obj
	}

	for n := 0; n < entries; {
		x := shape.Low + rng.Float64()*(shape.High-shape.Low)
		if rng.Float64()*peak > shape.PDF(x) {
			continue
		}
		bin := int((x - shape.Low) / width)
		if bin >= bins {
			bin = bins - 1
		}
		obj.Contents[bin]++
		n++
	}
	return obj
}

// Generate returns one histogram per shape, named histogram_0, histogram_1...
func Generate(seed int64, bins, entries int) *domain.HistogramFile {
	rng := rand.New(rand.NewSource(seed))
	f := &domain.HistogramFile{}
	for i, shape := range SampleShapes {
		f.Objects = append(f.Objects, Fill(rng, fmt.Sprintf("histogram_%d", i), shape, bins, entries))
	}
	return f
}
