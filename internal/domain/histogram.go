package domain

import (
	"fmt"
	"math"
	"strings"
)

// Axis describes a fixed-width binned axis.
type Axis struct {
	Title string  `yaml:"title" json:"title"`
	Bins  int     `yaml:"bins,omitempty" json:"bins,omitempty"`
	Low   float64 `yaml:"low,omitempty" json:"low,omitempty"`
	High  float64 `yaml:"high,omitempty" json:"high,omitempty"`
}

// FileObject is one keyed entry in a histogram file. Class follows the ROOT
// naming the dashboards were built around, so 1D histograms are TH1F, TH1D...
type FileObject struct {
	Name     string      `yaml:"name" json:"name"`
	Title    string      `yaml:"title" json:"title"`
	Class    string      `yaml:"class" json:"class"`
	XAxis    Axis        `yaml:"x_axis" json:"x_axis"`
	YAxis    Axis        `yaml:"y_axis" json:"y_axis"`
	Contents []float64   `yaml:"contents,omitempty" json:"contents,omitempty"`
	Errors   [][]float64 `yaml:"errors,omitempty" json:"errors,omitempty"`
}

func (o *FileObject) IsHistogram() bool {
	return strings.HasPrefix(o.Class, "TH1")
}

func (o *FileObject) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("object without a name")
	}
	if !o.IsHistogram() {
		return nil
	}
	if o.XAxis.Bins <= 0 {
		return fmt.Errorf("histogram %q: bins must be positive", o.Name)
	}
	if o.XAxis.High <= o.XAxis.Low {
		return fmt.Errorf("histogram %q: axis high edge must exceed low edge", o.Name)
	}
	if len(o.Contents) != o.XAxis.Bins {
		return fmt.Errorf("histogram %q: %d contents for %d bins", o.Name, len(o.Contents), o.XAxis.Bins)
	}
	for i, e := range o.Errors {
		if len(e) != 2 {
			return fmt.Errorf("histogram %q: error %d is not a (low, high) pair", o.Name, i)
		}
	}
	if len(o.Errors) != 0 && len(o.Errors) != o.XAxis.Bins {
		return fmt.Errorf("histogram %q: %d errors for %d bins", o.Name, len(o.Errors), o.XAxis.Bins)
	}
	return nil
}

// ObjectData is the JSON view of a file object handed to clients.
// Histograms carry:
//
//	binning:       (low, high) edges of each bin
//	values:        bin contents, ith entry falling in the ith bin
//	uncertainties: (low, high) errors on the contents
//	axis_titles:   (x, y) axis titles
type ObjectData struct {
	Name          string       `json:"name"`
	Title         string       `json:"title"`
	Binning       [][2]float64 `json:"binning,omitempty"`
	Values        []float64    `json:"values,omitempty"`
	Uncertainties [][2]float64 `json:"uncertainties,omitempty"`
	AxisTitles    []string     `json:"axis_titles,omitempty"`
}

func (o *FileObject) Data() ObjectData {
	d := ObjectData{Name: o.Name, Title: o.Title}
	if !o.IsHistogram() {
		return d
	}

	n := o.XAxis.Bins
	width := (o.XAxis.High - o.XAxis.Low) / float64(n)
	d.Binning = make([][2]float64, n)
	d.Values = make([]float64, n)
	d.Uncertainties = make([][2]float64, n)
	for i := 0; i < n; i++ {
		low := o.XAxis.Low + float64(i)*width
		d.Binning[i] = [2]float64{low, low + width}
		if i < len(o.Contents) {
			d.Values[i] = o.Contents[i]
		}
		if i < len(o.Errors) && len(o.Errors[i]) == 2 {
			d.Uncertainties[i] = [2]float64{o.Errors[i][0], o.Errors[i][1]}
		} else {
			// Poisson errors when the file does not carry its own.
			e := math.Sqrt(math.Abs(d.Values[i]))
			d.Uncertainties[i] = [2]float64{e, e}
		}
	}
	d.AxisTitles = []string{o.XAxis.Title, o.YAxis.Title}
	return d
}

// HistogramFile is an ordered collection of keyed objects.
type HistogramFile struct {
	Objects []FileObject `yaml:"objects" json:"objects"`
}

func (f *HistogramFile) Keys() []string {
	keys := make([]string, 0, len(f.Objects))
	for _, o := range f.Objects {
		keys = append(keys, o.Name)
	}
	return keys
}

// Get looks a key up by exact name match.
func (f *HistogramFile) Get(name string) (*FileObject, error) {
	for i := range f.Objects {
		if f.Objects[i].Name == name {
			return &f.Objects[i], nil
		}
	}
	return nil, ErrKeyNotFound
}

// FileListing is the data payload of the list_file task.
type FileListing struct {
	Filename string   `json:"filename"`
	Keys     []string `json:"keys"`
}

// KeyData is the data payload of the get_key_from_file task.
type KeyData struct {
	Filename string     `json:"filename"`
	KeyName  string     `json:"key_name"`
	KeyClass string     `json:"key_class"`
	KeyData  ObjectData `json:"key_data"`
}
