package client

import (
	"context"
	"fmt"

	"github.com/jobmonitor/backend/internal/domain"
)

// HistogramPoint is one bin laid out for plotting: X is the low edge and DX
// the bin width.
type HistogramPoint struct {
	X    float64    `json:"x"`
	DX   float64    `json:"dx"`
	Y    float64    `json:"y"`
	XErr [2]float64 `json:"xErr"`
}

// HistogramPoints reshapes histogram data into one point per bin.
func HistogramPoints(d domain.ObjectData) []HistogramPoint {
	points := make([]HistogramPoint, 0, len(d.Values))
	for i, v := range d.Values {
		p := HistogramPoint{Y: v}
		if i < len(d.Binning) {
			p.X = d.Binning[i][0]
			p.DX = d.Binning[i][1] - d.Binning[i][0]
		}
		if i < len(d.Uncertainties) {
			p.XErr = d.Uncertainties[i]
		}
		points = append(points, p)
	}
	return points
}

// LoadHistogram fetches key from file and returns its points. Only TH1F
// objects are supported.
func (c *Client) LoadHistogram(ctx context.Context, file, key string) ([]HistogramPoint, error) {
	data, err := c.GetKey(ctx, file, key)
	if err != nil {
		return nil, err
	}
	if data.KeyClass != "TH1F" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedObject, data.KeyClass)
	}
	return HistogramPoints(data.KeyData), nil
}
