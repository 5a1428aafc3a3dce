// Package orientation estimates the global skew of a page from its text
// bitmap and rotates page rasters to compensate for it.
package orientation

import (
	"math"
	"slices"

	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// MaxComponents is the number of largest components that vote on the skew.
const MaxComponents = 20

// Estimate is a page skew in degrees with a confidence in [0,1].
type Estimate struct {
	Angle      float64 `json:"angle" yaml:"angle"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// BitmapAngle returns the page skew of b in degrees, in (-45, 45]. An empty
// bitmap yields 0.
func BitmapAngle(b raster.Bitmap) float64 {
	return EstimateSkew(b).Angle
}

// EstimateSkew fits a minimal-area rectangle to each of the largest connected
// components and averages their angles weighted by pixel area. The confidence
// drops linearly with the weighted spread of the angles.
func EstimateSkew(b raster.Bitmap) Estimate {
	l := raster.Label(b)
	defer l.Release()
	if len(l.Components) == 0 {
		return Estimate{}
	}

	order := make([]int, len(l.Components))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return l.Components[b].Area - l.Components[a].Area
	})
	if len(order) > MaxComponents {
		order = order[:MaxComponents]
	}

	var angles, weights []float64
	for _, i := range order {
		rb, err := geometry.PolygonToRotatedBox(l.Outline(i))
		if err != nil {
			continue
		}
		angles = append(angles, rb.Angle)
		weights = append(weights, float64(l.Components[i].Area))
	}
	return weightedEstimate(angles, weights)
}

func weightedEstimate(angles, weights []float64) Estimate {
	var sumW, sum float64
	for i, a := range angles {
		sum += weights[i] * a
		sumW += weights[i]
	}
	if sumW == 0 {
		return Estimate{}
	}
	mean := sum / sumW

	var sq float64
	for i, a := range angles {
		d := a - mean
		sq += weights[i] * d * d
	}
	std := math.Sqrt(sq / sumW)

	if mean <= -45 {
		mean = 45
	}
	return Estimate{
		Angle:      math.Min(mean, 45),
		Confidence: math.Max(0, math.Min(1, 1-std/45)),
	}
}

// RotatePage rotates an h×w row-major raster about its center by angle
// degrees counter-clockwise, sampling with nearest neighbour. Pixels that map
// outside the source are left at the zero value of T. The shape is preserved.
func RotatePage[T any](data []T, h, w int, angle float64) []T {
	out := make([]T, len(data))
	if angle == 0 {
		copy(out, data)
		return out
	}
	center := geometry.Point{X: float64(w-1) / 2, Y: float64(h-1) / 2}
	for y := range h {
		for x := range w {
			src := geometry.RotatePoint(geometry.Point{X: float64(x), Y: float64(y)}, center, -angle)
			sx, sy := int(math.Round(src.X)), int(math.Round(src.Y))
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				continue
			}
			out[y*w+x] = data[sy*w+sx]
		}
	}
	return out
}

// RotateMap rotates a probability map, see RotatePage.
func RotateMap(m raster.ProbabilityMap, angle float64) raster.ProbabilityMap {
	return raster.ProbabilityMap{Height: m.Height, Width: m.Width, Data: RotatePage(m.Data, m.Height, m.Width, angle)}
}

// RotateBitmap rotates a bitmap, see RotatePage.
func RotateBitmap(b raster.Bitmap, angle float64) raster.Bitmap {
	return raster.Bitmap{Height: b.Height, Width: b.Width, Data: RotatePage(b.Data, b.Height, b.Width, angle)}
}
