package detector

import (
	"math"

	"github.com/MeKo-Tech/docweave/internal/geometry"
)

// rectMean is the mean probability over the inclusive pixel rectangle.
func rectMean(m ProbabilityMap, x0, y0, x1, y1 int) float64 {
	var sum float64
	for y := y0; y <= y1; y++ {
		row := m.Data[y*m.Width : (y+1)*m.Width]
		for x := x0; x <= x1; x++ {
			sum += float64(row[x])
		}
	}
	n := (x1 - x0 + 1) * (y1 - y0 + 1)
	if n <= 0 {
		return 0
	}
	return clampScore(sum / float64(n))
}

// polygonMean is the mean probability over the pixels whose centers fall
// inside poly. An empty mask scores 0.
func polygonMean(m ProbabilityMap, poly geometry.Polygon) float64 {
	bb := geometry.PolygonToBox(poly)
	x0 := max(0, int(math.Floor(bb.MinX)))
	y0 := max(0, int(math.Floor(bb.MinY)))
	x1 := min(m.Width-1, int(math.Ceil(bb.MaxX)))
	y1 := min(m.Height-1, int(math.Ceil(bb.MaxY)))

	var sum float64
	n := 0
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			if !poly.Contains(geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}) {
				continue
			}
			sum += float64(m.At(x, y))
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return clampScore(sum / float64(n))
}

func clampScore(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
