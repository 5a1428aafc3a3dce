// Package testutil builds synthetic probability maps, pages and images for
// tests.
package testutil

import (
	"image"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/imageio"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// Region is an inclusive pixel rectangle filled with a gray level. The level
// doubles as a probability of Level/255.
type Region struct {
	X0, Y0, X1, Y1 int
	Level          uint8
}

// P is the probability of the region level.
func (r Region) P() float32 { return float32(r.Level) / 255 }

// Box is the relative extent of the region on a w×h page.
func (r Region) Box(w, h int) geometry.Box {
	return geometry.Box{
		MinX: float64(r.X0) / float64(w),
		MinY: float64(r.Y0) / float64(h),
		MaxX: float64(r.X1+1) / float64(w),
		MaxY: float64(r.Y1+1) / float64(h),
	}
}

// TwoWords is a 64×64 layout with a strong word at the top and a weaker one
// below it.
var TwoWords = []Region{
	{X0: 5, Y0: 10, X1: 24, Y1: 17, Level: 230},
	{X0: 30, Y0: 40, X1: 49, Y1: 49, Level: 153},
}

// ProbabilityMap returns an h×w map with the regions painted in.
func ProbabilityMap(h, w int, regions ...Region) raster.ProbabilityMap {
	m := raster.NewProbabilityMap(h, w)
	for _, r := range regions {
		for y := r.Y0; y <= r.Y1; y++ {
			for x := r.X0; x <= r.X1; x++ {
				m.Data[y*w+x] = r.P()
			}
		}
	}
	return m
}

// Page returns an h×w×c page with every channel of the regions painted in.
func Page(h, w, c int, regions ...Region) raster.Image {
	p := raster.NewImage(h, w, c)
	for _, r := range regions {
		for y := r.Y0; y <= r.Y1; y++ {
			for x := r.X0; x <= r.X1; x++ {
				for k := range c {
					p.Pix[(y*w+x)*c+k] = r.Level
				}
			}
		}
	}
	return p
}

// GrayImage renders the regions white-on-black, the image form of
// ProbabilityMap.
func GrayImage(h, w int, regions ...Region) *image.Gray {
	return imageio.MapImage(ProbabilityMap(h, w, regions...))
}

// SkewedBar returns an h×w map holding one text bar through the page center,
// rotated counter-clockwise by angle degrees.
func SkewedBar(h, w int, halfLen, halfThick, angle float64, p float32) raster.ProbabilityMap {
	m := raster.NewProbabilityMap(h, w)
	c := geometry.Point{X: float64(w) / 2, Y: float64(h) / 2}
	for y := range h {
		for x := range w {
			q := geometry.RotatePoint(geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, c, -angle)
			if math.Abs(q.X-c.X) <= halfLen && math.Abs(q.Y-c.Y) <= halfThick {
				m.Data[y*w+x] = p
			}
		}
	}
	return m
}

// SaveImage writes img to path, creating parent directories.
func SaveImage(t *testing.T, path string, img image.Image) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, imageio.Save(path, img))
}

// CompareImages reports whether two images have the same size and their
// gray levels differ by at most tolerance (0..1) on average.
func CompareImages(a, b image.Image, tolerance float64) bool {
	ab, bb := a.Bounds(), b.Bounds()
	if ab.Dx() != bb.Dx() || ab.Dy() != bb.Dy() {
		return false
	}
	if ab.Empty() {
		return true
	}
	ma, mb := imageio.MapFromImage(a), imageio.MapFromImage(b)
	var diff float64
	for i := range ma.Data {
		diff += math.Abs(float64(ma.Data[i] - mb.Data[i]))
	}
	return diff/float64(len(ma.Data)) <= tolerance
}
