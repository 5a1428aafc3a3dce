// Package raster holds the per-page pixel grids produced by a text detector
// and the bitmap operations run on them: binarization, morphological opening,
// connected component labelling and contour tracing.
package raster

import "github.com/MeKo-Tech/docweave/internal/ocrerr"

// ProbabilityMap is a row-major H×W grid of text probabilities in [0,1].
type ProbabilityMap struct {
	Height int
	Width  int
	Data   []float32
}

// NewProbabilityMap allocates a zeroed map.
func NewProbabilityMap(h, w int) ProbabilityMap {
	return ProbabilityMap{Height: h, Width: w, Data: make([]float32, h*w)}
}

// Shape returns {Height, Width}.
func (m ProbabilityMap) Shape() []int { return []int{m.Height, m.Width} }

// At returns the value at column x, row y.
func (m ProbabilityMap) At(x, y int) float32 { return m.Data[y*m.Width+x] }

// Validate checks that the dimensions are positive and match the data length.
func (m ProbabilityMap) Validate(page int) error {
	if m.Height <= 0 || m.Width <= 0 {
		return ocrerr.ShapeMismatch(page, m.Shape(), "probability map must have positive dimensions")
	}
	if len(m.Data) != m.Height*m.Width {
		return ocrerr.ShapeMismatch(page, m.Shape(), "probability map has %d values, want %d", len(m.Data), m.Height*m.Width)
	}
	return nil
}

// Bitmap is a row-major H×W binary mask.
type Bitmap struct {
	Height int
	Width  int
	Data   []bool
}

// NewBitmap allocates an empty bitmap.
func NewBitmap(h, w int) Bitmap {
	return Bitmap{Height: h, Width: w, Data: make([]bool, h*w)}
}

// At reports whether the pixel at column x, row y is set. Out-of-image
// coordinates are background.
func (b Bitmap) At(x, y int) bool {
	if x < 0 || y < 0 || x >= b.Width || y >= b.Height {
		return false
	}
	return b.Data[y*b.Width+x]
}

// Count returns the number of foreground pixels.
func (b Bitmap) Count() int {
	n := 0
	for _, v := range b.Data {
		if v {
			n++
		}
	}
	return n
}

// Binarize sets every pixel whose probability is strictly above thresh.
func Binarize(m ProbabilityMap, thresh float64) Bitmap {
	b := NewBitmap(m.Height, m.Width)
	t := float32(thresh)
	for i, p := range m.Data {
		b.Data[i] = p > t
	}
	return b
}
