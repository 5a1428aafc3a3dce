package raster

import "github.com/MeKo-Tech/docweave/internal/ocrerr"

// Image is a decoded page as an H×W×C array of 8-bit samples, row-major with
// interleaved channels.
type Image struct {
	Shape []int
	Pix   []uint8
}

// NewImage allocates a zeroed h×w×c image.
func NewImage(h, w, c int) Image {
	return Image{Shape: []int{h, w, c}, Pix: make([]uint8, h*w*c)}
}

// Height is the first dimension, or 0 when the shape is empty.
func (im Image) Height() int { return im.dim(0) }

// Width is the second dimension.
func (im Image) Width() int { return im.dim(1) }

// Channels is the third dimension.
func (im Image) Channels() int { return im.dim(2) }

func (im Image) dim(i int) int {
	if i >= len(im.Shape) {
		return 0
	}
	return im.Shape[i]
}

// Validate checks that the page is a 3-dimensional image with at least one
// channel and that the sample count matches the shape.
func (im Image) Validate(page int) error {
	if len(im.Shape) != 3 {
		return ocrerr.ShapeMismatch(page, im.Shape, "page must be a 3-dimensional H×W×C image, got %d dimensions", len(im.Shape))
	}
	for _, d := range im.Shape {
		if d <= 0 {
			return ocrerr.ShapeMismatch(page, im.Shape, "page dimensions must be positive")
		}
	}
	if want := im.Shape[0] * im.Shape[1] * im.Shape[2]; len(im.Pix) != want {
		return ocrerr.ShapeMismatch(page, im.Shape, "page has %d samples, want %d", len(im.Pix), want)
	}
	return nil
}
