package imageio

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docweave/internal/raster"
)

// PageFromImage converts img into an H×W×3 RGB page.
func PageFromImage(img image.Image) raster.Image {
	src := imaging.Clone(img)
	b := src.Bounds()
	h, w := b.Dy(), b.Dx()
	page := raster.NewImage(h, w, 3)
	for y := range h {
		row := src.Pix[y*src.Stride : y*src.Stride+4*w]
		for x := range w {
			copy(page.Pix[(y*w+x)*3:], row[4*x:4*x+3])
		}
	}
	return page
}

// ImageFromPage converts a page back to an image. One channel gives a
// grayscale image, three or more give RGB; extra channels are ignored.
func ImageFromPage(page raster.Image) image.Image {
	h, w, c := page.Height(), page.Width(), page.Channels()
	if c == 1 {
		g := image.NewGray(image.Rect(0, 0, w, h))
		copy(g.Pix, page.Pix)
		return g
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := range h * w {
		px := page.Pix[i*c : i*c+c]
		r, g, bl := px[0], px[0], px[0]
		if c >= 3 {
			g, bl = px[1], px[2]
		}
		out.Pix[4*i], out.Pix[4*i+1], out.Pix[4*i+2], out.Pix[4*i+3] = r, g, bl, 0xff
	}
	return out
}

// MapFromImage reads a probability map from a grayscale rendering: luminance
// 0 is probability 0 and 255 is probability 1.
func MapFromImage(img image.Image) raster.ProbabilityMap {
	gray := imaging.Grayscale(img)
	b := gray.Bounds()
	h, w := b.Dy(), b.Dx()
	m := raster.NewProbabilityMap(h, w)
	for y := range h {
		for x := range w {
			m.Data[y*w+x] = float32(gray.Pix[y*gray.Stride+4*x]) / 255
		}
	}
	return m
}

// LoadMap loads a probability map from an image file.
func LoadMap(path string) (raster.ProbabilityMap, error) {
	img, _, err := Load(path)
	if err != nil {
		return raster.ProbabilityMap{}, err
	}
	return MapFromImage(img), nil
}

// MapImage renders a probability map as a grayscale image.
func MapImage(m raster.ProbabilityMap) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, p := range m.Data {
		switch {
		case p <= 0:
			g.Pix[i] = 0
		case p >= 1:
			g.Pix[i] = 0xff
		default:
			g.Pix[i] = uint8(p*255 + 0.5)
		}
	}
	return g
}

// BitmapImage renders a bitmap white on black.
func BitmapImage(b raster.Bitmap) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, b.Width, b.Height))
	for i, v := range b.Data {
		if v {
			g.Pix[i] = 0xff
		}
	}
	return g
}

// Crop cuts the pixel rectangle r out of img, clipped to its bounds.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	if r.Empty() {
		return imaging.New(1, 1, color.Black)
	}
	return imaging.Crop(img, r)
}
