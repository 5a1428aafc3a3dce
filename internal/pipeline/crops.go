package pipeline

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/imageio"
	"github.com/MeKo-Tech/docweave/internal/orientation"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// DeskewPage rotates every channel of page by -angle degrees so that it lines
// up with boxes extracted from a deskewed probability map.
func DeskewPage(page PageImage, angle float64) PageImage {
	if angle == 0 {
		return page
	}
	h, w, c := page.Height(), page.Width(), page.Channels()
	px := make([][]uint8, h*w)
	for i := range px {
		px[i] = page.Pix[i*c : (i+1)*c]
	}
	rotated := orientation.RotatePage(px, h, w, -angle)
	out := raster.NewImage(h, w, c)
	for i, p := range rotated {
		copy(out.Pix[i*c:], p)
	}
	return out
}

// ExtractCrops cuts one crop per box out of a page. Boxes are relative to
// the page deskewed by angle. With straighten set, oriented boxes are rotated
// upright and trimmed to their own width and height.
func ExtractCrops(page PageImage, boxes []geometry.ScoredBox, angle float64, straighten bool) []image.Image {
	if len(boxes) == 0 {
		return []image.Image{}
	}
	img := imageio.ImageFromPage(DeskewPage(page, angle))
	w, h := float64(page.Width()), float64(page.Height())
	crops := make([]image.Image, len(boxes))
	for i, sb := range boxes {
		px := sb.Box.Scale(w, h)
		r := image.Rect(
			int(math.Floor(px.MinX)), int(math.Floor(px.MinY)),
			int(math.Ceil(px.MaxX)), int(math.Ceil(px.MaxY)),
		)
		crop := imageio.Crop(img, r)
		if straighten && sb.Rotated != nil && sb.Rotated.Angle != 0 {
			crop = upright(crop, *sb.Rotated, w, h)
		}
		crops[i] = crop
	}
	return crops
}

// upright rotates a crop holding an oriented box so the box is level and
// trims it to the box size.
func upright(crop image.Image, rb geometry.RotatedBox, pageW, pageH float64) image.Image {
	rotated := imaging.Rotate(crop, -rb.Angle, color.Black)
	bw := max(1, int(math.Round(rb.W*pageW)))
	bh := max(1, int(math.Round(rb.H*pageH)))
	b := rotated.Bounds()
	return imaging.CropCenter(rotated, min(bw, b.Dx()), min(bh, b.Dy()))
}
