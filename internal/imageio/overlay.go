package imageio

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/MeKo-Tech/docweave/internal/geometry"
)

// OverlayOptions controls Overlay colors and stroke width.
type OverlayOptions struct {
	BoxColor     color.Color
	RotatedColor color.Color
	Thickness    int
}

// DefaultOverlayOptions draws red boxes and green rotated boxes, 1px wide.
func DefaultOverlayOptions() OverlayOptions {
	return OverlayOptions{
		BoxColor:     color.RGBA{R: 0xff, A: 0xff},
		RotatedColor: color.RGBA{G: 0xc0, A: 0xff},
		Thickness:    1,
	}
}

// Overlay draws the outlines of relative boxes over a copy of img. Boxes with
// a rotated form are drawn as polygons, the others as rectangles.
func Overlay(img image.Image, boxes []geometry.ScoredBox, opts OverlayOptions) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	w, h := float64(b.Dx()), float64(b.Dy())
	for _, sb := range boxes {
		if sb.Rotated != nil {
			rb := *sb.Rotated
			rb.CX, rb.CY, rb.W, rb.H = rb.CX*w, rb.CY*h, rb.W*w, rb.H*h
			DrawPolygon(dst, geometry.RotatedBoxToPolygon(rb), opts.RotatedColor, opts.Thickness)
			continue
		}
		px := sb.Box.Scale(w, h)
		r := image.Rect(int(math.Round(px.MinX)), int(math.Round(px.MinY)), int(math.Round(px.MaxX)), int(math.Round(px.MaxY)))
		DrawRect(dst, r, opts.BoxColor, opts.Thickness)
	}
	return dst
}

// DrawRect strokes the inside border of rect.
func DrawRect(dst draw.Image, rect image.Rectangle, col color.Color, thickness int) {
	thickness = max(thickness, 1)
	rect = rect.Intersect(dst.Bounds())
	if rect.Empty() {
		return
	}
	for t := range thickness {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.Set(x, rect.Min.Y+t, col)
			dst.Set(x, rect.Max.Y-1-t, col)
		}
		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			dst.Set(rect.Min.X+t, y, col)
			dst.Set(rect.Max.X-1-t, y, col)
		}
	}
}

// DrawPolygon strokes the closed polygon through pts.
func DrawPolygon(dst draw.Image, pts geometry.Polygon, col color.Color, thickness int) {
	if len(pts) < 2 {
		return
	}
	ip := make([]image.Point, len(pts))
	for i, p := range pts {
		ip[i] = image.Pt(int(math.Round(p.X)), int(math.Round(p.Y)))
	}
	for i := range ip {
		drawLine(dst, ip[i], ip[(i+1)%len(ip)], col, max(thickness, 1))
	}
}

// drawLine is Bresenham with a square brush.
func drawLine(dst draw.Image, a, b image.Point, col color.Color, thickness int) {
	dx, dy := abs(b.X-a.X), -abs(b.Y-a.Y)
	sx, sy := sign(b.X-a.X), sign(b.Y-a.Y)
	err := dx + dy
	x, y := a.X, a.Y
	bounds := dst.Bounds()
	for {
		for oy := range thickness {
			for ox := range thickness {
				p := image.Pt(x+ox-thickness/2, y+oy-thickness/2)
				if p.In(bounds) {
					dst.Set(p.X, p.Y, col)
				}
			}
		}
		if x == b.X && y == b.Y {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
