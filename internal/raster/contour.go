package raster

import (
	"image"

	"github.com/MeKo-Tech/docweave/internal/geometry"
)

// Contour traces the outer boundary of component i with Moore-neighbour
// tracing and returns the boundary pixels in clockwise order. Runs of
// collinear pixels are collapsed to their end points.
func (l *Labeling) Contour(i int) []image.Point {
	c := l.Components[i]
	sx, sy, ok := l.startPixel(c)
	if !ok {
		return nil
	}
	pts := []image.Point{{X: sx, Y: sy}}
	add := func(p image.Point) {
		n := len(pts)
		if pts[n-1] == p {
			return
		}
		if n >= 2 {
			a, b := pts[n-2], pts[n-1]
			ux, uy, vx, vy := b.X-a.X, b.Y-a.Y, p.X-b.X, p.Y-b.Y
			// only a straight continuation is redundant; a turn back keeps b
			if ux*vy-uy*vx == 0 && ux*vx+uy*vy > 0 {
				pts = pts[:n-1]
			}
		}
		pts = append(pts, p)
	}

	cx, cy := sx, sy
	bx, by := sx-1, sy
	maxSteps := 4*c.Area + 8
	for range maxSteps {
		nx, ny, nbx, nby, found := l.next(c.Label, cx, cy, bx, by)
		if !found {
			break
		}
		cx, cy, bx, by = nx, ny, nbx, nby
		add(image.Point{X: cx, Y: cy})
		if cx == sx && cy == sy && bx == sx-1 && by == sy {
			break
		}
	}
	if len(pts) >= 2 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	return pts
}

// startPixel returns the first pixel of the component in raster order. Its
// left neighbour is never part of the component.
func (l *Labeling) startPixel(c Component) (int, int, bool) {
	for y := c.MinY; y <= c.MaxY; y++ {
		for x := c.MinX; x <= c.MaxX; x++ {
			if l.is(c.Label, x, y) {
				return x, y, true
			}
		}
	}
	return 0, 0, false
}

// next scans the Moore neighbourhood of (cx, cy) clockwise starting after the
// backtrack pixel (bx, by).
func (l *Labeling) next(label int32, cx, cy, bx, by int) (int, int, int, int, bool) {
	start := 0
	for i, d := range neighbours8 {
		if d[0] == bx-cx && d[1] == by-cy {
			start = (i + 1) % 8
			break
		}
	}
	for k := range 8 {
		d := neighbours8[(start+k)%8]
		tx, ty := cx+d[0], cy+d[1]
		if l.is(label, tx, ty) {
			return tx, ty, bx, by, true
		}
		bx, by = tx, ty
	}
	return 0, 0, 0, 0, false
}

// Outline returns the pixel corners of the contour of component i, suitable
// for fitting rectangles in pixel-edge coordinates: a component spanning
// columns 3..7 yields points from x=3 to x=8.
func (l *Labeling) Outline(i int) []geometry.Point {
	contour := l.Contour(i)
	out := make([]geometry.Point, 0, 4*len(contour))
	for _, p := range contour {
		x, y := float64(p.X), float64(p.Y)
		out = append(out,
			geometry.Point{X: x, Y: y},
			geometry.Point{X: x + 1, Y: y},
			geometry.Point{X: x, Y: y + 1},
			geometry.Point{X: x + 1, Y: y + 1},
		)
	}
	return out
}
