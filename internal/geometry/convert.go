package geometry

import (
	"math"

	"github.com/MeKo-Tech/docweave/internal/ocrerr"
)

// BoxToPolygon returns the four corners of b ordered top-left, top-right,
// bottom-left, bottom-right.
func BoxToPolygon(b Box) Polygon {
	return Polygon{
		{X: b.MinX, Y: b.MinY},
		{X: b.MaxX, Y: b.MinY},
		{X: b.MinX, Y: b.MaxY},
		{X: b.MaxX, Y: b.MaxY},
	}
}

// PolygonToBox returns the axis-aligned extent of the polygon.
func PolygonToBox(poly Polygon) Box {
	if len(poly) == 0 {
		return Box{}
	}
	b := Box{MinX: poly[0].X, MinY: poly[0].Y, MaxX: poly[0].X, MaxY: poly[0].Y}
	for _, p := range poly[1:] {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// RotatedBoxToPolygon returns the corners of rb. The unrotated corner order is
// bottom-left, top-left, top-right, bottom-right; the corners are then rotated
// about the center by rb.Angle degrees counter-clockwise.
func RotatedBoxToPolygon(rb RotatedBox) Polygon {
	hw, hh := rb.W/2, rb.H/2
	offsets := [4]Point{{X: -hw, Y: hh}, {X: -hw, Y: -hh}, {X: hw, Y: -hh}, {X: hw, Y: hh}}
	sin, cos := math.Sincos(rb.Angle * math.Pi / 180)
	poly := make(Polygon, 4)
	for i, d := range offsets {
		poly[i] = Point{
			X: rb.CX + d.X*cos + d.Y*sin,
			Y: rb.CY - d.X*sin + d.Y*cos,
		}
	}
	return poly
}

// PolygonToRotatedBox fits the minimal-area oriented rectangle to poly. The
// width axis is the rectangle axis whose direction lies in (-45, 45] degrees.
func PolygonToRotatedBox(poly Polygon) (RotatedBox, error) {
	if len(poly) < 3 {
		return RotatedBox{}, ocrerr.InvalidParameter("polygon", "need at least 3 points, got %d", len(poly))
	}
	r, ok := minAreaRect(poly)
	if !ok {
		return RotatedBox{}, ocrerr.InvalidParameter("polygon", "degenerate polygon")
	}
	return r.rotatedBox(), nil
}

func (r rect) rotatedBox() RotatedBox {
	sLen, tLen := r.maxS-r.minS, r.maxT-r.minT
	sc, tc := (r.minS+r.maxS)/2, (r.minT+r.maxT)/2
	rb := RotatedBox{
		CX: r.u.X*sc + r.v.X*tc,
		CY: r.u.Y*sc + r.v.Y*tc,
	}
	// visual angle of u: y points down, so negate it
	a := snapDiagonal(axisAngle(math.Atan2(-r.u.Y, r.u.X) * 180 / math.Pi))
	switch {
	case a > 45:
		rb.Angle, rb.W, rb.H = a-90, tLen, sLen
	case a <= -45:
		rb.Angle, rb.W, rb.H = a+90, tLen, sLen
	default:
		rb.Angle, rb.W, rb.H = a, sLen, tLen
	}
	return rb
}

// axisAngle folds a direction angle into (-90, 90].
func axisAngle(a float64) float64 {
	for a <= -90 {
		a += 180
	}
	for a > 90 {
		a -= 180
	}
	return a
}

// angleEps absorbs rounding at the ±45 degree fold.
const angleEps = 1e-9

// snapDiagonal moves angles within angleEps of ±45 onto ±45 exactly, so that
// the fold below sends both diagonals to +45.
func snapDiagonal(a float64) float64 {
	switch {
	case math.Abs(a-45) < angleEps:
		return 45
	case math.Abs(a+45) < angleEps:
		return -45
	}
	return a
}

// NormalizeAngle folds an axis angle into (-45, 45].
func NormalizeAngle(a float64) float64 {
	a = snapDiagonal(axisAngle(a))
	switch {
	case a > 45:
		return a - 90
	case a <= -45:
		return a + 90
	}
	return a
}

// ResolveEnclosingBox returns the smallest axis-aligned box covering every
// corner of the given boxes.
func ResolveEnclosingBox(boxes []Box) Box {
	if len(boxes) == 0 {
		return Box{}
	}
	pts := make(Polygon, 0, 2*len(boxes))
	for _, b := range boxes {
		pts = append(pts, Point{X: b.MinX, Y: b.MinY}, Point{X: b.MaxX, Y: b.MaxY})
	}
	return PolygonToBox(pts)
}

// ResolveEnclosingRotatedBox returns the minimal-area oriented rectangle
// covering the corners of all the given rotated boxes.
func ResolveEnclosingRotatedBox(boxes []RotatedBox) (RotatedBox, error) {
	if len(boxes) == 0 {
		return RotatedBox{}, ocrerr.InvalidParameter("boxes", "no rotated boxes to enclose")
	}
	pts := make(Polygon, 0, 4*len(boxes))
	for _, rb := range boxes {
		pts = append(pts, RotatedBoxToPolygon(rb)...)
	}
	r, ok := minAreaRect(pts)
	if !ok {
		return RotatedBox{}, ocrerr.InvalidParameter("boxes", "degenerate rotated boxes")
	}
	return r.rotatedBox(), nil
}
