package geometry

import "math"

// RotationResult is the outcome of RotateBoxes. When no rotation was applied
// Boxes is the caller's slice, untouched, and Rotated is nil.
type RotationResult struct {
	Boxes   []Box
	Rotated []RotatedBox
}

// Applied reports whether the boxes were converted to rotated boxes.
func (r RotationResult) Applied() bool { return r.Rotated != nil }

// RotatePoint rotates p about center by angle degrees counter-clockwise.
func RotatePoint(p, center Point, angle float64) Point {
	sin, cos := math.Sincos(angle * math.Pi / 180)
	dx, dy := p.X-center.X, p.Y-center.Y
	return Point{
		X: center.X + dx*cos + dy*sin,
		Y: center.Y - dx*sin + dy*cos,
	}
}

// RotateBoxes rotates relative boxes about the image center. Rotations with
// |angle| < minAngle are skipped and the input is returned as-is. With a
// non-zero size the centers are rotated in pixel space and scaled back to
// relative coordinates, so that non-square pages rotate rigidly; with a zero
// size the rotation happens directly in the relative frame. The box angle is
// folded into (-45, 45]; an odd number of quarter turns swaps the sides.
func RotateBoxes(boxes []Box, angle, minAngle float64, size Size) RotationResult {
	if math.Abs(angle) < minAngle {
		return RotationResult{Boxes: boxes}
	}
	sx, sy := 1.0, 1.0
	if !size.IsZero() {
		sx, sy = size.Width, size.Height
	}
	boxAngle := NormalizeAngle(angle)
	swap := int(math.Abs(math.Round((angle-boxAngle)/90)))%2 == 1
	center := Point{X: 0.5 * sx, Y: 0.5 * sy}
	out := make([]RotatedBox, len(boxes))
	for i, b := range boxes {
		abs := b.Scale(sx, sy)
		c := RotatePoint(abs.Center(), center, angle)
		w, h := abs.Width(), abs.Height()
		if swap {
			w, h = h, w
		}
		out[i] = RotatedBox{
			CX:    c.X / sx,
			CY:    c.Y / sy,
			W:     w / sx,
			H:     h / sy,
			Angle: boxAngle,
		}
	}
	return RotationResult{Rotated: out}
}

// FitRotatedBox shrinks rb about its center until every corner lies inside
// frame. The aspect ratio and angle are kept; a center outside the frame
// collapses the box.
func FitRotatedBox(rb RotatedBox, frame Box) RotatedBox {
	c := Point{X: rb.CX, Y: rb.CY}
	s := 1.0
	limit := func(p, d, lo, hi float64) {
		switch {
		case p+d > hi:
			s = math.Min(s, (hi-p)/d)
		case p+d < lo:
			s = math.Min(s, (lo-p)/d)
		}
	}
	for _, q := range RotatedBoxToPolygon(rb) {
		limit(c.X, q.X-c.X, frame.MinX, frame.MaxX)
		limit(c.Y, q.Y-c.Y, frame.MinY, frame.MaxY)
	}
	s = math.Max(0, s)
	rb.W *= s
	rb.H *= s
	return rb
}

// ClipBoxes clips boxes to a crop window and drops boxes left with no area.
func ClipBoxes(boxes []Box, crop Box) []Box {
	out := make([]Box, 0, len(boxes))
	for _, b := range boxes {
		c := b.Clip(crop)
		if c.MinX == c.MaxX || c.MinY == c.MaxY {
			continue
		}
		out = append(out, c)
	}
	return out
}
