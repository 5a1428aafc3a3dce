// Package geometry holds the box and polygon primitives used across
// extraction and assembly, together with the conversions between them.
//
// Image coordinates are used throughout: x grows to the right and y grows
// downwards. Angles are in degrees and a positive angle is a counter-clockwise
// rotation as seen on screen.
package geometry

import "math"

// Point is a 2D point.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Polygon is an ordered sequence of points.
type Polygon []Point

// Box is an axis-aligned box.
type Box struct {
	MinX float64 `json:"xmin" yaml:"xmin"`
	MinY float64 `json:"ymin" yaml:"ymin"`
	MaxX float64 `json:"xmax" yaml:"xmax"`
	MaxY float64 `json:"ymax" yaml:"ymax"`
}

// NewBox creates a normalized box from two corners in any order.
func NewBox(x1, y1, x2, y2 float64) Box {
	return Box{
		MinX: math.Min(x1, x2),
		MinY: math.Min(y1, y2),
		MaxX: math.Max(x1, x2),
		MaxY: math.Max(y1, y2),
	}
}

// Width of the box.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height of the box.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Center returns the box center.
func (b Box) Center() Point { return Point{X: (b.MinX + b.MaxX) / 2, Y: (b.MinY + b.MaxY) / 2} }

// Area of the box, zero for inverted boxes.
func (b Box) Area() float64 {
	w, h := b.Width(), b.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Corners returns the two-corner form (top-left, bottom-right).
func (b Box) Corners() [2]Point {
	return [2]Point{{X: b.MinX, Y: b.MinY}, {X: b.MaxX, Y: b.MaxY}}
}

// Clip restricts the box to the given bounds.
func (b Box) Clip(bounds Box) Box {
	return Box{
		MinX: clamp(b.MinX, bounds.MinX, bounds.MaxX),
		MinY: clamp(b.MinY, bounds.MinY, bounds.MaxY),
		MaxX: clamp(b.MaxX, bounds.MinX, bounds.MaxX),
		MaxY: clamp(b.MaxY, bounds.MinY, bounds.MaxY),
	}
}

// Scale multiplies x coordinates by sx and y coordinates by sy.
func (b Box) Scale(sx, sy float64) Box {
	return Box{MinX: b.MinX * sx, MinY: b.MinY * sy, MaxX: b.MaxX * sx, MaxY: b.MaxY * sy}
}

// UnitBox is the relative page frame.
var UnitBox = Box{MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}

// RotatedBox is an oriented rectangle given by its center, its size and the
// angle of its width axis.
type RotatedBox struct {
	CX    float64 `json:"cx" yaml:"cx"`
	CY    float64 `json:"cy" yaml:"cy"`
	W     float64 `json:"w" yaml:"w"`
	H     float64 `json:"h" yaml:"h"`
	Angle float64 `json:"angle" yaml:"angle"`
}

// ScoredBox is a candidate word region with its objectness score. Box is
// always set; in oriented mode it is the enclosing box of Rotated.
type ScoredBox struct {
	Box     Box         `json:"box" yaml:"box"`
	Rotated *RotatedBox `json:"rotated,omitempty" yaml:"rotated,omitempty"`
	Score   float64     `json:"score" yaml:"score"`
}

// Size is a page size in pixels. The zero Size means "relative coordinates".
type Size struct {
	Width  float64
	Height float64
}

// IsZero reports whether no pixel size was given.
func (s Size) IsZero() bool { return s.Width <= 0 || s.Height <= 0 }

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
