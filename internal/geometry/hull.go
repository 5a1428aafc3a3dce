package geometry

import (
	"math"
	"slices"
)

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	n := len(pts)
	if n <= 1 {
		return append([]Point(nil), pts...)
	}
	p := make([]Point, n)
	copy(p, pts)
	slices.SortFunc(p, func(a, b Point) int {
		if a.X != b.X {
			if a.X < b.X {
				return -1
			}
			return 1
		}
		switch {
		case a.Y < b.Y:
			return -1
		case a.Y > b.Y:
			return 1
		}
		return 0
	})
	p = slices.Compact(p)
	if len(p) <= 2 {
		return p
	}
	lower := halfHull(p, 0, len(p), 1)
	upper := halfHull(p, len(p)-1, -1, -1)
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func halfHull(p []Point, from, to, step int) []Point {
	out := make([]Point, 0, len(p))
	for i := from; i != to; i += step {
		pt := p[i]
		for len(out) >= 2 && cross(out[len(out)-2], out[len(out)-1], pt) <= 0 {
			out = out[:len(out)-1]
		}
		out = append(out, pt)
	}
	return out
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}

// rect is a minimal-area rectangle expressed in the (u, v) frame.
type rect struct {
	u, v       Point
	minS, maxS float64
	minT, maxT float64
}

func (r rect) corners() Polygon {
	at := func(s, t float64) Point {
		return Point{X: r.u.X*s + r.v.X*t, Y: r.u.Y*s + r.v.Y*t}
	}
	return Polygon{at(r.minS, r.minT), at(r.maxS, r.minT), at(r.maxS, r.maxT), at(r.minS, r.maxT)}
}

// MinimumAreaRectangle computes the minimum-area enclosing rectangle using a
// rotating calipers approach over the convex hull. Returns 4 points in hull
// order. A single point or a segment yields a degenerate (zero-area) rectangle.
func MinimumAreaRectangle(pts []Point) Polygon {
	r, ok := minAreaRect(pts)
	if !ok {
		return nil
	}
	return r.corners()
}

func minAreaRect(pts []Point) (rect, bool) {
	hull := ConvexHull(pts)
	switch len(hull) {
	case 0:
		return rect{}, false
	case 1:
		p := hull[0]
		return rect{u: Point{X: 1}, v: Point{Y: 1}, minS: p.X, maxS: p.X, minT: p.Y, maxT: p.Y}, true
	}
	best := rect{}
	bestArea := math.Inf(1)
	for i := range hull {
		a := hull[i]
		b := hull[(i+1)%len(hull)]
		dx, dy := b.X-a.X, b.Y-a.Y
		l := math.Hypot(dx, dy)
		if l == 0 {
			continue
		}
		u := Point{X: dx / l, Y: dy / l}
		v := Point{X: -u.Y, Y: u.X}
		r := rect{u: u, v: v, minS: math.Inf(1), maxS: math.Inf(-1), minT: math.Inf(1), maxT: math.Inf(-1)}
		for _, p := range hull {
			s := p.X*u.X + p.Y*u.Y
			t := p.X*v.X + p.Y*v.Y
			r.minS, r.maxS = math.Min(r.minS, s), math.Max(r.maxS, s)
			r.minT, r.maxT = math.Min(r.minT, t), math.Max(r.maxT, t)
		}
		area := (r.maxS - r.minS) * (r.maxT - r.minT)
		if area < bestArea {
			bestArea = area
			best = r
		}
	}
	return best, !math.IsInf(bestArea, 1)
}

// Contains reports whether p lies inside the polygon (even-odd rule).
func (poly Polygon) Contains(p Point) bool {
	inside := false
	n := len(poly)
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		a, b := poly[i], poly[j]
		if (a.Y > p.Y) != (b.Y > p.Y) {
			x := (b.X-a.X)*(p.Y-a.Y)/(b.Y-a.Y) + a.X
			if p.X < x {
				inside = !inside
			}
		}
	}
	return inside
}
