package raster

import "github.com/MeKo-Tech/docweave/internal/mempool"

// Component describes one 8-connected foreground region.
type Component struct {
	Label int32
	Area  int
	MinX  int
	MinY  int
	MaxX  int
	MaxY  int
}

// Width of the bounding rectangle in pixels.
func (c Component) Width() int { return c.MaxX - c.MinX + 1 }

// Height of the bounding rectangle in pixels.
func (c Component) Height() int { return c.MaxY - c.MinY + 1 }

// Labeling is the result of connected component labelling. Labels holds the
// 1-based component label of every pixel, 0 for background. Call Release once
// the labels are no longer needed.
type Labeling struct {
	Width      int
	Height     int
	Labels     []int32
	Components []Component
}

// Release returns the label buffer to the pool.
func (l *Labeling) Release() {
	mempool.Int32s.Put(l.Labels)
	l.Labels = nil
}

var neighbours8 = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}

// Label finds the 8-connected components of b by breadth-first search.
// Components are numbered in raster order of their first pixel.
func Label(b Bitmap) *Labeling {
	w, h := b.Width, b.Height
	l := &Labeling{Width: w, Height: h, Labels: mempool.Int32s.Get(w * h)}
	var queue []int
	for y := range h {
		for x := range w {
			idx := y*w + x
			if !b.Data[idx] || l.Labels[idx] != 0 {
				continue
			}
			label := int32(len(l.Components) + 1)
			c := Component{Label: label, MinX: x, MinY: y, MaxX: x, MaxY: y}
			l.Labels[idx] = label
			queue = append(queue[:0], idx)
			for head := 0; head < len(queue); head++ {
				ci := queue[head]
				cx, cy := ci%w, ci/w
				c.Area++
				c.MinX, c.MaxX = min(c.MinX, cx), max(c.MaxX, cx)
				c.MinY, c.MaxY = min(c.MinY, cy), max(c.MaxY, cy)
				for _, d := range neighbours8 {
					nx, ny := cx+d[0], cy+d[1]
					if nx < 0 || ny < 0 || nx >= w || ny >= h {
						continue
					}
					ni := ny*w + nx
					if b.Data[ni] && l.Labels[ni] == 0 {
						l.Labels[ni] = label
						queue = append(queue, ni)
					}
				}
			}
			l.Components = append(l.Components, c)
		}
	}
	return l
}

func (l *Labeling) is(label int32, x, y int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return false
	}
	return l.Labels[y*l.Width+x] == label
}
