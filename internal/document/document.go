// Package document holds the assembled OCR output: a Document of Pages, each
// made of Blocks of Lines of Words in reading order.
package document

import "github.com/MeKo-Tech/docweave/internal/geometry"

// Geometry is a two-corner box ((xmin, ymin), (xmax, ymax)) in coordinates
// relative to the page size.
type Geometry [2][2]float64

// GeometryOf converts an axis-aligned box.
func GeometryOf(b geometry.Box) Geometry {
	return Geometry{{b.MinX, b.MinY}, {b.MaxX, b.MaxY}}
}

// Box converts back to an axis-aligned box.
func (g Geometry) Box() geometry.Box {
	return geometry.Box{MinX: g[0][0], MinY: g[0][1], MaxX: g[1][0], MaxY: g[1][1]}
}

func enclosing[T any](items []T, geom func(T) Geometry) Geometry {
	boxes := make([]geometry.Box, len(items))
	for i, it := range items {
		boxes[i] = geom(it).Box()
	}
	return GeometryOf(geometry.ResolveEnclosingBox(boxes))
}

// Word is a recognized string with its detection confidence and location.
type Word struct {
	Value      string   `json:"value" yaml:"value"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Geometry   Geometry `json:"geometry" yaml:"geometry,flow"`
}

// Line is a left-to-right sequence of words.
type Line struct {
	Geometry Geometry `json:"geometry" yaml:"geometry,flow"`
	Words    []Word   `json:"words" yaml:"words"`
}

// NewLine builds a line whose geometry encloses its words.
func NewLine(words []Word) Line {
	return Line{Words: words, Geometry: enclosing(words, func(w Word) Geometry { return w.Geometry })}
}

// Block is a top-to-bottom sequence of lines.
type Block struct {
	Geometry Geometry `json:"geometry" yaml:"geometry,flow"`
	Lines    []Line   `json:"lines" yaml:"lines"`
}

// NewBlock builds a block whose geometry encloses its lines.
func NewBlock(lines []Line) Block {
	return Block{Lines: lines, Geometry: enclosing(lines, func(l Line) Geometry { return l.Geometry })}
}

// Dimensions is a page size as (height, width) in pixels.
type Dimensions [2]int

// Height of the page.
func (d Dimensions) Height() int { return d[0] }

// Width of the page.
func (d Dimensions) Width() int { return d[1] }

// Orientation is the estimated page skew in degrees.
type Orientation struct {
	Value      float64 `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Language is the estimated page language as a BCP 47 tag. An empty value
// means unknown.
type Language struct {
	Value      string  `json:"value" yaml:"value"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
}

// Page is one assembled page.
type Page struct {
	Blocks      []Block     `json:"blocks" yaml:"blocks"`
	Index       int         `json:"page_idx" yaml:"page_idx"`
	Dimensions  Dimensions  `json:"dimensions" yaml:"dimensions,flow"`
	Orientation Orientation `json:"orientation" yaml:"orientation"`
	Language    Language    `json:"language" yaml:"language"`
}

// Words returns every word of the page in reading order.
func (p Page) Words() []Word {
	var out []Word
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			out = append(out, l.Words...)
		}
	}
	return out
}

// WordCount is the number of words on the page.
func (p Page) WordCount() int {
	n := 0
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			n += len(l.Words)
		}
	}
	return n
}

// Document is the ordered list of pages.
type Document struct {
	Pages []Page `json:"pages" yaml:"pages"`
}
