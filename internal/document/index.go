package document

import (
	"slices"

	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/tidwall/rtree"
)

// WordIndex is a spatial index over the words of a page.
type WordIndex struct {
	words []Word
	tr    rtree.RTreeG[int]
}

// NewWordIndex indexes the words of p by their geometry.
func NewWordIndex(p Page) *WordIndex {
	idx := &WordIndex{words: p.Words()}
	for i, w := range idx.words {
		idx.tr.Insert(w.Geometry[0], w.Geometry[1], i)
	}
	return idx
}

// Len is the number of indexed words.
func (x *WordIndex) Len() int { return x.tr.Len() }

// Search returns the words whose box intersects region, in reading order.
func (x *WordIndex) Search(region geometry.Box) []Word {
	var hits []int
	x.tr.Search([2]float64{region.MinX, region.MinY}, [2]float64{region.MaxX, region.MaxY},
		func(_, _ [2]float64, i int) bool {
			hits = append(hits, i)
			return true
		})
	slices.Sort(hits)
	out := make([]Word, len(hits))
	for i, h := range hits {
		out[i] = x.words[h]
	}
	return out
}

// WordsIn returns the words of the page intersecting region, in reading
// order. Build a WordIndex once when querying a page repeatedly.
func (p Page) WordsIn(region geometry.Box) []Word {
	return NewWordIndex(p).Search(region)
}
