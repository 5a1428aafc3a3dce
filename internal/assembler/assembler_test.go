package assembler

import (
	"context"
	"testing"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sb(x0, y0, x1, y1 float64) geometry.ScoredBox {
	return geometry.ScoredBox{Box: geometry.Box{MinX: x0, MinY: y0, MaxX: x1, MaxY: y1}, Score: 0.8}
}

func mustNew(t *testing.T, mutate func(*Config)) *Assembler {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func lineValues(p document.Page) [][]string {
	var out [][]string
	for _, b := range p.Blocks {
		for _, l := range b.Lines {
			var vals []string
			for _, w := range l.Words {
				vals = append(vals, w.Value)
			}
			out = append(out, vals)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		a := mustNew(t, nil)
		assert.Equal(t, 0.035, a.Config().ParagraphBreak)
		assert.False(t, a.Config().ResolveLines)
	})

	t.Run("block resolution unsupported", func(t *testing.T) {
		_, err := New(Config{ResolveBlocks: true, ParagraphBreak: 0.035})
		var uf *ocrerr.UnsupportedFeatureError
		require.ErrorAs(t, err, &uf)
	})

	t.Run("negative paragraph break", func(t *testing.T) {
		_, err := New(Config{ParagraphBreak: -0.1})
		var ip *ocrerr.InvalidParameterError
		require.ErrorAs(t, err, &ip)
		assert.Equal(t, "paragraph_break", ip.Parameter)
	})
}

func TestAssemblePage_TwoRows(t *testing.T) {
	a := mustNew(t, func(c *Config) { c.ResolveLines = true })
	boxes := []geometry.ScoredBox{
		sb(0.22, 0.30, 0.35, 0.35), // e
		sb(0.32, 0.10, 0.40, 0.15), // c
		sb(0.10, 0.10, 0.20, 0.15), // a
		sb(0.10, 0.30, 0.20, 0.35), // d
		sb(0.22, 0.10, 0.30, 0.15), // b
	}
	strs := []string{"e", "c", "a", "d", "b"}

	page, err := a.AssemblePage(0, boxes, strs, Shape{100, 200})
	require.NoError(t, err)
	require.Len(t, page.Blocks, 1)
	assert.Equal(t, [][]string{{"a", "b", "c"}, {"d", "e"}}, lineValues(page))
	assert.Equal(t, document.Dimensions{100, 200}, page.Dimensions)
	assert.Equal(t, 0.8, page.Blocks[0].Lines[0].Words[0].Confidence)
}

func TestAssemblePage_SplitsAtParagraphBreak(t *testing.T) {
	a := mustNew(t, func(c *Config) { c.ResolveLines = true })
	boxes := []geometry.ScoredBox{
		sb(0.10, 0.10, 0.20, 0.15),
		sb(0.25, 0.10, 0.30, 0.15),
		sb(0.31, 0.10, 0.40, 0.15),
	}
	page, err := a.AssemblePage(0, boxes, []string{"left", "right", "more"}, Shape{10, 10})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"left"}, {"right", "more"}}, lineValues(page))
	require.Len(t, page.Blocks, 1)
}

func TestAssemblePage_SingleLineMode(t *testing.T) {
	a := mustNew(t, nil)
	boxes := []geometry.ScoredBox{
		sb(0.10, 0.30, 0.20, 0.35),
		sb(0.50, 0.10, 0.60, 0.15),
		sb(0.10, 0.10, 0.20, 0.15),
	}
	page, err := a.AssemblePage(0, boxes, []string{"low", "right", "left"}, Shape{10, 10})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"left", "right", "low"}}, lineValues(page))
}

func TestAssemblePage_CountMismatch(t *testing.T) {
	a := mustNew(t, nil)
	boxes := []geometry.ScoredBox{sb(0, 0, .1, .1), sb(.2, 0, .3, .1), sb(.4, 0, .5, .1)}
	_, err := a.AssemblePage(2, boxes, []string{"a", "b"}, Shape{30, 40})
	var sm *ocrerr.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, 2, sm.Page)
	assert.Equal(t, []int{30, 40}, sm.Shape)
}

func TestAssemblePage_NoBoxes(t *testing.T) {
	a := mustNew(t, func(c *Config) { c.ResolveLines = true })
	page, err := a.AssemblePage(4, nil, nil, Shape{10, 20})
	require.NoError(t, err)
	assert.NotNil(t, page.Blocks)
	assert.Empty(t, page.Blocks)
	assert.Equal(t, 4, page.Index)
}

func TestAssemble_MultiPage(t *testing.T) {
	a := mustNew(t, func(c *Config) { c.ResolveLines = true }).WithBatchOptions(batch.Options{MaxWorkers: 2})
	pageBoxes := [][]geometry.ScoredBox{
		{sb(0.1, 0.1, 0.2, 0.15), sb(0.22, 0.1, 0.3, 0.15)},
		{},
		{sb(0.1, 0.5, 0.3, 0.6)},
	}
	doc, err := a.Assemble(context.Background(), pageBoxes, []string{"one", "two", "three"}, []Shape{{10, 10}, {20, 20}, {30, 30}})
	require.NoError(t, err)
	require.Len(t, doc.Pages, 3)

	assert.Equal(t, [][]string{{"one", "two"}}, lineValues(doc.Pages[0]))
	assert.Empty(t, doc.Pages[1].Blocks)
	assert.Equal(t, [][]string{{"three"}}, lineValues(doc.Pages[2]))
	for i, p := range doc.Pages {
		assert.Equal(t, i, p.Index)
	}
	assert.Equal(t, document.Dimensions{30, 30}, doc.Pages[2].Dimensions)
	assert.Equal(t, "one two\n\n\n\n\n\n\n\nthree", doc.Render())
}

func TestAssemble_Mismatches(t *testing.T) {
	a := mustNew(t, nil)
	boxes := [][]geometry.ScoredBox{{sb(0, 0, .1, .1)}, {sb(0, 0, .1, .1), sb(.2, 0, .3, .1)}}

	_, err := a.Assemble(context.Background(), boxes, []string{"a", "b"}, []Shape{{1, 1}, {1, 1}})
	var sm *ocrerr.ShapeMismatchError
	require.ErrorAs(t, err, &sm)

	_, err = a.Assemble(context.Background(), boxes, []string{"a", "b", "c"}, []Shape{{1, 1}})
	require.ErrorAs(t, err, &sm)

	_, err = a.AssembleWithMeta(context.Background(), boxes, []string{"a", "b", "c"}, []Shape{{1, 1}, {1, 1}}, []PageMeta{{}})
	require.ErrorAs(t, err, &sm)
}

func TestAssembleWithMeta(t *testing.T) {
	a := mustNew(t, nil)
	meta := []PageMeta{{
		Orientation: document.Orientation{Value: 3, Confidence: 0.9},
		Language:    document.Language{Value: "fr", Confidence: 0.7},
	}}
	doc, err := a.AssembleWithMeta(context.Background(), [][]geometry.ScoredBox{{sb(0, 0, .1, .1)}}, []string{"bonjour"}, []Shape{{5, 5}}, meta)
	require.NoError(t, err)
	assert.Equal(t, meta[0].Orientation, doc.Pages[0].Orientation)
	assert.Equal(t, meta[0].Language, doc.Pages[0].Language)
}

func TestReadingOrder_ZeroHeightFallback(t *testing.T) {
	boxes := []geometry.Box{
		{MinX: 0.5, MinY: 0.2, MaxX: 0.6, MaxY: 0.2},
		{MinX: 0.1, MinY: 0.2, MaxX: 0.2, MaxY: 0.2},
		{MinX: 0.1, MinY: 0.1, MaxX: 0.2, MaxY: 0.1},
	}
	assert.Equal(t, []int{2, 1, 0}, readingOrder(boxes))
}

func TestReadingOrder_TiesKeepInputOrder(t *testing.T) {
	b := geometry.Box{MinX: 0.1, MinY: 0.1, MaxX: 0.2, MaxY: 0.2}
	assert.Equal(t, []int{0, 1, 2}, readingOrder([]geometry.Box{b, b, b}))
}

func TestMedianHeight(t *testing.T) {
	boxes := []geometry.Box{{MaxY: 1}, {MaxY: 3}, {MaxY: 2}, {MaxY: 10}}
	assert.Equal(t, 2.5, medianHeight(boxes))
	assert.Equal(t, 2.0, medianHeight(boxes[:3]))
	assert.Equal(t, 0.0, medianHeight(nil))
}
