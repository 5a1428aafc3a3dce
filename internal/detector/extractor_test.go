package detector

import (
	"context"
	"math"
	"testing"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/raster"
	"github.com/MeKo-Tech/docweave/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// paint fills the inclusive pixel rectangle with v.
func paint(m ProbabilityMap, x0, y0, x1, y1 int, v float32) {
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			m.Data[y*m.Width+x] = v
		}
	}
}

// twoWords has a strong word at the top and a weaker one below it, plus
// a single-pixel speckle.
func twoWords() ProbabilityMap {
	m := raster.NewProbabilityMap(64, 64)
	paint(m, 5, 10, 24, 17, 0.9)
	paint(m, 30, 40, 49, 49, 0.6)
	m.Data[2*64+60] = 1
	return m
}

func newExtractor(t *testing.T, mutate func(*Config)) *Extractor {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(&cfg)
	}
	e, err := NewExtractor(cfg)
	require.NoError(t, err)
	return e
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		param  string
	}{
		{"defaults", func(*Config) {}, ""},
		{"box thresh above one", func(c *Config) { c.BoxThresh = 1.5 }, "box_thresh"},
		{"bin thresh nan", func(c *Config) { c.BinThresh = math.NaN() }, "bin_thresh"},
		{"min size zero", func(c *Config) { c.MinSizeBox = 0 }, "min_size_box"},
		{"no candidates", func(c *Config) { c.MaxCandidates = 0 }, "max_candidates"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			_, err := NewExtractor(cfg)
			if tt.param == "" {
				require.NoError(t, err)
				return
			}
			var ip *ocrerr.InvalidParameterError
			require.ErrorAs(t, err, &ip)
			assert.Equal(t, tt.param, ip.Parameter)
		})
	}
}

func TestExtractPage_AxisAligned(t *testing.T) {
	e := newExtractor(t, nil)
	res, err := e.ExtractPage(0, twoWords())
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Angle)
	require.Len(t, res.Boxes, 2)

	first := res.Boxes[0]
	assert.InDelta(t, 0.9, first.Score, 1e-6)
	assert.Nil(t, first.Rotated)
	assert.Equal(t, geometry.Box{MinX: 5.0 / 64, MinY: 10.0 / 64, MaxX: 25.0 / 64, MaxY: 18.0 / 64}, first.Box)

	second := res.Boxes[1]
	assert.InDelta(t, 0.6, second.Score, 1e-6)
	assert.Equal(t, geometry.Box{MinX: 30.0 / 64, MinY: 40.0 / 64, MaxX: 50.0 / 64, MaxY: 50.0 / 64}, second.Box)
}

func TestExtractPage_Filters(t *testing.T) {
	t.Run("box threshold", func(t *testing.T) {
		e := newExtractor(t, func(c *Config) { c.BoxThresh = 0.7 })
		res, err := e.ExtractPage(0, twoWords())
		require.NoError(t, err)
		require.Len(t, res.Boxes, 1)
		assert.InDelta(t, 0.9, res.Boxes[0].Score, 1e-6)
	})

	t.Run("max candidates", func(t *testing.T) {
		e := newExtractor(t, func(c *Config) { c.MaxCandidates = 1 })
		res, err := e.ExtractPage(0, twoWords())
		require.NoError(t, err)
		require.Len(t, res.Boxes, 1)
		assert.InDelta(t, 0.9, res.Boxes[0].Score, 1e-6)
	})

	t.Run("min size keeps speckle when one", func(t *testing.T) {
		e := newExtractor(t, func(c *Config) { c.MinSizeBox = 1 })
		res, err := e.ExtractPage(0, twoWords())
		require.NoError(t, err)
		assert.Len(t, res.Boxes, 3)
		assert.InDelta(t, 1.0, res.Boxes[0].Score, 1e-6)
	})

	t.Run("bin threshold is strict", func(t *testing.T) {
		e := newExtractor(t, func(c *Config) { c.BinThresh = 0.6 })
		res, err := e.ExtractPage(0, twoWords())
		require.NoError(t, err)
		assert.Len(t, res.Boxes, 1)
	})

	t.Run("empty page", func(t *testing.T) {
		e := newExtractor(t, nil)
		res, err := e.ExtractPage(0, raster.NewProbabilityMap(32, 32))
		require.NoError(t, err)
		assert.Empty(t, res.Boxes)
		assert.Equal(t, 0.0, res.Angle)
	})
}

func TestExtractPage_RotatedBoxes(t *testing.T) {
	e := newExtractor(t, func(c *Config) { c.RotatedBBox = true })
	res, err := e.ExtractPage(0, twoWords())
	require.NoError(t, err)
	require.Len(t, res.Boxes, 2)

	first := res.Boxes[0]
	require.NotNil(t, first.Rotated)
	assert.InDelta(t, 15.0/64, first.Rotated.CX, 1e-9)
	assert.InDelta(t, 14.0/64, first.Rotated.CY, 1e-9)
	assert.InDelta(t, 20.0/64, first.Rotated.W, 1e-9)
	assert.InDelta(t, 8.0/64, first.Rotated.H, 1e-9)
	assert.InDelta(t, 0, first.Rotated.Angle, 1e-9)
	assert.InDelta(t, 0.9, first.Score, 1e-6)
	assert.InDelta(t, 5.0/64, first.Box.MinX, 1e-9)
	assert.InDelta(t, 25.0/64, first.Box.MaxX, 1e-9)
}

func TestExtractPage_RotatedBoxKeepsDescender(t *testing.T) {
	m := raster.NewProbabilityMap(64, 64)
	paint(m, 10, 10, 49, 15, 1)
	paint(m, 49, 16, 49, 40, 1)

	e := newExtractor(t, func(c *Config) {
		c.RotatedBBox = true
		c.BoxThresh = 0.1
	})
	res, err := e.ExtractPage(0, m)
	require.NoError(t, err)
	assert.InDelta(t, 0, res.Angle, 1e-9)
	require.Len(t, res.Boxes, 1)

	box := res.Boxes[0]
	require.NotNil(t, box.Rotated)
	assert.InDelta(t, 0, box.Rotated.Angle, 1e-9)
	assert.InDelta(t, 10, box.Box.MinX*64, 1e-9)
	assert.InDelta(t, 10, box.Box.MinY*64, 1e-9)
	assert.InDelta(t, 50, box.Box.MaxX*64, 1e-9)
	assert.InDelta(t, 41, box.Box.MaxY*64, 1e-9)
}

func TestExtractPage_RotatedBoxStaysOnPage(t *testing.T) {
	const w, h = 64, 64
	m := raster.NewProbabilityMap(h, w)
	c := geometry.Point{X: 60, Y: 32}
	for y := range h {
		for x := range w {
			p := geometry.RotatePoint(geometry.Point{X: float64(x) + 0.5, Y: float64(y) + 0.5}, c, -20)
			if math.Abs(p.X-c.X) <= 20 && math.Abs(p.Y-c.Y) <= 3 {
				m.Data[y*w+x] = 1
			}
		}
	}

	e := newExtractor(t, func(c *Config) {
		c.RotatedBBox = true
		c.BoxThresh = 0.1
	})
	res, err := e.ExtractPage(0, m)
	require.NoError(t, err)
	require.NotEmpty(t, res.Boxes)
	for _, b := range res.Boxes {
		require.NotNil(t, b.Rotated)
		for _, q := range geometry.RotatedBoxToPolygon(*b.Rotated) {
			assert.GreaterOrEqual(t, q.X, -1e-9)
			assert.GreaterOrEqual(t, q.Y, -1e-9)
			assert.LessOrEqual(t, q.X, 1+1e-9)
			assert.LessOrEqual(t, q.Y, 1+1e-9)
		}
	}
}

func TestExtractPage_RemovesSkew(t *testing.T) {
	const h = 200
	m := testutil.SkewedBar(h, 300, 100, 8, 8, 0.95)

	e := newExtractor(t, nil)
	res, err := e.ExtractPage(3, m)
	require.NoError(t, err)
	assert.InDelta(t, 8, res.Angle, 1.5)
	assert.Greater(t, res.AngleConfidence, 0.9)
	require.NotEmpty(t, res.Boxes)

	// deskewed, the bar is roughly as tall as it is thick
	assert.Less(t, res.Boxes[0].Box.Height()*h, 30.0)
}

func TestExtractPage_MalformedMap(t *testing.T) {
	e := newExtractor(t, nil)
	_, err := e.ExtractPage(7, ProbabilityMap{Height: 4, Width: 4, Data: make([]float32, 3)})
	var sm *ocrerr.ShapeMismatchError
	require.ErrorAs(t, err, &sm)
	assert.Equal(t, 7, sm.Page)
	assert.Equal(t, []int{4, 4}, sm.Shape)
}

func TestExtract_Batch(t *testing.T) {
	e := newExtractor(t, nil)
	maps := []ProbabilityMap{twoWords(), raster.NewProbabilityMap(16, 16), twoWords()}

	boxes, angles, err := e.Extract(context.Background(), maps, batch.Options{MaxWorkers: 2})
	require.NoError(t, err)
	require.Len(t, boxes, 3)
	require.Len(t, angles, 3)
	assert.Len(t, boxes[0], 2)
	assert.Empty(t, boxes[1])
	assert.Len(t, boxes[2], 2)
}

func TestExtract_ErrorPolicy(t *testing.T) {
	e := newExtractor(t, nil)
	bad := ProbabilityMap{Height: 2, Width: 2}
	maps := []ProbabilityMap{twoWords(), bad, twoWords()}

	_, _, err := e.Extract(context.Background(), maps, batch.Options{})
	require.Error(t, err)
	assert.Equal(t, 1, ocrerr.PageOf(err))

	boxes, _, err := e.Extract(context.Background(), maps, batch.Options{ContinueOnError: true})
	var be *ocrerr.BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, []int{1}, be.FailedPages())
	assert.Len(t, boxes[0], 2)
	assert.Empty(t, boxes[1])
}

func TestScores_EmptyOrZeroMaskScoresZero(t *testing.T) {
	m := raster.NewProbabilityMap(10, 10)
	poly := geometry.BoxToPolygon(geometry.Box{MinX: 2, MinY: 2, MaxX: 6, MaxY: 6})
	assert.Equal(t, 0.0, polygonMean(m, geometry.Polygon{poly[0], poly[1], poly[3], poly[2]}))
	assert.Equal(t, 0.0, rectMean(m, 2, 2, 5, 5))

	// a sliver between pixel centers covers no pixel
	sliver := geometry.Polygon{{X: 3.6, Y: 3.6}, {X: 3.9, Y: 3.6}, {X: 3.9, Y: 3.9}, {X: 3.6, Y: 3.9}}
	paint(m, 0, 0, 9, 9, 1)
	assert.Equal(t, 0.0, polygonMean(m, sliver))
}

func TestScores_Means(t *testing.T) {
	m := raster.NewProbabilityMap(4, 4)
	paint(m, 0, 0, 1, 3, 1)
	assert.InDelta(t, 0.5, rectMean(m, 0, 0, 3, 3), 1e-9)
	square := geometry.Polygon{{X: 0, Y: 0}, {X: 4, Y: 0}, {X: 4, Y: 4}, {X: 0, Y: 4}}
	assert.InDelta(t, 0.5, polygonMean(m, square), 1e-9)
}
