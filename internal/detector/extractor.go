// Package detector turns text probability maps into scored word boxes.
package detector

import (
	"cmp"
	"context"
	"log/slog"
	"slices"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/orientation"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

type (
	// ProbabilityMap is a detector output for one page.
	ProbabilityMap = raster.ProbabilityMap
	// Bitmap is a binarized probability map.
	Bitmap = raster.Bitmap
)

// PageResult is the extraction output of one page. Boxes are relative to the
// map size and expressed in the deskewed frame; Angle is the skew that was
// removed before extraction.
type PageResult struct {
	Boxes           []geometry.ScoredBox `json:"boxes" yaml:"boxes"`
	Angle           float64              `json:"angle" yaml:"angle"`
	AngleConfidence float64              `json:"angle_confidence" yaml:"angle_confidence"`
}

// Extractor converts probability maps into scored boxes. It is safe for
// concurrent use.
type Extractor struct {
	cfg Config
}

// NewExtractor validates cfg and returns an extractor bound to it.
func NewExtractor(cfg Config) (*Extractor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Extractor{cfg: cfg}, nil
}

// Config returns the extractor settings.
func (e *Extractor) Config() Config { return e.cfg }

// ExtractPage binarizes and denoises the map, removes the page skew, and
// returns the scored components sorted by descending score.
func (e *Extractor) ExtractPage(idx int, m ProbabilityMap) (PageResult, error) {
	if err := m.Validate(idx); err != nil {
		return PageResult{}, err
	}
	bitmap := raster.Binarize(m, e.cfg.BinThresh)
	bitmap = raster.Open(bitmap, raster.OpeningKernelSize(m.Height))

	skew := orientation.EstimateSkew(bitmap)
	if skew.Angle != 0 {
		bitmap = orientation.RotateBitmap(bitmap, -skew.Angle)
		m = orientation.RotateMap(m, -skew.Angle)
	}

	boxes := e.candidates(m, bitmap)
	slog.Debug("Extracted page",
		"page", idx,
		"boxes", len(boxes),
		"angle", skew.Angle,
		"rotated_bbox", e.cfg.RotatedBBox)
	return PageResult{Boxes: boxes, Angle: skew.Angle, AngleConfidence: skew.Confidence}, nil
}

// Extract runs ExtractPage over a batch and returns the boxes and skew angles
// indexed by page.
func (e *Extractor) Extract(ctx context.Context, maps []ProbabilityMap, opts batch.Options) ([][]geometry.ScoredBox, []float64, error) {
	results, err := e.ExtractResults(ctx, maps, opts)
	if results == nil {
		return nil, nil, err
	}
	boxes := make([][]geometry.ScoredBox, len(results))
	angles := make([]float64, len(results))
	for i, r := range results {
		boxes[i] = r.Boxes
		angles[i] = r.Angle
	}
	return boxes, angles, err
}

// ExtractResults is Extract returning the full per-page results.
func (e *Extractor) ExtractResults(ctx context.Context, maps []ProbabilityMap, opts batch.Options) ([]PageResult, error) {
	return batch.Run(ctx, len(maps), opts, func(_ context.Context, i int) (PageResult, error) {
		return e.ExtractPage(i, maps[i])
	})
}

func (e *Extractor) candidates(m ProbabilityMap, b Bitmap) []geometry.ScoredBox {
	l := raster.Label(b)
	defer l.Release()

	w, h := float64(m.Width), float64(m.Height)
	frame := geometry.Box{MaxX: w, MaxY: h}
	out := make([]geometry.ScoredBox, 0, len(l.Components))
	for i, c := range l.Components {
		if c.Width() < e.cfg.MinSizeBox || c.Height() < e.cfg.MinSizeBox {
			continue
		}
		var sb geometry.ScoredBox
		if e.cfg.RotatedBBox {
			rb, err := geometry.PolygonToRotatedBox(l.Outline(i))
			if err != nil {
				continue
			}
			rb = geometry.FitRotatedBox(rb, frame)
			poly := geometry.RotatedBoxToPolygon(rb)
			sb.Score = polygonMean(m, poly)
			sb.Box = geometry.PolygonToBox(poly).Clip(frame).Scale(1/w, 1/h)
			sb.Rotated = &geometry.RotatedBox{CX: rb.CX / w, CY: rb.CY / h, W: rb.W / w, H: rb.H / h, Angle: rb.Angle}
		} else {
			sb.Score = rectMean(m, c.MinX, c.MinY, c.MaxX, c.MaxY)
			sb.Box = geometry.Box{
				MinX: float64(c.MinX) / w,
				MinY: float64(c.MinY) / h,
				MaxX: float64(c.MaxX+1) / w,
				MaxY: float64(c.MaxY+1) / h,
			}
		}
		// a score of zero is never kept, whatever the threshold
		if sb.Score <= 0 || sb.Score < e.cfg.BoxThresh {
			continue
		}
		out = append(out, sb)
	}

	slices.SortStableFunc(out, func(a, b geometry.ScoredBox) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(out) > e.cfg.MaxCandidates {
		out = out[:e.cfg.MaxCandidates]
	}
	return out
}
