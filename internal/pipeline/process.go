package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/textproc"
)

// Process runs OCR over pages and assembles the document.
//
// Every page must be a 3-dimensional image with at least one channel; a
// malformed page fails with *ocrerr.ShapeMismatchError before any model is
// called. When the predictor continues on error, pages that failed detection
// come back empty and the failures are returned as *ocrerr.BatchError next to
// the document.
func (p *Predictor) Process(ctx context.Context, pages []PageImage) (*document.Document, error) {
	start := time.Now()
	for i, pg := range pages {
		if err := pg.Validate(i); err != nil {
			return nil, err
		}
	}
	if len(pages) == 0 {
		return &document.Document{Pages: []document.Page{}}, nil
	}

	results, detErr := p.det.Predict(ctx, pages)
	var batchErr *ocrerr.BatchError
	if detErr != nil && !(p.batchOpts.ContinueOnError && errors.As(detErr, &batchErr)) {
		return nil, detErr
	}

	crops, err := batch.Run(ctx, len(pages), p.batchOpts, func(_ context.Context, i int) ([]image.Image, error) {
		return ExtractCrops(pages[i], results[i].Boxes, results[i].Angle, p.cfg.StraightenCrops), nil
	})
	if err != nil {
		return nil, err
	}
	var flat []image.Image
	for _, c := range crops {
		flat = append(flat, c...)
	}

	strs, err := p.recognize(ctx, flat)
	if err != nil {
		return nil, err
	}

	pageBoxes := make([][]geometry.ScoredBox, len(pages))
	shapes := make([]assembler.Shape, len(pages))
	meta := make([]assembler.PageMeta, len(pages))
	offset := 0
	for i, r := range results {
		pageBoxes[i] = r.Boxes
		shapes[i] = assembler.Shape{pages[i].Height(), pages[i].Width()}
		meta[i] = p.pageMeta(r, strs[offset:offset+len(r.Boxes)])
		offset += len(r.Boxes)
	}

	doc, err := p.asm.AssembleWithMeta(ctx, pageBoxes, strs, shapes, meta)
	if err != nil {
		return nil, err
	}
	slog.Debug("Processed pages", "pages", len(pages), "words", len(strs), "duration", time.Since(start))
	if batchErr != nil {
		return doc, batchErr
	}
	return doc, nil
}

func (p *Predictor) recognize(ctx context.Context, crops []image.Image) ([]string, error) {
	if len(crops) == 0 {
		return []string{}, nil
	}
	strs, err := p.reco.Recognize(ctx, crops)
	if err != nil {
		return nil, fmt.Errorf("recognition model: %w", err)
	}
	if len(strs) != len(crops) {
		return nil, ocrerr.ShapeMismatch(ocrerr.NoPage, nil, "recognition model returned %d strings for %d crops", len(strs), len(crops))
	}
	return p.cleaner.CleanAll(strs), nil
}

func (p *Predictor) pageMeta(r detector.PageResult, words []string) assembler.PageMeta {
	m := assembler.PageMeta{
		Orientation: document.Orientation{Value: r.Angle, Confidence: r.AngleConfidence},
	}
	if p.cfg.DetectLanguage {
		lang := textproc.DetectLanguage(words...)
		m.Language = document.Language{Value: lang.Code(), Confidence: lang.Confidence}
	}
	return m
}
