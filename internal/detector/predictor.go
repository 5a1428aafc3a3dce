package detector

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// DetectionModel is the neural network that turns pages into probability
// maps, one per page and in page order.
type DetectionModel interface {
	Predict(ctx context.Context, pages []raster.Image) ([]ProbabilityMap, error)
}

// DetectionModelFunc adapts a function to DetectionModel.
type DetectionModelFunc func(ctx context.Context, pages []raster.Image) ([]ProbabilityMap, error)

// Predict calls f.
func (f DetectionModelFunc) Predict(ctx context.Context, pages []raster.Image) ([]ProbabilityMap, error) {
	return f(ctx, pages)
}

// PostProcessor converts one probability map into boxes. *Extractor is the
// implementation used in production.
type PostProcessor interface {
	ExtractPage(idx int, m ProbabilityMap) (PageResult, error)
}

// Predictor pairs a detection model with its post-processor. Both are fixed
// at construction.
type Predictor struct {
	model DetectionModel
	post  PostProcessor
	opts  batch.Options
}

// NewPredictor creates a predictor.
func NewPredictor(model DetectionModel, post PostProcessor, opts batch.Options) *Predictor {
	return &Predictor{model: model, post: post, opts: opts}
}

// Predict validates the pages, runs the model and post-processes every map.
func (p *Predictor) Predict(ctx context.Context, pages []raster.Image) ([]PageResult, error) {
	for i, pg := range pages {
		if err := pg.Validate(i); err != nil {
			return nil, err
		}
	}
	if len(pages) == 0 {
		return []PageResult{}, nil
	}
	maps, err := p.model.Predict(ctx, pages)
	if err != nil {
		return nil, fmt.Errorf("detection model: %w", err)
	}
	if len(maps) != len(pages) {
		return nil, ocrerr.ShapeMismatch(ocrerr.NoPage, nil, "detection model returned %d maps for %d pages", len(maps), len(pages))
	}
	slog.Debug("Detection model finished", "pages", len(pages))
	return batch.Run(ctx, len(maps), p.opts, func(_ context.Context, i int) (PageResult, error) {
		return p.post.ExtractPage(i, maps[i])
	})
}
