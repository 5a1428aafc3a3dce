// Package pipeline runs end-to-end OCR: text detection, box extraction, crop
// recognition and document assembly.
package pipeline

import (
	"context"
	"errors"
	"image"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/raster"
	"github.com/MeKo-Tech/docweave/internal/textproc"
)

// PageImage is a decoded H×W×C page.
type PageImage = raster.Image

// RecognitionModel reads the text of word crops, one string per crop and in
// crop order.
type RecognitionModel interface {
	Recognize(ctx context.Context, crops []image.Image) ([]string, error)
}

// RecognitionModelFunc adapts a function to RecognitionModel.
type RecognitionModelFunc func(ctx context.Context, crops []image.Image) ([]string, error)

// Recognize calls f.
func (f RecognitionModelFunc) Recognize(ctx context.Context, crops []image.Image) ([]string, error) {
	return f(ctx, crops)
}

// Builder constructs a Predictor with fluent configuration.
type Builder struct {
	cfg   Config
	det   detector.DetectionModel
	reco  RecognitionModel
	batch batch.Options
}

// NewBuilder creates a builder with default settings.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithConfig replaces all stage settings.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithDetectionModel sets the model producing probability maps.
func (b *Builder) WithDetectionModel(m detector.DetectionModel) *Builder {
	b.det = m
	return b
}

// WithRecognitionModel sets the model reading word crops.
func (b *Builder) WithRecognitionModel(m RecognitionModel) *Builder {
	b.reco = m
	return b
}

// WithDetectorConfig sets the extraction settings.
func (b *Builder) WithDetectorConfig(cfg detector.Config) *Builder {
	b.cfg.Detector = cfg
	return b
}

// WithAssemblerConfig sets the assembly settings.
func (b *Builder) WithAssemblerConfig(cfg assembler.Config) *Builder {
	b.cfg.Assembler = cfg
	return b
}

// WithWorkers bounds per-page concurrency; 0 uses every CPU.
func (b *Builder) WithWorkers(n int) *Builder {
	if n >= 0 {
		b.batch.MaxWorkers = n
	}
	return b
}

// WithContinueOnError keeps processing pages after a failure.
func (b *Builder) WithContinueOnError(v bool) *Builder {
	b.batch.ContinueOnError = v
	return b
}

// WithProgress reports per-page progress of the extraction stage.
func (b *Builder) WithProgress(p batch.Progress) *Builder {
	b.batch.Progress = p
	return b
}

// WithLanguageDetection enables or disables Page.Language estimation.
func (b *Builder) WithLanguageDetection(v bool) *Builder {
	b.cfg.DetectLanguage = v
	return b
}

// Build validates the configuration and returns the predictor.
func (b *Builder) Build() (*Predictor, error) {
	if b.det == nil {
		return nil, errors.New("pipeline: detection model is required")
	}
	if b.reco == nil {
		return nil, errors.New("pipeline: recognition model is required")
	}
	if err := b.cfg.Validate(); err != nil {
		return nil, err
	}
	ext, err := detector.NewExtractor(b.cfg.Detector)
	if err != nil {
		return nil, err
	}
	asm, err := assembler.New(b.cfg.Assembler)
	if err != nil {
		return nil, err
	}
	stageOpts := b.batch
	stageOpts.Progress = nil
	return &Predictor{
		cfg:       b.cfg,
		det:       detector.NewPredictor(b.det, ext, b.batch),
		reco:      b.reco,
		asm:       asm.WithBatchOptions(stageOpts),
		cleaner:   textproc.NewCleaner(b.cfg.Text),
		batchOpts: stageOpts,
	}, nil
}

// Predictor is the end-to-end OCR predictor. Its collaborators are fixed at
// construction; it is safe for concurrent use if the models are.
type Predictor struct {
	cfg       Config
	det       *detector.Predictor
	reco      RecognitionModel
	asm       *assembler.Assembler
	cleaner   *textproc.Cleaner
	batchOpts batch.Options
}

// Config returns the settings the predictor was built with.
func (p *Predictor) Config() Config { return p.cfg }
