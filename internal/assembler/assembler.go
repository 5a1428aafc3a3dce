// Package assembler groups scored word boxes and their recognized strings
// into lines and blocks in reading order.
package assembler

import (
	"context"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
)

// Config holds the immutable assembly settings.
type Config struct {
	// ResolveLines groups words into lines; otherwise every page gets a
	// single line holding all its words.
	ResolveLines bool `mapstructure:"resolve_lines" yaml:"resolve_lines" json:"resolve_lines"`
	// ResolveBlocks groups lines into blocks. Not supported.
	ResolveBlocks bool `mapstructure:"resolve_blocks" yaml:"resolve_blocks" json:"resolve_blocks"`
	// ParagraphBreak is the minimum relative horizontal gap that splits a line.
	ParagraphBreak float64 `mapstructure:"paragraph_break" yaml:"paragraph_break" json:"paragraph_break"`
}

// DefaultConfig returns the default assembly settings.
func DefaultConfig() Config {
	return Config{ParagraphBreak: 0.035}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.ResolveBlocks {
		return &ocrerr.UnsupportedFeatureError{Feature: "block resolution"}
	}
	if math.IsNaN(c.ParagraphBreak) || c.ParagraphBreak < 0 {
		return ocrerr.InvalidParameter("paragraph_break", "must be a non-negative number, got %v", c.ParagraphBreak)
	}
	return nil
}

// Shape is a page size as (height, width).
type Shape = document.Dimensions

// PageMeta carries per-page estimates attached to the assembled page.
type PageMeta struct {
	Orientation document.Orientation
	Language    document.Language
}

// Assembler builds documents. It is safe for concurrent use.
type Assembler struct {
	cfg  Config
	opts batch.Options
}

// New validates cfg and returns an assembler.
func New(cfg Config) (*Assembler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Assembler{cfg: cfg}, nil
}

// WithBatchOptions returns a copy of a that assembles pages with opts.
func (a *Assembler) WithBatchOptions(opts batch.Options) *Assembler {
	c := *a
	c.opts = opts
	return &c
}

// Config returns the assembly settings.
func (a *Assembler) Config() Config { return a.cfg }

// AssemblePage builds one page from its boxes and the strings recognized in
// them, in the same order.
func (a *Assembler) AssemblePage(idx int, boxes []geometry.ScoredBox, strs []string, shape Shape) (document.Page, error) {
	page := document.Page{Index: idx, Dimensions: shape, Blocks: []document.Block{}}
	if len(boxes) != len(strs) {
		return page, ocrerr.ShapeMismatch(idx, shape[:], "%d boxes but %d strings", len(boxes), len(strs))
	}
	if len(boxes) == 0 {
		return page, nil
	}

	geoms := make([]geometry.Box, len(boxes))
	for i, b := range boxes {
		geoms[i] = b.Box
	}
	var groups [][]int
	if a.cfg.ResolveLines {
		groups = a.resolveLines(geoms)
	} else {
		groups = [][]int{readingOrder(geoms)}
	}

	lines := make([]document.Line, len(groups))
	for i, g := range groups {
		words := make([]document.Word, len(g))
		for j, w := range g {
			words[j] = document.Word{
				Value:      strs[w],
				Confidence: boxes[w].Score,
				Geometry:   document.GeometryOf(boxes[w].Box),
			}
		}
		lines[i] = document.NewLine(words)
	}
	// block clustering is unsupported, so all lines share one block
	page.Blocks = []document.Block{document.NewBlock(lines)}

	slog.Debug("Assembled page", "page", idx, "words", len(boxes), "lines", len(lines))
	return page, nil
}

// Assemble builds a document from per-page boxes, the flat list of
// recognized strings in page-major order and the page shapes.
func (a *Assembler) Assemble(ctx context.Context, pageBoxes [][]geometry.ScoredBox, strs []string, shapes []Shape) (*document.Document, error) {
	return a.AssembleWithMeta(ctx, pageBoxes, strs, shapes, nil)
}

// AssembleWithMeta is Assemble that also records per-page orientation and
// language estimates. meta may be nil.
func (a *Assembler) AssembleWithMeta(ctx context.Context, pageBoxes [][]geometry.ScoredBox, strs []string, shapes []Shape, meta []PageMeta) (*document.Document, error) {
	if len(shapes) != len(pageBoxes) {
		return nil, ocrerr.ShapeMismatch(ocrerr.NoPage, nil, "%d pages of boxes but %d page shapes", len(pageBoxes), len(shapes))
	}
	if meta != nil && len(meta) != len(pageBoxes) {
		return nil, ocrerr.ShapeMismatch(ocrerr.NoPage, nil, "%d pages of boxes but %d page estimates", len(pageBoxes), len(meta))
	}
	offsets := make([]int, len(pageBoxes)+1)
	for i, b := range pageBoxes {
		offsets[i+1] = offsets[i] + len(b)
	}
	if total := offsets[len(pageBoxes)]; total != len(strs) {
		return nil, ocrerr.ShapeMismatch(ocrerr.NoPage, nil, "%d boxes but %d strings", total, len(strs))
	}

	pages, err := batch.Run(ctx, len(pageBoxes), a.opts, func(_ context.Context, i int) (document.Page, error) {
		p, err := a.AssemblePage(i, pageBoxes[i], strs[offsets[i]:offsets[i+1]], shapes[i])
		if err == nil && meta != nil {
			p.Orientation = meta[i].Orientation
			p.Language = meta[i].Language
		}
		return p, err
	})
	if pages == nil {
		return nil, err
	}
	return &document.Document{Pages: pages}, err
}
