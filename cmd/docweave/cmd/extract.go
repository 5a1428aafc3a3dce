package cmd

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/docweave/internal/batch"
	"github.com/MeKo-Tech/docweave/internal/detector"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/imageio"
	"github.com/MeKo-Tech/docweave/internal/ocrerr"
	"github.com/MeKo-Tech/docweave/internal/orientation"
	"github.com/MeKo-Tech/docweave/internal/raster"
)

// pageBoxes is the extraction result of one input, and the input format of
// the assemble command.
type pageBoxes struct {
	Source          string               `json:"source,omitempty" yaml:"source,omitempty"`
	Page            int                  `json:"page_idx" yaml:"page_idx"`
	Dimensions      document.Dimensions  `json:"dimensions" yaml:"dimensions,flow"`
	Angle           float64              `json:"angle" yaml:"angle"`
	AngleConfidence float64              `json:"angle_confidence" yaml:"angle_confidence"`
	Boxes           []geometry.ScoredBox `json:"boxes" yaml:"boxes"`
	Error           string               `json:"error,omitempty" yaml:"error,omitempty"`
}

// boxesFile is the document written by extract and read by assemble.
type boxesFile struct {
	Pages   []pageBoxes `json:"pages" yaml:"pages"`
	Strings []string    `json:"strings,omitempty" yaml:"strings,omitempty"`
}

// mapFile is the JSON form of a probability map.
type mapFile struct {
	Height int       `json:"height"`
	Width  int       `json:"width"`
	Data   []float32 `json:"data"`
}

func newExtractCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract MAP...",
		Short: "Extract scored word boxes from probability maps",
		Long: `Extract word boxes from text probability maps.

A map is either a grayscale image (black is probability 0, white is 1) in any
supported format (JPEG, PNG, BMP, TIFF, WebP) or a JSON file of the form
{"height": H, "width": W, "data": [...]} with H*W values in row-major order.

Boxes are relative to the map size and given in the deskewed frame.

Examples:
  docweave extract page.png
  docweave extract *.png --rotated --format yaml
  docweave extract page.json --overlay-dir overlays`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), cmd.OutOrStdout(), args)
		},
	}
	f := cmd.Flags()
	f.StringP("format", "f", "json", "output format (json, yaml, text, csv)")
	f.StringP("output", "o", "", "write results to a file instead of stdout")
	f.String("overlay-dir", "", "write box overlays as PNG files into this directory")
	f.Bool("rotated", false, "emit oriented boxes instead of axis-aligned ones")
	f.Float64("box-thresh", detector.DefaultConfig().BoxThresh, "minimum mean probability of a box")
	f.Float64("bin-thresh", detector.DefaultConfig().BinThresh, "binarization threshold")
	f.Int("min-size", detector.DefaultConfig().MinSizeBox, "minimum box side in pixels")
	f.Int("max-candidates", detector.DefaultConfig().MaxCandidates, "maximum boxes per page")
	return cmd
}

func (c *cli) runExtract(ctx context.Context, stdout io.Writer, paths []string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ext, err := detector.NewExtractor(c.cfg.Detector)
	if err != nil {
		return err
	}

	maps := make([]detector.ProbabilityMap, len(paths))
	for i, p := range paths {
		if maps[i], err = loadMap(p); err != nil {
			return err
		}
	}

	opts := c.cfg.BatchOptions()
	opts.Progress = batch.NewLogProgress(slog.Default(), slog.LevelDebug, "Extraction ")
	results, runErr := ext.ExtractResults(ctx, maps, opts)
	var be *ocrerr.BatchError
	if runErr != nil && !errors.As(runErr, &be) {
		return runErr
	}

	out := boxesFile{Pages: make([]pageBoxes, len(paths))}
	for i, p := range paths {
		pb := pageBoxes{
			Source:     p,
			Page:       i,
			Dimensions: document.Dimensions{maps[i].Height, maps[i].Width},
			Boxes:      []geometry.ScoredBox{},
		}
		if results != nil {
			pb.Angle, pb.AngleConfidence = results[i].Angle, results[i].AngleConfidence
			if results[i].Boxes != nil {
				pb.Boxes = results[i].Boxes
			}
		}
		out.Pages[i] = pb
	}
	if be != nil {
		for _, pe := range be.Errors {
			out.Pages[pe.Page].Error = pe.Err.Error()
		}
	}

	if dir := c.cfg.Output.OverlayDir; dir != "" {
		if err := writeOverlays(dir, maps, out.Pages); err != nil {
			return err
		}
	}

	data, err := encodeBoxes(out, c.cfg.Output.Format)
	if err != nil {
		return err
	}
	if err := writeOutput(stdout, c.cfg.Output.File, data); err != nil {
		return err
	}
	if be != nil {
		return be
	}
	return nil
}

func loadMap(path string) (detector.ProbabilityMap, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return imageio.LoadMap(path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return detector.ProbabilityMap{}, err
	}
	var mf mapFile
	if err := json.Unmarshal(data, &mf); err != nil {
		return detector.ProbabilityMap{}, fmt.Errorf("%s: %w", path, err)
	}
	return raster.ProbabilityMap{Height: mf.Height, Width: mf.Width, Data: mf.Data}, nil
}

// writeOverlays draws each page's boxes over its deskewed map.
func writeOverlays(dir string, maps []detector.ProbabilityMap, pages []pageBoxes) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	for i, p := range pages {
		if p.Error != "" {
			continue
		}
		m := maps[i]
		if p.Angle != 0 {
			m = orientation.RotateMap(m, -p.Angle)
		}
		img := imageio.Overlay(imageio.MapImage(m), p.Boxes, imageio.DefaultOverlayOptions())
		base := strings.TrimSuffix(filepath.Base(p.Source), filepath.Ext(p.Source))
		path := filepath.Join(dir, fmt.Sprintf("%03d_%s_overlay.png", i, base))
		if err := imageio.Save(path, img); err != nil {
			return err
		}
		slog.Debug("Wrote overlay", "page", i, "path", path)
	}
	return nil
}

func encodeBoxes(out boxesFile, format string) ([]byte, error) {
	switch format {
	case "json":
		return json.MarshalIndent(out, "", "  ")
	case "yaml":
		return yaml.Marshal(out)
	case "text":
		var buf bytes.Buffer
		for _, p := range out.Pages {
			if p.Error != "" {
				fmt.Fprintf(&buf, "page %d (%s): error: %s\n", p.Page, p.Source, p.Error)
				continue
			}
			fmt.Fprintf(&buf, "page %d (%s): %d boxes, skew %.2f° (confidence %.2f)\n",
				p.Page, p.Source, len(p.Boxes), p.Angle, p.AngleConfidence)
			for _, b := range p.Boxes {
				fmt.Fprintf(&buf, "  %.3f [%.4f %.4f %.4f %.4f]\n", b.Score, b.Box.MinX, b.Box.MinY, b.Box.MaxX, b.Box.MaxY)
			}
		}
		return buf.Bytes(), nil
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"page", "box", "score", "xmin", "ymin", "xmax", "ymax", "angle"})
		f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
		for _, p := range out.Pages {
			for i, b := range p.Boxes {
				angle := 0.0
				if b.Rotated != nil {
					angle = b.Rotated.Angle
				}
				_ = w.Write([]string{
					strconv.Itoa(p.Page), strconv.Itoa(i), f(b.Score),
					f(b.Box.MinX), f(b.Box.MinY), f(b.Box.MaxX), f(b.Box.MaxY), f(angle),
				})
			}
		}
		w.Flush()
		return buf.Bytes(), w.Error()
	}
	return nil, ocrerr.InvalidParameter("format", "unsupported output format %q", format)
}

func writeOutput(stdout io.Writer, file string, data []byte) error {
	if file == "" {
		_, err := stdout.Write(data)
		if err == nil && len(data) > 0 && data[len(data)-1] != '\n' {
			_, err = io.WriteString(stdout, "\n")
		}
		return err
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return err
		}
	}
	if err := os.WriteFile(file, data, 0o600); err != nil {
		return err
	}
	slog.Info("Wrote results", "file", file, "bytes", len(data))
	return nil
}
