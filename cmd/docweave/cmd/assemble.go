package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/docweave/internal/assembler"
	"github.com/MeKo-Tech/docweave/internal/document"
	"github.com/MeKo-Tech/docweave/internal/geometry"
	"github.com/MeKo-Tech/docweave/internal/textproc"
)

func newAssembleCommand(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assemble BOXES",
		Short: "Assemble boxes and recognized strings into a document",
		Long: `Assemble word boxes and their recognized strings into a document of pages,
blocks, lines and words in reading order.

BOXES is the JSON output of "docweave extract" ("-" reads standard input).
The strings come from its "strings" field or from --strings, a text file with
one string per line, in page order and, within a page, in box order.

Examples:
  docweave assemble boxes.json --strings words.txt
  docweave extract page.png | docweave assemble - --strings words.txt --format text`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strsFile, _ := cmd.Flags().GetString("strings")
			return c.runAssemble(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout(), args[0], strsFile)
		},
	}
	f := cmd.Flags()
	f.StringP("format", "f", "json", "output format (json, yaml, text, csv)")
	f.StringP("output", "o", "", "write the document to a file instead of stdout")
	f.String("strings", "", "file with one recognized string per line")
	f.Bool("resolve-lines", false, "group words into lines")
	f.Float64("paragraph-break", assembler.DefaultConfig().ParagraphBreak, "relative horizontal gap that splits a line")
	return cmd
}

func (c *cli) runAssemble(ctx context.Context, stdin io.Reader, stdout io.Writer, boxesPath, strsPath string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	in, err := readBoxes(stdin, boxesPath)
	if err != nil {
		return err
	}
	strs := in.Strings
	if strsPath != "" {
		if strs, err = readLines(strsPath); err != nil {
			return err
		}
	}
	cleaner := textproc.NewCleaner(c.cfg.Text.Clean)
	strs = cleaner.CleanAll(strs)

	asm, err := assembler.New(c.cfg.Assembler)
	if err != nil {
		return err
	}
	asm = asm.WithBatchOptions(c.cfg.BatchOptions())

	boxes := make([][]geometry.ScoredBox, len(in.Pages))
	shapes := make([]assembler.Shape, len(in.Pages))
	meta := make([]assembler.PageMeta, len(in.Pages))
	offset := 0
	for i, p := range in.Pages {
		boxes[i], shapes[i] = p.Boxes, p.Dimensions
		meta[i].Orientation = document.Orientation{Value: p.Angle, Confidence: p.AngleConfidence}
		end := min(offset+len(p.Boxes), len(strs))
		if c.cfg.Text.DetectLanguage && offset < end {
			lang := textproc.DetectLanguage(strs[offset:end]...)
			meta[i].Language = document.Language{Value: lang.Code(), Confidence: lang.Confidence}
		}
		offset += len(p.Boxes)
	}

	doc, err := asm.AssembleWithMeta(ctx, boxes, strs, shapes, meta)
	if err != nil {
		return err
	}
	slog.Debug("Assembled document", "pages", len(doc.Pages), "words", len(strs))

	data, err := doc.Encode(c.cfg.Output.Format)
	if err != nil {
		return err
	}
	return writeOutput(stdout, c.cfg.Output.File, data)
}

func readBoxes(stdin io.Reader, path string) (boxesFile, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return boxesFile{}, err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	var in boxesFile
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return boxesFile{}, fmt.Errorf("decoding %s: %w", path, err)
	}
	return in, nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, strings.TrimSuffix(sc.Text(), "\r"))
	}
	return lines, sc.Err()
}
