package document

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Export returns the document as nested maps and slices, suitable for any
// generic encoder.
func (d Document) Export() map[string]any {
	pages := make([]any, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = p.Export()
	}
	return map[string]any{"pages": pages}
}

// Export returns the page as nested maps and slices.
func (p Page) Export() map[string]any {
	blocks := make([]any, len(p.Blocks))
	for i, b := range p.Blocks {
		blocks[i] = b.Export()
	}
	return map[string]any{
		"blocks":      blocks,
		"page_idx":    p.Index,
		"dimensions":  []any{p.Dimensions[0], p.Dimensions[1]},
		"orientation": map[string]any{"value": p.Orientation.Value, "confidence": p.Orientation.Confidence},
		"language":    map[string]any{"value": p.Language.Value, "confidence": p.Language.Confidence},
	}
}

// Export returns the block as nested maps and slices.
func (b Block) Export() map[string]any {
	lines := make([]any, len(b.Lines))
	for i, l := range b.Lines {
		lines[i] = l.Export()
	}
	return map[string]any{"geometry": b.Geometry.export(), "lines": lines}
}

// Export returns the line as nested maps and slices.
func (l Line) Export() map[string]any {
	words := make([]any, len(l.Words))
	for i, w := range l.Words {
		words[i] = w.Export()
	}
	return map[string]any{"geometry": l.Geometry.export(), "words": words}
}

// Export returns the word as a map.
func (w Word) Export() map[string]any {
	return map[string]any{"value": w.Value, "confidence": w.Confidence, "geometry": w.Geometry.export()}
}

func (g Geometry) export() []any {
	return []any{[]any{g[0][0], g[0][1]}, []any{g[1][0], g[1][1]}}
}

const (
	wordSep  = " "
	lineSep  = "\n"
	blockSep = "\n\n"
	pageSep  = "\n\n\n\n"
)

// Render returns the page text: words joined by spaces, lines by newlines and
// blocks separated by a blank line.
func (p Page) Render() string {
	blocks := make([]string, len(p.Blocks))
	for i, b := range p.Blocks {
		lines := make([]string, len(b.Lines))
		for j, l := range b.Lines {
			words := make([]string, len(l.Words))
			for k, w := range l.Words {
				words[k] = w.Value
			}
			lines[j] = strings.Join(words, wordSep)
		}
		blocks[i] = strings.Join(lines, lineSep)
	}
	return strings.Join(blocks, blockSep)
}

// Render returns the document text with pages separated by three blank lines.
func (d Document) Render() string {
	pages := make([]string, len(d.Pages))
	for i, p := range d.Pages {
		pages[i] = p.Render()
	}
	return strings.Join(pages, pageSep)
}

// JSON encodes the document as indented JSON.
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// YAML encodes the document as YAML.
func (d Document) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSV writes one row per word with its position in the tree.
func (d Document) CSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"page", "block", "line", "word", "value", "confidence", "xmin", "ymin", "xmax", "ymax"}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', 6, 64) }
	for _, p := range d.Pages {
		for bi, b := range p.Blocks {
			for li, l := range b.Lines {
				for wi, word := range l.Words {
					g := word.Geometry
					row := []string{
						strconv.Itoa(p.Index), strconv.Itoa(bi), strconv.Itoa(li), strconv.Itoa(wi),
						word.Value, f(word.Confidence), f(g[0][0]), f(g[0][1]), f(g[1][0]), f(g[1][1]),
					}
					if err := w.Write(row); err != nil {
						return nil, err
					}
				}
			}
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// Formats lists the encodings accepted by Encode.
var Formats = []string{"json", "yaml", "text", "csv"}

// Encode renders the document in the named format.
func (d Document) Encode(format string) ([]byte, error) {
	switch format {
	case "json":
		return d.JSON()
	case "yaml":
		return d.YAML()
	case "text":
		return []byte(d.Render()), nil
	case "csv":
		return d.CSV()
	}
	return nil, fmt.Errorf("unsupported output format %q", format)
}
