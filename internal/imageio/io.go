// Package imageio loads page images and probability maps from disk and
// renders detection results back to images.
package imageio

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists the file extensions Load accepts.
var SupportedExtensions = []string{".jpg", ".jpeg", ".png", ".bmp", ".tif", ".tiff", ".webp"}

// IsSupported reports whether path has a supported image extension.
func IsSupported(path string) bool {
	return slices.Contains(SupportedExtensions, strings.ToLower(filepath.Ext(path)))
}

// Error wraps a failed image operation.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("image %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("image %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Metadata describes a loaded file.
type Metadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// Load opens and decodes an image file. EXIF orientation is applied.
func Load(path string) (image.Image, Metadata, error) {
	if path == "" {
		return nil, Metadata{}, &Error{Op: "load", Err: errors.New("empty path")}
	}
	if !IsSupported(path) {
		return nil, Metadata{}, &Error{Op: "load", Path: path, Err: fmt.Errorf("unsupported format %q", filepath.Ext(path))}
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, Metadata{}, &Error{Op: "load", Path: path, Err: err}
	}
	f, err := os.Open(path) //nolint:gosec // G304: reading a user-supplied page is the point
	if err != nil {
		return nil, Metadata{}, &Error{Op: "load", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	_, format, err := image.DecodeConfig(f)
	if err != nil {
		return nil, Metadata{}, &Error{Op: "decode", Path: path, Err: err}
	}
	if _, err := f.Seek(0, 0); err != nil {
		return nil, Metadata{}, &Error{Op: "load", Path: path, Err: err}
	}
	img, err := imaging.Decode(f, imaging.AutoOrientation(true))
	if err != nil {
		return nil, Metadata{}, &Error{Op: "decode", Path: path, Err: err}
	}
	b := img.Bounds()
	return img, Metadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// Decode reads an image in any supported format from r. EXIF orientation is
// applied.
func Decode(r io.Reader) (image.Image, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, &Error{Op: "decode", Err: err}
	}
	return img, nil
}

// Save encodes img to path; the format follows the extension.
func Save(path string, img image.Image) error {
	if err := imaging.Save(img, path); err != nil {
		return &Error{Op: "save", Path: path, Err: err}
	}
	return nil
}
