package output

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// ErrUnknownFormat is returned for format names and extensions that have no writer
var ErrUnknownFormat = errors.New("unknown image format")

// Format selects an image encoding
type Format int

const (
	FormatPPM       Format = iota // Plain text PPM (P3)
	FormatPPMBinary               // Binary PPM (P6)
	FormatPNG
)

func (f Format) String() string {
	switch f {
	case FormatPPM:
		return "ppm"
	case FormatPPMBinary:
		return "ppm-binary"
	case FormatPNG:
		return "png"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts a format name ("ppm", "ppm-binary", "p3", "p6", "png")
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ppm", "p3":
		return FormatPPM, nil
	case "ppm-binary", "p6":
		return FormatPPMBinary, nil
	case "png":
		return FormatPNG, nil
	}
	return 0, fmt.Errorf("%w %q", ErrUnknownFormat, name)
}

// FormatFromPath picks the format from a file extension
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return 0, fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// Write encodes img to w in the given format
func Write(w io.Writer, img *renderer.Image, format Format) error {
	switch format {
	case FormatPPM:
		return WritePPM(w, img)
	case FormatPPMBinary:
		return WritePPMBinary(w, img)
	case FormatPNG:
		return WritePNG(w, img)
	}
	return fmt.Errorf("%w %v", ErrUnknownFormat, format)
}
