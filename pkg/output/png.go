package output

import (
	"fmt"
	"image/png"
	"io"

	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// WritePNG encodes img as an opaque PNG
func WritePNG(w io.Writer, img *renderer.Image) error {
	if err := png.Encode(w, img.ToRGBA()); err != nil {
		return fmt.Errorf("error saving PNG: %w", err)
	}
	return nil
}
