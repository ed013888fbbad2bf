package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// WritePPM writes img as plain PPM: a P3 header, then one "r g b" line per pixel,
// top row first and left to right
func WritePPM(w io.Writer, img *renderer.Image) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("writing PPM header: %w", err)
	}
	for _, p := range img.Pix {
		if _, err := fmt.Fprintf(bw, "%d %d %d\n", p.R, p.G, p.B); err != nil {
			return fmt.Errorf("writing PPM pixels: %w", err)
		}
	}
	return bw.Flush()
}

// WritePPMBinary writes img as binary PPM (P6)
func WritePPMBinary(w io.Writer, img *renderer.Image) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("writing PPM header: %w", err)
	}
	for _, p := range img.Pix {
		if _, err := bw.Write([]byte{p.R, p.G, p.B}); err != nil {
			return fmt.Errorf("writing PPM pixels: %w", err)
		}
	}
	return bw.Flush()
}
