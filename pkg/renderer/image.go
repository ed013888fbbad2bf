package renderer

import (
	"image"
	"image/color"
	"math"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
)

// maxChannel keeps quantized values below 256
const maxChannel = 0.999

// RGB is a quantized 8-bit pixel
type RGB struct {
	R, G, B uint8
}

// Image holds quantized pixels in row-major order, top row first
type Image struct {
	Width  int
	Height int
	Pix    []RGB
}

// NewImage allocates a black image
func NewImage(width, height int) *Image {
	return &Image{
		Width:  width,
		Height: height,
		Pix:    make([]RGB, width*height),
	}
}

// At returns the pixel at column x of row y, counted from the top
func (img *Image) At(x, y int) RGB {
	return img.Pix[y*img.Width+x]
}

// Set stores the pixel at column x of row y, counted from the top
func (img *Image) Set(x, y int, c RGB) {
	img.Pix[y*img.Width+x] = c
}

// Row returns the pixels of row y as a slice into the image
func (img *Image) Row(y int) []RGB {
	return img.Pix[y*img.Width : (y+1)*img.Width]
}

// ToRGBA converts the image for the standard library encoders
func (img *Image) ToRGBA() *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			p := img.At(x, y)
			out.SetRGBA(x, y, color.RGBA{R: p.R, G: p.G, B: p.B, A: 255})
		}
	}
	return out
}

// QuantizeColor averages a summed color over samples, gamma corrects it (gamma 2)
// and maps every channel to [0, 255]
func QuantizeColor(sum core.Vec3, samples int) RGB {
	c := sum.Multiply(1.0 / float64(samples)).Sqrt()
	return RGB{
		R: quantizeChannel(c.X),
		G: quantizeChannel(c.Y),
		B: quantizeChannel(c.Z),
	}
}

func quantizeChannel(v float64) uint8 {
	// NaN from a degenerate estimate is written as black
	if math.IsNaN(v) {
		return 0
	}
	return uint8(256 * max(0, min(maxChannel, v)))
}
