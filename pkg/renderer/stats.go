package renderer

import "time"

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int           // Total number of pixels rendered
	TotalSamples    int           // Total number of camera rays traced
	AverageSamples  float64       // Average samples per pixel
	SamplesPerPixel int           // Configured samples per pixel
	MaxDepth        int           // Configured bounce limit
	NumWorkers      int           // Scanline workers actually used
	Duration        time.Duration // Wall time of the render
}

// CalculateAverageLuminance returns the mean Rec. 709 luminance of the image in [0, 1]
func CalculateAverageLuminance(img *Image) float64 {
	if len(img.Pix) == 0 {
		return 0
	}

	total := 0.0
	for _, p := range img.Pix {
		total += 0.2126*float64(p.R)/255 + 0.7152*float64(p.G)/255 + 0.0722*float64(p.B)/255
	}
	return total / float64(len(img.Pix))
}
