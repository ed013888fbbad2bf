package renderer

import (
	"testing"
)

func TestCalculateAverageLuminance(t *testing.T) {
	// Red, green, blue and black: (0.2126 + 0.7152 + 0.0722 + 0) / 4 = 0.25
	img := NewImage(2, 2)
	img.Set(0, 0, RGB{255, 0, 0})
	img.Set(1, 0, RGB{0, 255, 0})
	img.Set(0, 1, RGB{0, 0, 255})
	img.Set(1, 1, RGB{0, 0, 0})

	avgLum := CalculateAverageLuminance(img)
	expected := 0.25
	tolerance := 0.0001

	if avgLum < expected-tolerance || avgLum > expected+tolerance {
		t.Errorf("Expected average luminosity %f, got %f", expected, avgLum)
	}
}

func TestCalculateAverageLuminance_White(t *testing.T) {
	img := NewImage(1, 1)
	img.Set(0, 0, RGB{255, 255, 255})

	avgLum := CalculateAverageLuminance(img)
	if avgLum < 0.9999 || avgLum > 1.0001 {
		t.Errorf("Expected average luminosity 1.0, got %f", avgLum)
	}
}

func TestCalculateAverageLuminance_Empty(t *testing.T) {
	if avgLum := CalculateAverageLuminance(NewImage(0, 0)); avgLum != 0 {
		t.Errorf("Expected 0 for an empty image, got %f", avgLum)
	}
}
