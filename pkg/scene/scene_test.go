package scene

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/material"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		name    string
		width   int
		height  int
		objects int
	}{
		{"default", 400, 225, 5},
		{"single-sphere", 200, 100, 1},
		{"empty", 400, 225, 0},
		{"DEFAULT", 400, 225, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Lookup(tt.name)
			if err != nil {
				t.Fatalf("Lookup(%q) failed: %v", tt.name, err)
			}
			if s.Width != tt.width || s.Height != tt.height {
				t.Errorf("Expected %dx%d, got %dx%d", tt.width, tt.height, s.Width, s.Height)
			}
			if s.World.Len() != tt.objects {
				t.Errorf("Expected %d objects, got %d", tt.objects, s.World.Len())
			}
			if err := s.Validate(); err != nil {
				t.Errorf("Built-in scene should be valid: %v", err)
			}
		})
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Lookup("cornell")
	if !errors.Is(err, ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	expected := []string{"default", "empty", "final", "single-sphere"}
	if len(names) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, names)
	}
	for i := range expected {
		if names[i] != expected[i] {
			t.Errorf("Expected %v, got %v", expected, names)
		}
	}
}

func TestDefaultScene_HollowGlassSharesMaterial(t *testing.T) {
	s := NewDefaultScene()

	outer, ok1 := s.World.Shapes[2].(*geometry.Sphere)
	inner, ok2 := s.World.Shapes[3].(*geometry.Sphere)
	if !ok1 || !ok2 {
		t.Fatal("Expected spheres at indices 2 and 3")
	}
	if outer.Radius != 0.5 || inner.Radius != -0.4 {
		t.Errorf("Expected radii 0.5 and -0.4, got %g and %g", outer.Radius, inner.Radius)
	}
	if outer.Material != inner.Material {
		t.Error("Glass shell walls should share one material")
	}
	if _, ok := outer.Material.(*material.Dielectric); !ok {
		t.Errorf("Expected dielectric shell, got %T", outer.Material)
	}
}

func TestFinalScene(t *testing.T) {
	s := NewFinalScene(7)

	if s.Width != 1200 || s.Height != 800 {
		t.Errorf("Expected 1200x800, got %dx%d", s.Width, s.Height)
	}
	if s.SamplingConfig.SamplesPerPixel != 500 || s.SamplingConfig.Seed != 7 {
		t.Errorf("Unexpected sampling config %+v", s.SamplingConfig)
	}

	// Ground, at most 22x22 small spheres and three large ones
	n := s.World.Len()
	if n < 4 || n > 1+22*22+3 {
		t.Fatalf("Unexpected object count %d", n)
	}

	keepClear := core.NewVec3(4, 0.2, 0)
	counts := map[string]int{}
	for _, shape := range s.World.Shapes[1 : n-3] {
		sphere := shape.(*geometry.Sphere)
		if sphere.Radius != 0.2 || sphere.Center.Y != 0.2 {
			t.Errorf("Small sphere has wrong size or height: %+v", sphere)
		}
		if sphere.Center.Subtract(keepClear).Length() <= 0.9 {
			t.Errorf("Small sphere at %v intrudes on the metal sphere", sphere.Center)
		}
		switch m := sphere.Material.(type) {
		case *material.Lambertian:
			counts["diffuse"]++
		case *material.Metal:
			counts["metal"]++
			if m.Fuzz < 0 || m.Fuzz >= 0.5 {
				t.Errorf("Metal fuzz out of range: %g", m.Fuzz)
			}
		case *material.Dielectric:
			counts["glass"]++
		}
	}

	// Roughly 80/15/5 over a few hundred spheres
	total := float64(n - 4)
	if frac := float64(counts["diffuse"]) / total; math.Abs(frac-0.8) > 0.1 {
		t.Errorf("Expected about 80%% diffuse, got %.0f%%", frac*100)
	}
	if counts["metal"] == 0 || counts["glass"] == 0 {
		t.Errorf("Expected some metal and glass spheres, got %v", counts)
	}

	ground := s.World.Shapes[0].(*geometry.Sphere)
	if ground.Radius != 1000 || !ground.Center.Equals(core.NewVec3(0, -1000, 0)) {
		t.Errorf("Unexpected ground sphere %+v", ground)
	}
}

func TestFinalScene_SeedDeterminesLayout(t *testing.T) {
	a := NewFinalScene(3)
	b := NewFinalScene(3)
	c := NewFinalScene(4)

	if a.World.Len() != b.World.Len() {
		t.Fatalf("Same seed gave %d and %d objects", a.World.Len(), b.World.Len())
	}
	for i := range a.World.Shapes {
		if a.World.Shapes[i].(*geometry.Sphere).Center != b.World.Shapes[i].(*geometry.Sphere).Center {
			t.Fatalf("Same seed placed sphere %d differently", i)
		}
	}
	if c.World.Shapes[1].(*geometry.Sphere).Center == a.World.Shapes[1].(*geometry.Sphere).Center {
		t.Error("Different seeds should move the small spheres")
	}
}

func TestScene_SetWidth(t *testing.T) {
	s := NewDefaultScene()
	s.SetWidth(160)
	if s.Height != 90 {
		t.Errorf("Expected height 90, got %d", s.Height)
	}
	s.SetWidth(1)
	if s.Height != 1 {
		t.Errorf("Height should never drop below 1, got %d", s.Height)
	}
}

func TestScene_Validate(t *testing.T) {
	s := NewEmptyScene()
	s.SamplingConfig.SamplesPerPixel = 0
	s.World = nil
	if err := s.Validate(); err == nil {
		t.Error("Expected validation error")
	}
}

func TestParseBackgroundColor(t *testing.T) {
	tests := []struct {
		name     string
		expected core.Vec3
	}{
		{"white", core.NewVec3(1, 1, 1)},
		{"black", core.NewVec3(0, 0, 0)},
		{"SkyBlue", core.NewVec3(135.0/255, 206.0/255, 235.0/255)},
		{" red ", core.NewVec3(1, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ParseBackgroundColor(tt.name)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if !c.ApproxEquals(tt.expected, 1e-12) {
				t.Errorf("Expected %v, got %v", tt.expected, c)
			}
		})
	}

	if _, err := ParseBackgroundColor("not-a-color"); !errors.Is(err, ErrUnknownColor) {
		t.Errorf("Expected ErrUnknownColor, got %v", err)
	}
}

func TestEmptyScene_RendersSky(t *testing.T) {
	s := NewEmptyScene()
	s.SetWidth(16)

	rt := renderer.NewRaytracer(s, s.Width, s.Height, nil)
	rt.SetSamplingConfig(renderer.SamplingConfig{SamplesPerPixel: 2, MaxDepth: 3, Seed: 1, NumWorkers: 2})
	img, _, err := rt.Render(context.Background())
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for _, p := range img.Pix {
		if p.B != 255 {
			t.Fatalf("Sky pixels keep a saturated blue channel, got %v", p)
		}
	}
}
