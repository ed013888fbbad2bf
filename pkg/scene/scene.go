package scene

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/image/colornames"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/integrator"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
)

// ErrUnknownScene is returned by Lookup for names it does not know
var ErrUnknownScene = errors.New("unknown scene")

// ErrUnknownColor is returned by ParseBackgroundColor for names it does not know
var ErrUnknownColor = errors.New("unknown color")

// Scene contains all the elements needed for rendering
type Scene struct {
	Name           string
	World          *geometry.HittableList // Objects in the scene
	CameraConfig   renderer.CameraConfig
	Background     integrator.Background
	SamplingConfig renderer.SamplingConfig
	Width          int // Image width
	Height         int // Image height, derived from Width and the aspect ratio
}

// newScene fills in the image height and the default background
func newScene(name string, world *geometry.HittableList, cameraConfig renderer.CameraConfig, width int, samplingConfig renderer.SamplingConfig) *Scene {
	s := &Scene{
		Name:           name,
		World:          world,
		CameraConfig:   cameraConfig,
		Background:     integrator.DefaultBackground(),
		SamplingConfig: samplingConfig,
	}
	s.SetWidth(width)
	return s
}

// SetWidth changes the image width and recomputes the height from the aspect ratio
func (s *Scene) SetWidth(width int) {
	s.Width = width
	s.Height = max(1, int(float64(width)/s.CameraConfig.AspectRatio))
}

// GetCamera builds the camera described by CameraConfig
func (s *Scene) GetCamera() *renderer.Camera {
	return renderer.NewCamera(s.CameraConfig)
}

// GetWorld returns the objects of the scene
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// GetBackground returns the sky gradient
func (s *Scene) GetBackground() integrator.Background {
	return s.Background
}

// Validate checks that the scene can be rendered
func (s *Scene) Validate() error {
	var errs []error
	if s.Width < 1 || s.Height < 1 {
		errs = append(errs, fmt.Errorf("image size must be positive, got %dx%d", s.Width, s.Height))
	}
	if s.CameraConfig.AspectRatio <= 0 {
		errs = append(errs, fmt.Errorf("aspect ratio must be positive, got %g", s.CameraConfig.AspectRatio))
	}
	if s.World == nil {
		errs = append(errs, errors.New("scene has no world"))
	}
	if err := s.SamplingConfig.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

var builders = map[string]func() *Scene{
	"default":       NewDefaultScene,
	"final":         func() *Scene { return NewFinalScene(renderer.DefaultSamplingConfig().Seed) },
	"single-sphere": NewSingleSphereScene,
	"empty":         NewEmptyScene,
}

// Lookup builds the built-in scene with the given name
func Lookup(name string) (*Scene, error) {
	build, ok := builders[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
	return build(), nil
}

// Names lists the built-in scenes in alphabetical order
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseBackgroundColor maps an SVG/CSS color name such as "skyblue" to a color in [0, 1]
func ParseBackgroundColor(name string) (core.Vec3, error) {
	c, ok := colornames.Map[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return core.Vec3{}, fmt.Errorf("%w %q", ErrUnknownColor, name)
	}
	return core.NewVec3(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255), nil
}
