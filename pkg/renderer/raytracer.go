package renderer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/geometry"
	"github.com/df07/go-sphere-pathtracer/pkg/integrator"
)

// DefaultLogger implements core.Logger by writing to an io.Writer
type DefaultLogger struct {
	mu sync.Mutex
	w  io.Writer
}

func (dl *DefaultLogger) Printf(format string, args ...interface{}) {
	dl.mu.Lock()
	defer dl.mu.Unlock()
	fmt.Fprintf(dl.w, format, args...)
}

// NewDefaultLogger creates a logger writing to w
func NewDefaultLogger(w io.Writer) core.Logger {
	return &DefaultLogger{w: w}
}

// SamplingConfig contains rendering configuration
type SamplingConfig struct {
	SamplesPerPixel int   // Number of rays per pixel
	MaxDepth        int   // Maximum ray bounce depth
	Seed            int64 // Base seed; scanline j draws from Seed+j
	NumWorkers      int   // Parallel scanline workers (0 = use CPU count)
}

// DefaultSamplingConfig returns sensible default values
func DefaultSamplingConfig() SamplingConfig {
	return SamplingConfig{
		SamplesPerPixel: 100,
		MaxDepth:        50,
		Seed:            42,
		NumWorkers:      0,
	}
}

// MergeSamplingConfig returns base with every non-zero field of override applied.
// Zero fields keep base, so MaxDepth 0 and Seed 0 can only be set by assignment.
func MergeSamplingConfig(base, override SamplingConfig) SamplingConfig {
	result := base
	if override.SamplesPerPixel != 0 {
		result.SamplesPerPixel = override.SamplesPerPixel
	}
	if override.MaxDepth != 0 {
		result.MaxDepth = override.MaxDepth
	}
	if override.Seed != 0 {
		result.Seed = override.Seed
	}
	if override.NumWorkers != 0 {
		result.NumWorkers = override.NumWorkers
	}
	return result
}

// Validate reports configuration values the renderer cannot work with
func (c SamplingConfig) Validate() error {
	var errs []error
	if c.SamplesPerPixel < 1 {
		errs = append(errs, fmt.Errorf("samples per pixel must be at least 1, got %d", c.SamplesPerPixel))
	}
	if c.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max depth must not be negative, got %d", c.MaxDepth))
	}
	if c.NumWorkers < 0 {
		errs = append(errs, fmt.Errorf("worker count must not be negative, got %d", c.NumWorkers))
	}
	return errors.Join(errs...)
}

// Scene interface to avoid circular imports
type Scene interface {
	GetCamera() *Camera
	GetWorld() geometry.Shape
	GetBackground() integrator.Background
}

// SamplerFactory returns the sampler used for scanline row (counted from the bottom)
type SamplerFactory func(seed int64, row int) core.Sampler

// seededSamplerFactory gives every scanline its own generator, so the image does not
// depend on how rows are spread across workers
func seededSamplerFactory(seed int64, row int) core.Sampler {
	return core.NewSeededSampler(seed + int64(row))
}

// Raytracer handles the rendering process
type Raytracer struct {
	scene      Scene
	width      int
	height     int
	config     SamplingConfig
	integrator integrator.Integrator
	newSampler SamplerFactory
	logger     core.Logger
}

// NewRaytracer creates a new raytracer
func NewRaytracer(scene Scene, width, height int, logger core.Logger) *Raytracer {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Raytracer{
		scene:      scene,
		width:      width,
		height:     height,
		config:     DefaultSamplingConfig(),
		integrator: integrator.NewPathTracingIntegrator(scene.GetBackground()),
		newSampler: seededSamplerFactory,
		logger:     logger,
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(config SamplingConfig) {
	rt.config = config
}

// MergeSamplingConfig applies the non-zero fields of override to the current configuration
func (rt *Raytracer) MergeSamplingConfig(override SamplingConfig) {
	rt.config = MergeSamplingConfig(rt.config, override)
}

// GetSamplingConfig returns the current sampling configuration
func (rt *Raytracer) GetSamplingConfig() SamplingConfig {
	return rt.config
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integratorInst integrator.Integrator) {
	rt.integrator = integratorInst
}

// SetSamplerFactory replaces how per-scanline samplers are created
func (rt *Raytracer) SetSamplerFactory(factory SamplerFactory) {
	rt.newSampler = factory
}

// pixelScale returns the divisor that maps pixel index n-1 to image-plane coordinate 1
func pixelScale(n int) float64 {
	return float64(max(1, n-1))
}

// SamplePixel traces SamplesPerPixel jittered rays through pixel (i, j), where j counts
// from the bottom, and returns the summed, unaveraged color
func (rt *Raytracer) SamplePixel(camera *Camera, world geometry.Shape, i, j int, sampler core.Sampler) core.Vec3 {
	colorAccum := core.Vec3{X: 0, Y: 0, Z: 0}
	sx := pixelScale(rt.width)
	sy := pixelScale(rt.height)

	for sample := 0; sample < rt.config.SamplesPerPixel; sample++ {
		// Jitter inside the pixel before normalizing, this is the antialiasing
		jitter := sampler.Get2D()
		s := (float64(i) + jitter.X) / sx
		t := (float64(j) + jitter.Y) / sy

		ray := camera.GetRay(s, t, sampler)
		colorAccum = colorAccum.Add(rt.integrator.RayColor(ray, world, sampler, rt.config.MaxDepth))
	}

	return colorAccum
}

// RenderRow renders scanline j (counted from the bottom) into out, left to right
func (rt *Raytracer) RenderRow(camera *Camera, world geometry.Shape, j int, sampler core.Sampler, out []RGB) {
	for i := 0; i < rt.width; i++ {
		out[i] = QuantizeColor(rt.SamplePixel(camera, world, i, j, sampler), rt.config.SamplesPerPixel)
	}
}

// Render renders the whole image. Scanlines are spread over the worker pool and the
// render stops early with ctx.Err() once ctx is cancelled.
func (rt *Raytracer) Render(ctx context.Context) (*Image, RenderStats, error) {
	if err := rt.config.Validate(); err != nil {
		return nil, RenderStats{}, fmt.Errorf("invalid sampling config: %w", err)
	}
	if rt.width <= 0 || rt.height <= 0 {
		return nil, RenderStats{}, fmt.Errorf("invalid image size %dx%d", rt.width, rt.height)
	}

	startTime := time.Now()
	img := NewImage(rt.width, rt.height)
	camera := rt.scene.GetCamera()
	world := rt.scene.GetWorld()
	pool := NewWorkerPool(rt.config.NumWorkers)

	rt.logger.Printf("Rendering %dx%d, %d samples per pixel, max depth %d (using %d workers)...\n",
		rt.width, rt.height, rt.config.SamplesPerPixel, rt.config.MaxDepth, pool.GetNumWorkers())

	var remaining atomic.Int64
	remaining.Store(int64(rt.height))

	err := pool.Run(ctx, rt.height, func(row int) error {
		// Top image row is the highest scanline
		j := rt.height - 1 - row
		rt.RenderRow(camera, world, j, rt.newSampler(rt.config.Seed, j), img.Row(row))
		rt.logger.Printf("Scanlines remaining: %d\n", remaining.Add(-1))
		return nil
	})
	if err != nil {
		return nil, RenderStats{}, fmt.Errorf("render interrupted: %w", err)
	}

	totalPixels := rt.width * rt.height
	stats := RenderStats{
		TotalPixels:     totalPixels,
		TotalSamples:    totalPixels * rt.config.SamplesPerPixel,
		AverageSamples:  float64(rt.config.SamplesPerPixel),
		SamplesPerPixel: rt.config.SamplesPerPixel,
		MaxDepth:        rt.config.MaxDepth,
		NumWorkers:      pool.GetNumWorkers(),
		Duration:        time.Since(startTime),
	}
	rt.logger.Printf("Done in %v.\n", stats.Duration)

	return img, stats, nil
}
