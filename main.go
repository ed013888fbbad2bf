package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/output"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
)

// options holds the parsed command line
type options struct {
	sceneType string
	width     int
	samples   int
	depth     int
	seed      int64
	workers   int
	output    string
	format    string
	sky       string
	timeout   time.Duration
	quiet     bool
	help      bool

	set map[string]bool // Flags given explicitly on the command line
}

func parseFlags(args []string, errOut io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{set: map[string]bool{}}
	fs := flag.NewFlagSet("pathtracer", flag.ContinueOnError)
	fs.SetOutput(errOut)

	fs.StringVar(&opts.sceneType, "scene", "default", "Scene type: one of the built-in scene names")
	fs.IntVar(&opts.width, "width", 0, "Image width in pixels (default: scene width)")
	fs.IntVar(&opts.samples, "samples", 0, "Samples per pixel (default: scene setting)")
	fs.IntVar(&opts.depth, "depth", 0, "Maximum ray bounce depth, 0 renders black (default: scene setting)")
	fs.Int64Var(&opts.seed, "seed", 0, "Random seed (default: scene setting)")
	fs.IntVar(&opts.workers, "workers", 0, "Number of parallel workers (0 = auto-detect CPU count)")
	fs.StringVar(&opts.output, "output", "-", "Output file, '-' writes to stdout")
	fs.StringVar(&opts.format, "format", "", "Output format: ppm, ppm-binary or png (default: from output extension, else ppm)")
	fs.StringVar(&opts.sky, "sky", "", "Color name for the top of the sky gradient, e.g. 'skyblue'")
	fs.DurationVar(&opts.timeout, "timeout", 0, "Abort the render after this long (0 = no limit)")
	fs.BoolVar(&opts.quiet, "quiet", false, "Suppress progress output")
	fs.BoolVar(&opts.help, "help", false, "Show help information")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, fs, nil
}

func printHelp(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "Sphere Path Tracer")
	fmt.Fprintln(w, "Usage: pathtracer [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Options:")
	fs.SetOutput(w)
	fs.PrintDefaults()
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Available scenes:")
	for _, name := range scene.Names() {
		fmt.Fprintf(w, "  %s\n", name)
	}
}

// createScene builds the named scene
func createScene(sceneType string) (*scene.Scene, error) {
	s, err := scene.Lookup(sceneType)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// applyOptions overrides scene defaults with the flags given on the command line.
// An explicit zero is kept, so -depth 0 and -seed 0 mean exactly that.
func applyOptions(s *scene.Scene, opts *options) error {
	if opts.set["width"] {
		s.SetWidth(opts.width)
	}
	if opts.set["samples"] {
		s.SamplingConfig.SamplesPerPixel = opts.samples
	}
	if opts.set["depth"] {
		s.SamplingConfig.MaxDepth = opts.depth
	}
	if opts.set["seed"] {
		s.SamplingConfig.Seed = opts.seed
	}
	if opts.set["workers"] {
		s.SamplingConfig.NumWorkers = opts.workers
	}
	if opts.sky != "" {
		top, err := scene.ParseBackgroundColor(opts.sky)
		if err != nil {
			return err
		}
		s.Background.Top = top
	}
	return s.Validate()
}

func resolveFormat(opts *options) (output.Format, error) {
	if opts.format != "" {
		return output.ParseFormat(opts.format)
	}
	if opts.output != "-" {
		if f, err := output.FormatFromPath(opts.output); err == nil {
			return f, nil
		}
	}
	return output.FormatPPM, nil
}

// run renders according to args, writing the image to stdout or a file and
// progress to stderr
func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	opts, fs, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if opts.help {
		printHelp(stdout, fs)
		return nil
	}

	var logger core.Logger = renderer.NewDefaultLogger(stderr)
	if opts.quiet {
		logger = core.NopLogger{}
	}

	selectedScene, err := createScene(opts.sceneType)
	if err != nil {
		return err
	}
	if err := applyOptions(selectedScene, opts); err != nil {
		return fmt.Errorf("invalid options for scene %q: %w", selectedScene.Name, err)
	}
	format, err := resolveFormat(opts)
	if err != nil {
		return err
	}

	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	logger.Printf("Using %s scene...\n", selectedScene.Name)
	raytracer := renderer.NewRaytracer(selectedScene, selectedScene.Width, selectedScene.Height, logger)
	raytracer.SetSamplingConfig(selectedScene.SamplingConfig)

	img, stats, err := raytracer.Render(ctx)
	if err != nil {
		return err
	}
	logger.Printf("Render completed in %v (%d samples over %d pixels, luminance %.3f)\n",
		stats.Duration, stats.TotalSamples, stats.TotalPixels, renderer.CalculateAverageLuminance(img))

	if opts.output == "-" {
		return output.Write(stdout, img, format)
	}

	file, err := os.Create(opts.output)
	if err != nil {
		return fmt.Errorf("error creating file: %w", err)
	}
	if err := output.Write(file, img, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	logger.Printf("Render saved as %s\n", opts.output)
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
