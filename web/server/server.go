package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/df07/go-sphere-pathtracer/pkg/core"
	"github.com/df07/go-sphere-pathtracer/pkg/output"
	"github.com/df07/go-sphere-pathtracer/pkg/renderer"
	"github.com/df07/go-sphere-pathtracer/pkg/scene"
)

// Limits applied to render requests
const (
	maxWidth   = 2000
	maxSamples = 10000
	maxDepth   = 1000
)

// Server renders built-in scenes over HTTP
type Server struct {
	port     int
	logger   core.Logger
	renderID atomic.Int64
}

// NewServer creates a new web server; logger receives server and render logs
func NewServer(port int, logger core.Logger) *Server {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Server{port: port, logger: logger}
}

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Scene   string        `json:"scene"`   // Scene name (e.g., "default")
	Width   int           `json:"width"`   // Image width, 0 keeps the scene's width
	Samples int           `json:"samples"` // Samples per pixel, 0 keeps the scene's value
	Depth   *int          `json:"depth,omitempty"` // Maximum bounce depth, nil keeps the scene's value
	Seed    *int64        `json:"seed,omitempty"`  // Random seed, nil keeps the scene's value
	Sky     string        `json:"sky"`     // Optional color name for the top of the sky
	Format  output.Format `json:"format"`
	Stream  bool          `json:"stream"` // Send progress and the result as server-sent events
}

// Stats represents render statistics
type Stats struct {
	TotalPixels     int     `json:"totalPixels"`
	TotalSamples    int     `json:"totalSamples"`
	SamplesPerPixel int     `json:"samplesPerPixel"`
	MaxDepth        int     `json:"maxDepth"`
	Luminance       float64 `json:"luminance"`
	ElapsedMs       int64   `json:"elapsedMs"`
}

// CompleteEvent is the final server-sent event of a streamed render
type CompleteEvent struct {
	ImageData string `json:"imageData"` // Base64 encoded PNG
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Stats     Stats  `json:"stats"`
}

// Handler returns the API routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/scenes", s.handleScenes)
	mux.HandleFunc("/api/scene-config", s.handleSceneConfig)
	return mux
}

// Start serves until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Printf("Starting web server on http://localhost%s\n", httpServer.Addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists the built-in scenes
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"scenes": scene.Names()})
}

// handleSceneConfig returns the default configuration for a scene
func (s *Server) handleSceneConfig(w http.ResponseWriter, r *http.Request) {
	sceneName := r.URL.Query().Get("scene")
	if sceneName == "" {
		sceneName = "default"
	}

	sceneObj, err := scene.Lookup(sceneName)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	config := sceneObj.SamplingConfig
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"scene": sceneObj.Name,
		"defaults": map[string]interface{}{
			"width":           sceneObj.Width,
			"height":          sceneObj.Height,
			"samplesPerPixel": config.SamplesPerPixel,
			"maxDepth":        config.MaxDepth,
			"seed":            config.Seed,
		},
		"limits": map[string]interface{}{
			"width":   map[string]int{"min": 1, "max": maxWidth},
			"samples": map[string]int{"min": 1, "max": maxSamples},
			"depth":   map[string]int{"min": 0, "max": maxDepth},
		},
	})
}

// handleRender renders a scene and returns the encoded image, or streams progress
// followed by a base64 PNG when stream=true
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := parseRenderRequest(r.URL.Query())
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
		return
	}

	sceneObj, err := buildScene(req)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	renderID := fmt.Sprintf("render-%d", s.renderID.Add(1))
	if req.Stream {
		s.streamRender(w, r.Context(), renderID, sceneObj)
		return
	}

	img, _, err := renderScene(r.Context(), sceneObj, NewWebLogger(renderID, nil, s.logger))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusServiceUnavailable
		}
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := output.Write(&buf, img, req.Format); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", contentType(req.Format))
	w.Write(buf.Bytes())
}

// streamRender sends console lines as "console" events and finishes with a
// "complete" or "error" event
func (s *Server) streamRender(w http.ResponseWriter, ctx context.Context, renderID string, sceneObj *scene.Scene) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	setSSEHeaders(w)

	consoleChan := make(chan ConsoleMessage, 100)
	logger := NewWebLogger(renderID, consoleChan, s.logger)

	type renderResult struct {
		img   *renderer.Image
		stats renderer.RenderStats
		err   error
	}
	done := make(chan renderResult, 1)
	go func() {
		img, stats, err := renderScene(ctx, sceneObj, logger)
		done <- renderResult{img, stats, err}
	}()

	send := func(event string, payload interface{}) {
		data, err := json.Marshal(payload)
		if err != nil {
			data = []byte(strconv.Quote(err.Error()))
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data)
		flusher.Flush()
	}

	for {
		select {
		case msg := <-consoleChan:
			send("console", msg)
		case res := <-done:
			// The renderer has returned, so no more console lines can arrive
			for len(consoleChan) > 0 {
				send("console", <-consoleChan)
			}
			if res.err != nil {
				send("error", map[string]string{"error": res.err.Error()})
				return
			}
			event, err := newCompleteEvent(res.img, res.stats)
			if err != nil {
				send("error", map[string]string{"error": err.Error()})
				return
			}
			send("complete", event)
			return
		case <-ctx.Done():
			// Client disconnected; the render goroutine stops on the same context
			return
		}
	}
}

func newCompleteEvent(img *renderer.Image, stats renderer.RenderStats) (CompleteEvent, error) {
	var buf bytes.Buffer
	if err := output.WritePNG(&buf, img); err != nil {
		return CompleteEvent{}, err
	}
	return CompleteEvent{
		ImageData: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Width:     img.Width,
		Height:    img.Height,
		Stats: Stats{
			TotalPixels:     stats.TotalPixels,
			TotalSamples:    stats.TotalSamples,
			SamplesPerPixel: stats.SamplesPerPixel,
			MaxDepth:        stats.MaxDepth,
			Luminance:       renderer.CalculateAverageLuminance(img),
			ElapsedMs:       stats.Duration.Milliseconds(),
		},
	}, nil
}

// buildScene looks up the scene and applies the request's overrides
func buildScene(req *RenderRequest) (*scene.Scene, error) {
	sceneObj, err := scene.Lookup(req.Scene)
	if err != nil {
		return nil, err
	}
	if req.Width != 0 {
		sceneObj.SetWidth(req.Width)
	}
	if req.Samples != 0 {
		sceneObj.SamplingConfig.SamplesPerPixel = req.Samples
	}
	if req.Depth != nil {
		sceneObj.SamplingConfig.MaxDepth = *req.Depth
	}
	if req.Seed != nil {
		sceneObj.SamplingConfig.Seed = *req.Seed
	}
	if req.Sky != "" {
		top, err := scene.ParseBackgroundColor(req.Sky)
		if err != nil {
			return nil, err
		}
		sceneObj.Background.Top = top
	}
	if err := sceneObj.Validate(); err != nil {
		return nil, err
	}
	return sceneObj, nil
}

func renderScene(ctx context.Context, sceneObj *scene.Scene, logger core.Logger) (*renderer.Image, renderer.RenderStats, error) {
	raytracer := renderer.NewRaytracer(sceneObj, sceneObj.Width, sceneObj.Height, logger)
	raytracer.SetSamplingConfig(sceneObj.SamplingConfig)
	return raytracer.Render(ctx)
}

// parseRenderRequest reads render parameters from the query string
func parseRenderRequest(values url.Values) (*RenderRequest, error) {
	req := &RenderRequest{
		Scene:  values.Get("scene"),
		Sky:    values.Get("sky"),
		Format: output.FormatPNG,
		Stream: values.Get("stream") == "true",
	}
	if req.Scene == "" {
		req.Scene = "default"
	}

	var err error
	if req.Width, err = parseIntParam(values, "width", 0, 1, maxWidth); err != nil {
		return nil, err
	}
	if req.Samples, err = parseIntParam(values, "samples", 0, 1, maxSamples); err != nil {
		return nil, err
	}
	if values.Get("depth") != "" {
		depth, err := parseIntParam(values, "depth", 0, 0, maxDepth)
		if err != nil {
			return nil, err
		}
		req.Depth = &depth
	}
	if value := values.Get("seed"); value != "" {
		seed, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid seed: %s", value)
		}
		req.Seed = &seed
	}
	if format := values.Get("format"); format != "" {
		if req.Format, err = output.ParseFormat(format); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func contentType(format output.Format) string {
	if format == output.FormatPNG {
		return "image/png"
	}
	return "image/x-portable-pixmap"
}

func setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}
