package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"

	"github.com/df07/go-sphere-pathtracer/web/server"
)

// stdLogger adapts the standard logger to core.Logger
type stdLogger struct{}

func (stdLogger) Printf(format string, args ...interface{}) {
	log.Printf(format, args...)
}

func main() {
	// Parse command line flags
	port := flag.Int("port", 8080, "Port to serve on")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Create and start web server
	webServer := server.NewServer(*port, stdLogger{})

	log.Printf("Sphere Path Tracer Web Server")
	log.Printf("Try http://localhost:%d/api/render?scene=default&samples=10", *port)

	if err := webServer.Start(ctx); err != nil {
		log.Printf("Error starting server: %v", err)
		stop()
		os.Exit(1)
	}
}
