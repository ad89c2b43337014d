// Command proctord runs the proctoring analysis server: it accepts video
// frames per exam session over WebSocket, runs them through the risk
// pipeline and serves session summaries over REST.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/vigil-data/proctor/internal/api"
	"github.com/vigil-data/proctor/internal/config"
	"github.com/vigil-data/proctor/internal/detect"
	"github.com/vigil-data/proctor/internal/pipeline"
	"github.com/vigil-data/proctor/internal/version"
)

var (
	listen      = flag.String("listen", "", "Listen address (overrides PROCTOR_ADDR)")
	tuningPath  = flag.String("config", "", "Tuning JSON file (overrides PROCTOR_TUNING)")
	envFile     = flag.String("env-file", "", "Optional .env file to load before reading the environment")
	traceFrames = flag.Bool("trace", false, "Enable high-frequency per-frame trace logging")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("proctord %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			log.Fatalf("failed to load env file %s: %v", *envFile, err)
		}
	} else {
		// A .env in the working directory is optional.
		_ = godotenv.Load()
	}

	srvCfg := config.ServerConfigFromEnv()
	if *listen != "" {
		srvCfg.Addr = *listen
	}
	if *tuningPath != "" {
		srvCfg.TuningPath = *tuningPath
	}

	tuning := config.EmptyTuningConfig()
	if srvCfg.TuningPath != "" {
		loaded, err := config.LoadTuningConfig(srvCfg.TuningPath)
		if err != nil {
			log.Fatalf("failed to load tuning config: %v", err)
		}
		tuning = loaded
		log.Printf("tuning loaded from %s", srvCfg.TuningPath)
	}

	if *traceFrames {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, os.Stderr)
	} else {
		pipeline.SetLogWriters(os.Stderr, os.Stderr, nil)
	}

	// No model runtime is attached in this build: the landmark and object
	// paths run on null providers and the pipeline works from motion and
	// session telemetry. Attach real providers here when a runtime is
	// available.
	pipe := pipeline.New(tuning, detect.NullLandmarkProvider{}, detect.NullObjectProvider{}, nil)
	log.Printf("no model runtime attached; detection paths run on null providers")

	server := &http.Server{
		Addr:    srvCfg.Addr,
		Handler: api.NewServer(pipe).Router(),
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("proctord %s listening on %s", version.Version, srvCfg.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-done
	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), srvCfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("forced shutdown: %v", err)
	}

	for _, id := range pipe.ActiveSessions() {
		if _, err := pipe.EndSession(id); err == nil {
			log.Printf("session %s closed on shutdown", id)
		}
	}
	log.Println("stopped")
}
