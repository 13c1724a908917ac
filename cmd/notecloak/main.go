package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/notecloak/notecloak/internal/cache"
	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/server"
	"github.com/notecloak/notecloak/internal/store"
	"github.com/notecloak/notecloak/internal/views"
	"go.uber.org/zap"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	// Parse command line flags
	var (
		configPath  = flag.String("config", "", "Path to configuration file")
		showVersion = flag.Bool("version", false, "Show version information")
		healthCheck = flag.Bool("health-check", false, "Perform health check and exit")

		// One-shot conversion flags
		inputPath  = flag.String("input", "", "Note file to convert ('-' reads stdin); runs once and exits")
		inputText  = flag.String("text", "", "Note text to convert; runs once and exits")
		styleName  = flag.String("style", "", "Placeholder style (protected, masked, hidden, removed, angle)")
		viewName   = flag.String("view", "full", "Output view: patient, clinician, coverage, or full")
		modeName   = flag.String("mode", "both", "Clinician layout: soap, 5cs, or both")
		jsonOutput = flag.Bool("json", false, "Emit the structured result as JSON")
		outputPath = flag.String("output", "", "Write output to a file instead of stdout")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("notecloak %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	if *healthCheck {
		performHealthCheck()
		return
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	loggerConfig := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	}
	if cfg.Logging.File.Enabled {
		loggerConfig.File = &logger.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		}
	}

	log, err := logger.New(loggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	pipe, err := pipeline.New(cfg.Pipeline, log.WithComponent("pipeline"))
	if err != nil {
		log.Fatal("Failed to create pipeline", zap.Error(err))
	}

	// One-shot conversion bypasses the server entirely
	if *inputPath != "" || *inputText != "" {
		if err := runConvert(pipe, *inputText, *inputPath, *styleName, *viewName, *modeName, *jsonOutput, *outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	runServer(cfg, log, pipe)
}

// runConvert processes a single note and prints the selected view
func runConvert(pipe *pipeline.Pipeline, text, inputPath, styleName, viewName, modeName string, jsonOutput bool, outputPath string) error {
	note, err := pipeline.ResolveInput(text, inputPath)
	if err != nil {
		return err
	}

	style := pipe.DefaultStyle()
	if styleName != "" {
		style, err = redact.ParseStyle(styleName)
		if err != nil {
			return err
		}
	}

	mode := views.ParseClinicianMode(modeName)

	result, err := pipe.Process(note, style)
	if err != nil {
		return err
	}

	var out string
	switch {
	case jsonOutput:
		encoded, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		out = string(encoded)
	default:
		switch viewName {
		case "patient":
			out = result.PatientText()
		case "clinician":
			out = result.ClinicianText(mode)
		case "coverage":
			out = result.CoverageText()
		case "full":
			out = result.RenderText(mode)
		default:
			return fmt.Errorf("unknown view %q", viewName)
		}
	}

	if outputPath != "" {
		return os.WriteFile(outputPath, []byte(out+"\n"), 0o644)
	}
	fmt.Println(out)
	return nil
}

// runServer starts the HTTP service with the optional cache and store
func runServer(cfg *config.Config, log *logger.Logger, pipe *pipeline.Pipeline) {
	log.Info("Starting notecloak",
		zap.String("version", version),
		zap.String("commit", commit),
		zap.String("build_date", date),
		zap.Int("port", cfg.Server.Port),
	)

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled {
		var err error
		resultCache, err = cache.New(cfg.Cache, log.WithComponent("cache"))
		if err != nil {
			log.Fatal("Failed to connect to result cache", zap.Error(err))
		}
		defer resultCache.Close()
	}

	var reportStore *store.Store
	if cfg.Storage.Enabled {
		var err error
		reportStore, err = store.New(cfg.Storage, log.WithComponent("store"))
		if err != nil {
			log.Fatal("Failed to connect to report store", zap.Error(err))
		}
		defer reportStore.Close()
	}

	srv, err := server.New(cfg, log, pipe, resultCache, reportStore)
	if err != nil {
		log.Fatal("Failed to create server", zap.Error(err))
	}

	// Reload notice only; a restart picks up pipeline changes
	if err := config.Watch(cfg, func(updated *config.Config) {
		log.Info("Configuration file changed",
			zap.String("default_style", updated.Pipeline.DefaultStyle))
	}); err != nil {
		log.Warn("Failed to watch configuration", zap.Error(err))
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		serverErrors <- srv.Start()
	}()

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		log.Error("Server error", zap.Error(err))
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Stop(ctx); err != nil {
			log.Error("Failed to shutdown server gracefully", zap.Error(err))
			os.Exit(1)
		}

		log.Info("Server shutdown complete")
	}
}

// performHealthCheck performs a health check against the running server
func performHealthCheck() {
	client := &http.Client{
		Timeout: 5 * time.Second,
	}

	resp, err := client.Get("http://localhost:8080/health")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Health check failed: %v\n", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "Health check failed: HTTP %d\n", resp.StatusCode)
		os.Exit(1)
	}

	fmt.Println("Health check passed")
	os.Exit(0)
}
