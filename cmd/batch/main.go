package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/notecloak/notecloak/internal/batch"
	"github.com/notecloak/notecloak/internal/cache"
	"github.com/notecloak/notecloak/internal/config"
	"github.com/notecloak/notecloak/internal/logger"
	"github.com/notecloak/notecloak/internal/pipeline"
	"github.com/notecloak/notecloak/internal/redact"
	"github.com/notecloak/notecloak/internal/store"
)

func main() {
	var (
		configPath = flag.String("config", "", "Configuration file path")
		inputPath  = flag.String("input", "", "Note directory or dataset file (CSV, JSON lines, or Parquet)")
		outputDir  = flag.String("output", "out", "Directory for protected notes and the coverage summary")
		styleName  = flag.String("style", "", "Placeholder style (protected, masked, hidden, removed, angle)")
		batchSize  = flag.Int("batch-size", 0, "Override configured batch size")
		skipCache  = flag.Bool("skip-cache", false, "Skip updating the result cache")
		skipStore  = flag.Bool("skip-store", false, "Skip storing coverage reports")
	)
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s --input notes/ --output out/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input dataset.csv --style masked\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --input dataset.parquet --batch-size 200\n", os.Args[0])
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *batchSize > 0 {
		cfg.Batch.BatchSize = *batchSize
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting notecloak batch run",
		zap.String("input", *inputPath),
		zap.String("output", *outputDir))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("Received shutdown signal, cancelling batch run")
		cancel()
	}()

	pipe, err := pipeline.New(cfg.Pipeline, log.WithComponent("pipeline"))
	if err != nil {
		log.Fatal("Failed to create pipeline", zap.Error(err))
	}

	style := pipe.DefaultStyle()
	if *styleName != "" {
		style, err = redact.ParseStyle(*styleName)
		if err != nil {
			log.Fatal("Invalid placeholder style", zap.Error(err))
		}
	}

	var resultCache *cache.ResultCache
	if cfg.Cache.Enabled && !*skipCache {
		resultCache, err = cache.New(cfg.Cache, log.WithComponent("cache"))
		if err != nil {
			log.Fatal("Failed to connect to result cache", zap.Error(err))
		}
		defer resultCache.Close()
	}

	var reportStore *store.Store
	if cfg.Storage.Enabled && !*skipStore {
		reportStore, err = store.New(cfg.Storage, log.WithComponent("store"))
		if err != nil {
			log.Fatal("Failed to connect to report store", zap.Error(err))
		}
		defer reportStore.Close()
	}

	processor := batch.New(pipe, reportStore, resultCache, cfg.Batch, log)
	result, err := processor.ProcessPath(ctx, *inputPath, *outputDir, style)
	if err != nil {
		log.Fatal("Batch processing failed", zap.Error(err))
	}

	log.Info("Batch run finished",
		zap.Int64("total_notes", result.TotalNotes),
		zap.Int64("processed_ok", result.ProcessedOK),
		zap.Int64("processed_failed", result.ProcessedFailed),
		zap.Int64("skipped_invalid", result.SkippedInvalid),
		zap.Duration("duration", result.Duration),
		zap.Duration("pipeline_time", result.PipelineTime),
		zap.Duration("database_time", result.DatabaseTime),
		zap.Duration("cache_time", result.CacheTime))

	if len(result.Errors) > 0 {
		log.Warn("Batch completed with errors", zap.Strings("errors", result.Errors))
	}

	fmt.Printf("Processed %d notes (%d ok, %d failed, %d skipped). Coverage summary: %s\n",
		result.TotalNotes, result.ProcessedOK, result.ProcessedFailed, result.SkippedInvalid,
		*outputDir+"/"+batch.CoverageFileName)
}
