// Package main implements the entry point for the flowbridge generation
// engine. It reads an extracted integration-flow document, runs it through
// the tiered generation cascade, and writes the importable bundle.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/c360/flowbridge/aiassist"
	"github.com/c360/flowbridge/config"
	"github.com/c360/flowbridge/generator"
	"github.com/c360/flowbridge/ir"
	"github.com/c360/flowbridge/metric"
	"github.com/c360/flowbridge/pkg/worker"
	"github.com/c360/flowbridge/status"
	"github.com/c360/flowbridge/template"
)

// Build information constants
const (
	Version = "0.1.0"
	appName = "flowbridge"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := run(); err != nil {
		slog.Error("Generation failed", "error", err, "exit_code", 1)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	cfg, err := loadConfig(cliCfg)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(logger)
	slog.Info("Starting flowbridge",
		"version", Version,
		"input", cliCfg.InputPath,
		"config_path", cliCfg.ConfigPath)

	if cliCfg.Validate {
		slog.Info("Configuration is valid")
		return nil
	}

	catalog, err := template.Load()
	if err != nil {
		return fmt.Errorf("load template catalog: %w", err)
	}

	signalCtx, signalCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer signalCancel()

	registry := setupMetrics(cfg, logger)
	reporter, closeReporter, err := setupReporter(cfg, logger)
	if err != nil {
		return err
	}
	defer closeReporter()

	orch, err := generator.New(generator.Params{
		Catalog:  catalog,
		Adapter:  setupAdapter(cfg, catalog, logger),
		Reporter: reporter,
		Metrics:  registry,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("create orchestrator: %w", err)
	}

	if cliCfg.InputDir != "" {
		return runBatch(signalCtx, orch, cfg, cliCfg, registry)
	}

	doc, err := loadDocument(cliCfg.InputPath)
	if err != nil {
		return err
	}
	return generateOne(signalCtx, orch, cfg, doc)
}

func generateOne(ctx context.Context, orch *generator.Orchestrator, cfg *config.Config, doc *ir.Document) error {
	result, err := orch.Generate(ctx, doc)
	if err != nil {
		return fmt.Errorf("generate %s: %w", doc.FlowID, err)
	}

	outPath := filepath.Join(cfg.Output.Dir, result.FlowID+".zip")
	if err := os.WriteFile(outPath, result.Bundle.Archive, 0o644); err != nil {
		return fmt.Errorf("write bundle: %w", err)
	}

	slog.Info("Bundle written",
		"path", outPath,
		"tier", result.Tier.String(),
		"attempts", len(result.Attempts),
		"files", len(result.Bundle.Files))
	return nil
}

// runBatch processes every document in the input directory through a bounded
// worker pool. Individual job failures are logged; the batch fails only when
// nothing succeeds.
func runBatch(
	ctx context.Context,
	orch *generator.Orchestrator,
	cfg *config.Config,
	cliCfg *CLIConfig,
	registry *metric.Registry,
) error {
	paths, err := filepath.Glob(filepath.Join(cliCfg.InputDir, "*.json"))
	if err != nil {
		return fmt.Errorf("scan input directory: %w", err)
	}
	if len(paths) == 0 {
		return fmt.Errorf("no flow documents in %s", cliCfg.InputDir)
	}

	pool := worker.NewPool(cliCfg.Workers, len(paths), func(ctx context.Context, path string) error {
		doc, err := loadDocument(path)
		if err != nil {
			slog.Error("Skipping unreadable document", "path", path, "error", err)
			return err
		}
		if err := generateOne(ctx, orch, cfg, doc); err != nil {
			slog.Error("Job failed", "path", path, "error", err)
			return err
		}
		return nil
	}, worker.WithMetrics[string](registry.PrometheusRegistry(), "flowbridge_batch"))

	if err := pool.Start(ctx); err != nil {
		return fmt.Errorf("start worker pool: %w", err)
	}
	for _, path := range paths {
		if err := pool.Submit(path); err != nil {
			slog.Error("Submission rejected", "path", path, "error", err)
		}
	}
	if err := pool.Stop(time.Hour); err != nil {
		return fmt.Errorf("drain worker pool: %w", err)
	}

	stats := pool.Stats()
	slog.Info("Batch complete",
		"documents", len(paths),
		"processed", stats.Processed,
		"failed", stats.Failed)
	if stats.Processed > 0 && stats.Failed == stats.Processed {
		return fmt.Errorf("all %d batch jobs failed", stats.Failed)
	}
	return nil
}

func loadConfig(cliCfg *CLIConfig) (*config.Config, error) {
	if cliCfg.ConfigPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cliCfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func loadDocument(path string) (*ir.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read input document: %w", err)
	}
	doc, err := ir.ParseDocument(data)
	if err != nil {
		return nil, fmt.Errorf("parse input document: %w", err)
	}
	if doc.FlowID == "" {
		doc.FlowID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return doc, nil
}

// setupAdapter creates the AI analysis adapter when a provider is configured
func setupAdapter(cfg *config.Config, catalog *template.Catalog, logger *slog.Logger) *aiassist.Adapter {
	if !cfg.AI.Enabled {
		slog.Info("AI provider disabled, generation starts at the template tier")
		return nil
	}
	provider := aiassist.NewChatProvider(aiassist.ChatProviderConfig{
		Endpoint: cfg.AI.Endpoint,
		Model:    cfg.AI.Model,
		APIKey:   cfg.AI.APIKey(),
		Timeout:  cfg.AI.Timeout,
	})
	return aiassist.New(provider, catalog, logger)
}

// setupMetrics starts the prometheus endpoint when enabled
func setupMetrics(cfg *config.Config, logger *slog.Logger) *metric.Registry {
	registry := metric.NewRegistry()
	if !cfg.Metrics.Enabled {
		return registry
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	server := &http.Server{
		Addr:              cfg.Metrics.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		slog.Info("Metrics endpoint listening", "addr", cfg.Metrics.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics endpoint failed", "error", err)
		}
	}()
	return registry
}

// setupReporter creates the status reporter for the configured mode
func setupReporter(cfg *config.Config, logger *slog.Logger) (status.Reporter, func(), error) {
	switch cfg.Status.Mode {
	case config.StatusModeLog:
		return status.NewLogReporter(logger), func() {}, nil
	case config.StatusModeNATS:
		reporter, err := status.NewNATSReporter(status.NATSConfig{
			URL:           cfg.Status.NATSURL,
			Subject:       cfg.Status.Subject,
			Name:          appName,
			ReconnectWait: cfg.Status.ReconnectWait,
			MaxReconnects: cfg.Status.MaxReconnects,
		}, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connect status reporter: %w", err)
		}
		return reporter, func() {
			if err := reporter.Close(); err != nil {
				logger.Warn("Status reporter close failed", "error", err)
			}
		}, nil
	default:
		return status.NopReporter{}, func() {}, nil
	}
}
