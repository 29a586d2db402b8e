// Command alphascraper sweeps the registry by two-letter name prefixes
// (aa through zz) across parallel workers, filters hits to the target
// filing years and entity types, and consolidates the dataset on a timer
// while the sweep runs.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mnsos/internal/config"
	"mnsos/internal/consolidate"
	"mnsos/internal/gitpush"
	"mnsos/internal/infrastructure"
	"mnsos/internal/notify"
	"mnsos/internal/session"
	"mnsos/internal/worker"
)

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("alphascraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	workers := flag.Int("workers", 4, "number of parallel workers")
	years := flag.String("years", "", "comma-separated filing years to keep (overrides config)")
	visible := flag.Bool("visible", false, "run the browser with a visible window")
	metricsPort := flag.Int("metrics-port", -1, "port for this process's /metrics endpoint (0 disables, -1 = config)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}
	if *visible {
		cfg.Scraper.Headless = false
	}
	if *years != "" {
		cfg.Filter.TargetYears = strings.Split(*years, ",")
	}
	if *workers < 1 {
		*workers = 1
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create directories: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.FilePath = paths.LogPath("alphascraper.log")

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, uuid.New().String())

	logger.InfoContext(ctx, "alpha scraper starting",
		slog.Int("workers", *workers),
		slog.Any("target_years", cfg.Filter.TargetYears),
		slog.Bool("headless", cfg.Scraper.Headless))

	if *metricsPort >= 0 {
		cfg.Server.MetricsPort = *metricsPort
	}
	if cfg.Server.MetricsPort > 0 {
		metrics, err := infrastructure.NewMetricsServer(cfg.Server.MetricsPort)
		if err != nil {
			logger.ErrorContext(ctx, "failed to start metrics server",
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		defer metrics.Close()
		logger.InfoContext(ctx, "metrics server listening", slog.String("addr", metrics.Addr()))
		go func() {
			if err := metrics.Serve(); err != nil {
				logger.ErrorContext(ctx, "metrics server stopped",
					slog.String("error", err.Error()))
			}
		}()
	}

	// Periodic consolidation keeps the exported dataset fresh during a long
	// sweep; a crash then loses at most one interval of consolidated output.
	go autoSaveLoop(ctx, cfg, paths, logger)

	deps := worker.Deps{
		Cfg:    cfg,
		Paths:  paths,
		Logger: logger,
		NewSession: func() (session.Session, error) {
			return session.NewChrome(cfg.Scraper)
		},
	}

	notifier := notify.New(cfg.Notify, logger)
	found, err := worker.RunAlpha(ctx, deps, *workers)

	// Final pass folds whatever the workers wrote into the exports even on
	// an interrupted run.
	saveCtx := context.WithoutCancel(ctx)
	if result, saveErr := consolidate.Run(saveCtx, cfg, paths, logger, time.Now()); saveErr != nil {
		logger.ErrorContext(saveCtx, "final consolidation failed",
			slog.String("error", saveErr.Error()))
	} else if cfg.Export.Push && result.Total > 0 {
		pushData(saveCtx, cfg, paths, result.Total, logger)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(saveCtx, "alpha sweep failed",
			slog.Int("found", found),
			slog.String("error", err.Error()))
		notifier.Send(saveCtx, "Alpha Sweep Failed",
			fmt.Sprintf("Alpha sweep stopped after %d records: %v", found, err),
			notify.SeverityError)
		os.Exit(1)
	}

	logger.InfoContext(saveCtx, "alpha sweep complete", slog.Int("found", found))
	notifier.Send(saveCtx, "Alpha Sweep Complete",
		fmt.Sprintf("Alpha sweep finished with %d matching records.", found),
		notify.SeveritySuccess)
}

func autoSaveLoop(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.Export.AutoSaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			result, err := consolidate.Run(ctx, cfg, paths, logger, time.Now())
			if err != nil {
				logger.ErrorContext(ctx, "auto-save consolidation failed",
					slog.String("error", err.Error()))
				continue
			}
			if cfg.Export.Push && result.Total > 0 {
				pushData(ctx, cfg, paths, result.Total, logger)
			}
		}
	}
}

func pushData(ctx context.Context, cfg *config.Config, paths *config.Paths, total int, logger *slog.Logger) {
	pusher := gitpush.New(".", paths.DataDir, logger)
	if _, err := pusher.Push(ctx, gitpush.CommitMessage(total, time.Now())); err != nil {
		logger.ErrorContext(ctx, "data push failed", slog.String("error", err.Error()))
	}
}
