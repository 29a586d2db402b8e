// Command scraper walks the registry by file number, sequentially or fanned
// out over a bounded range, and appends found businesses to per-worker CSV
// sinks under the output directory.
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
	"syscall"

	"github.com/google/uuid"

	"mnsos/internal/config"
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
				logger.Error("scraper panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	start := flag.Int("start", 0, "first file number to probe (0 = resume or config default)")
	end := flag.Int("end", 0, "last file number to probe (0 = walk until the miss cutoff)")
	workers := flag.Int("workers", 1, "number of parallel workers (requires -end)")
	visible := flag.Bool("visible", false, "run the browser with a visible window")
	noResume := flag.Bool("no-resume", false, "ignore saved checkpoints and start fresh")
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
	if *start <= 0 {
		*start = cfg.Scraper.StartFileNumber
	}
	if *workers > 1 && *end <= 0 {
		fmt.Println("Error: -workers > 1 requires -end to bound the range")
		os.Exit(1)
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create directories: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.FilePath = paths.LogPath("scraper.log")

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, uuid.New().String())

	if *noResume {
		for i := 0; i < *workers; i++ {
			os.Remove(paths.ProgressPath(i))
		}
		logger.InfoContext(ctx, "checkpoints cleared, starting fresh")
	}

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

	logger.InfoContext(ctx, "file number scraper starting",
		slog.Int("start", *start),
		slog.Int("end", *end),
		slog.Int("workers", *workers),
		slog.Bool("headless", cfg.Scraper.Headless))

	deps := worker.Deps{
		Cfg:    cfg,
		Paths:  paths,
		Logger: logger,
		NewSession: func() (session.Session, error) {
			return session.NewChrome(cfg.Scraper)
		},
	}

	notifier := notify.New(cfg.Notify, logger)
	found, err := worker.RunRange(ctx, deps, *workers, *start, *end)
	if err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "scrape failed",
			slog.Int("found", found),
			slog.String("error", err.Error()))
		notifier.Send(ctx, "Scrape Failed",
			fmt.Sprintf("File number scrape stopped after %d records: %v", found, err),
			notify.SeverityError)
		os.Exit(1)
	}

	logger.InfoContext(ctx, "scrape complete", slog.Int("found", found))
	notifier.Send(context.WithoutCancel(ctx), "Scrape Complete",
		fmt.Sprintf("File number scrape finished with %d records.", found),
		notify.SeveritySuccess)
}
