// Command exporter consolidates every worker sink into the canonical
// dataset, writes the CSV, JSON, SQL, and XLSX exports plus the summary,
// and optionally commits the data directory and pushes it.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/google/uuid"

	"mnsos/internal/config"
	"mnsos/internal/consolidate"
	"mnsos/internal/gitpush"
	"mnsos/internal/infrastructure"
)

// errorRetryDelay is how long auto mode waits before retrying a failed pass.
const errorRetryDelay = 5 * time.Minute

func main() {
	var logger *slog.Logger
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("PANIC RECOVERED: %v\n%s\n", r, debug.Stack())
			if logger != nil {
				logger.Error("exporter panicked",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())))
			}
			os.Exit(1)
		}
	}()

	auto := flag.Bool("auto", false, "run a consolidation pass on an interval instead of once")
	noPush := flag.Bool("no-push", false, "export files but do not commit or push")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Warning: failed to load config, using defaults: %v\n", err)
		cfg = config.Default()
	}
	if *noPush {
		cfg.Export.Push = false
	}

	paths := config.NewPaths(cfg.Paths)
	if err := paths.EnsureDirectories(); err != nil {
		fmt.Printf("Error: failed to create directories: %v\n", err)
		os.Exit(1)
	}
	cfg.Logging.FilePath = paths.LogPath("exporter.log")

	logger, err = infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Printf("Warning: failed to initialize logger, using default: %v\n", err)
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.WithRunID(ctx, uuid.New().String())

	if !*auto {
		if err := runPass(ctx, cfg, paths, logger); err != nil {
			logger.ErrorContext(ctx, "export failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		return
	}

	logger.InfoContext(ctx, "auto-save mode",
		slog.Duration("interval", cfg.Export.AutoSaveInterval))
	for {
		delay := cfg.Export.AutoSaveInterval
		if err := runPass(ctx, cfg, paths, logger); err != nil {
			logger.ErrorContext(ctx, "export pass failed, retrying",
				slog.String("error", err.Error()),
				slog.Duration("retry_in", errorRetryDelay))
			delay = errorRetryDelay
		}

		select {
		case <-ctx.Done():
			logger.InfoContext(ctx, "auto-save stopped")
			return
		case <-time.After(delay):
		}
	}
}

func runPass(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	result, err := consolidate.Run(ctx, cfg, paths, logger, time.Now())
	if err != nil {
		return err
	}
	if result.Total == 0 || !cfg.Export.Push {
		return nil
	}

	pusher := gitpush.New(".", paths.DataDir, logger)
	if _, err := pusher.Push(ctx, gitpush.CommitMessage(result.Total, time.Now())); err != nil {
		return err
	}
	return nil
}
