package worker

import (
	"context"
	"errors"
	"log/slog"

	"mnsos/internal/config"
	"mnsos/internal/progress"
	"mnsos/internal/sink"
	"mnsos/pkg/contracts/domain"
)

// Prober locates the business behind one file number. A nil record with a
// nil error is a clean miss.
type Prober interface {
	ScrapeByFileNumber(ctx context.Context, fileNumber int) (*domain.BusinessRecord, error)
}

// Sequential probes file numbers in ascending order until it either leaves
// its assigned range or hits the consecutive-miss cutoff, which marks the
// end of the assigned number space.
type Sequential struct {
	ID      int
	Scraper Prober
	Sink    *sink.CSVSink
	Store   *progress.Store
	Cfg     config.ScraperConfig
	Delay   *Delayer
	Logger  *slog.Logger
}

// Run scrapes the span [start, end]; end <= 0 means unbounded. Resume picks
// up after the checkpointed file number when it lies inside the span. The
// number of persisted records is returned even when the run is cut short.
func (w *Sequential) Run(ctx context.Context, start, end int) (int, error) {
	current := start
	if cp := w.Store.LoadSequential(); cp.LastFileNumber >= start {
		current = cp.LastFileNumber + 1
		w.Logger.InfoContext(ctx, "resuming from checkpoint",
			slog.Int("worker_id", w.ID),
			slog.Int("file_number", current))
	}

	w.Logger.InfoContext(ctx, "sequential worker starting",
		slog.Int("worker_id", w.ID),
		slog.Int("start", current),
		slog.Int("end", end),
		slog.Int("max_consecutive_misses", w.Cfg.MaxConsecutiveMisses))

	found := 0
	misses := 0

	for misses < w.Cfg.MaxConsecutiveMisses && (end <= 0 || current <= end) {
		if err := ctx.Err(); err != nil {
			w.checkpoint(current - 1)
			return found, err
		}

		record, err := w.Scraper.ScrapeByFileNumber(ctx, current)
		switch {
		case err != nil && errors.Is(err, context.Canceled):
			w.checkpoint(current - 1)
			return found, err
		case err != nil:
			// A probe that failed after all retries counts as a miss so a
			// run of hard failures still terminates the walk.
			scrapeErrors.WithLabelValues("sequential").Inc()
			misses++
			w.Logger.ErrorContext(ctx, "scrape failed",
				slog.Int("worker_id", w.ID),
				slog.Int("file_number", current),
				slog.String("error", err.Error()))
		case record != nil && record.HasIdentity():
			if err := w.Sink.Append(record); err != nil {
				w.checkpoint(current - 1)
				return found, err
			}
			found++
			misses = 0
			recordsScraped.WithLabelValues("sequential").Inc()
			w.Logger.InfoContext(ctx, "FOUND",
				slog.Int("worker_id", w.ID),
				slog.Int("file_number", current),
				slog.String("business_name", record.BusinessName))
		default:
			misses++
			searchMisses.WithLabelValues("sequential").Inc()
			w.Logger.DebugContext(ctx, "MISS",
				slog.Int("worker_id", w.ID),
				slog.Int("file_number", current),
				slog.Int("consecutive_misses", misses))
		}

		if current%w.Cfg.CheckpointEvery == 0 {
			w.checkpoint(current)
			w.Logger.InfoContext(ctx, "progress",
				slog.Int("worker_id", w.ID),
				slog.Int("found", found),
				slog.Int("file_number", current))
		}

		current++

		if err := w.Delay.Wait(ctx); err != nil {
			w.checkpoint(current - 1)
			return found, err
		}
	}

	if misses >= w.Cfg.MaxConsecutiveMisses {
		w.Logger.InfoContext(ctx, "stopping at consecutive-miss cutoff",
			slog.Int("worker_id", w.ID),
			slog.Int("misses", misses),
			slog.Int("found", found))
	} else {
		w.Logger.InfoContext(ctx, "range complete",
			slog.Int("worker_id", w.ID),
			slog.Int("found", found))
	}

	w.checkpoint(current - 1)
	return found, nil
}

func (w *Sequential) checkpoint(fileNumber int) {
	err := w.Store.SaveSequential(progress.Sequential{
		WorkerID:       w.ID,
		LastFileNumber: fileNumber,
	})
	if err != nil {
		w.Logger.Error("failed to save checkpoint",
			slog.Int("worker_id", w.ID),
			slog.String("error", err.Error()))
	}
}
