package worker

import (
	"context"
	"log/slog"
	"time"

	"mnsos/internal/config"
	"mnsos/internal/progress"
	"mnsos/internal/scrape"
	"mnsos/internal/sink"
	"mnsos/pkg/contracts/domain"
)

// Searcher runs one name-search pattern against the portal.
type Searcher interface {
	SearchByName(ctx context.Context, term string) ([]scrape.Hit, error)
}

// LocatorScraper fetches the record behind a filing GUID. A nil record with
// a nil error is a clean miss.
type LocatorScraper interface {
	ScrapeByLocator(ctx context.Context, guid, fallbackName string) (*domain.BusinessRecord, error)
}

// Alpha walks a set of two-letter name-search patterns, fetching details
// for every new hit and persisting the ones that pass the year and
// business-type filters.
type Alpha struct {
	ID      int
	Portal  Searcher
	Scraper LocatorScraper
	Sink    *sink.CSVSink
	Store   *progress.Store
	Cfg     config.ScraperConfig
	Filter  config.FilterConfig
	Delay   *Delayer
	Logger  *slog.Logger
}

// Run processes the assigned patterns, skipping ones a previous run already
// completed. Returns the number of records persisted this run.
func (w *Alpha) Run(ctx context.Context, patterns []string) (int, error) {
	cp := w.Store.LoadAlpha()
	completed := make(map[string]struct{}, len(cp.CompletedPatterns))
	for _, p := range cp.CompletedPatterns {
		completed[p] = struct{}{}
	}
	processed := make(map[string]struct{}, len(cp.ProcessedGUIDs))
	for _, g := range cp.ProcessedGUIDs {
		processed[g] = struct{}{}
	}

	// The checkpoint's GUID list is trimmed, so the sink file is also
	// consulted to avoid re-persisting businesses it already holds.
	if keys, err := sink.LoadKeys(w.Sink.Path()); err == nil {
		for k := range keys {
			processed[k] = struct{}{}
		}
	}

	var remaining []string
	for _, p := range patterns {
		if _, done := completed[p]; !done {
			remaining = append(remaining, p)
		}
	}
	w.Logger.InfoContext(ctx, "alpha worker starting",
		slog.Int("worker_id", w.ID),
		slog.Int("patterns_remaining", len(remaining)),
		slog.Int("patterns_total", len(patterns)))
	if len(remaining) == 0 {
		return 0, nil
	}

	found := cp.FoundCount
	recent := cp.RecentCount
	newFound := 0
	guidList := cp.ProcessedGUIDs

	targetYears := make(map[string]struct{}, len(w.Filter.TargetYears))
	for _, y := range w.Filter.TargetYears {
		targetYears[y] = struct{}{}
	}
	targetTypes := make(map[string]struct{}, len(w.Filter.TargetTypes))
	for _, t := range w.Filter.TargetTypes {
		targetTypes[t] = struct{}{}
	}

	for _, pattern := range remaining {
		if err := ctx.Err(); err != nil {
			return newFound, err
		}

		w.Logger.InfoContext(ctx, "searching pattern",
			slog.Int("worker_id", w.ID),
			slog.String("pattern", pattern))

		hits, err := w.Portal.SearchByName(ctx, pattern)
		if err != nil {
			// Skip the pattern after a pause; it stays uncompleted and a
			// later run picks it up again.
			scrapeErrors.WithLabelValues("alpha").Inc()
			w.Logger.ErrorContext(ctx, "search failed",
				slog.Int("worker_id", w.ID),
				slog.String("pattern", pattern),
				slog.String("error", err.Error()))
			if err := sleepCtx(ctx, w.Cfg.RetryDelay); err != nil {
				return newFound, err
			}
			continue
		}

		newHits := hits[:0:0]
		for _, hit := range hits {
			if _, seen := processed[hit.GUID]; !seen {
				newHits = append(newHits, hit)
			}
		}
		w.Logger.InfoContext(ctx, "pattern results",
			slog.Int("worker_id", w.ID),
			slog.String("pattern", pattern),
			slog.Int("results", len(hits)),
			slog.Int("new", len(newHits)))

		for _, hit := range newHits {
			record, err := w.Scraper.ScrapeByLocator(ctx, hit.GUID, hit.BusinessName)
			if err != nil {
				scrapeErrors.WithLabelValues("alpha").Inc()
				w.Logger.ErrorContext(ctx, "detail scrape failed",
					slog.Int("worker_id", w.ID),
					slog.String("guid", hit.GUID),
					slog.String("error", err.Error()))
				continue
			}
			if record == nil {
				searchMisses.WithLabelValues("alpha").Inc()
				continue
			}

			year := record.FilingYear()
			_, yearOK := targetYears[year]
			_, typeOK := targetTypes[record.BusinessType]
			if yearOK && typeOK {
				if err := w.Sink.Append(record); err != nil {
					return newFound, err
				}
				found++
				recent++
				newFound++
				recordsScraped.WithLabelValues("alpha").Inc()
				w.Logger.InfoContext(ctx, "SAVED",
					slog.Int("worker_id", w.ID),
					slog.String("business_name", record.BusinessName),
					slog.String("business_type", record.BusinessType),
					slog.String("filing_year", year))
			} else if yearOK {
				w.Logger.DebugContext(ctx, "skipped by type filter",
					slog.Int("worker_id", w.ID),
					slog.String("business_name", record.BusinessName),
					slog.String("business_type", record.BusinessType))
			}

			processed[hit.GUID] = struct{}{}
			guidList = append(guidList, hit.GUID)

			if err := w.Delay.Wait(ctx); err != nil {
				return newFound, err
			}
		}

		completed[pattern] = struct{}{}
		cp.CompletedPatterns = append(cp.CompletedPatterns, pattern)
		patternsCompleted.Inc()

		if err := w.Store.SaveAlpha(progress.Alpha{
			WorkerID:          w.ID,
			CompletedPatterns: cp.CompletedPatterns,
			ProcessedGUIDs:    guidList,
			FoundCount:        found,
			RecentCount:       recent,
		}); err != nil {
			w.Logger.Error("failed to save checkpoint",
				slog.Int("worker_id", w.ID),
				slog.String("error", err.Error()))
		}

		if err := w.Delay.Wait(ctx); err != nil {
			return newFound, err
		}
	}

	w.Logger.InfoContext(ctx, "alpha worker complete",
		slog.Int("worker_id", w.ID),
		slog.Int("found_this_run", newFound),
		slog.Int("found_total", found))
	return newFound, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
