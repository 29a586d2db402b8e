package consolidate

import (
	"context"
	"log/slog"
	"time"

	"mnsos/internal/config"
	"mnsos/internal/infrastructure"
)

// Result reports what a consolidation pass produced.
type Result struct {
	Total int
	Files map[string]string
}

// Run performs one full consolidation pass: fold in the previously
// consolidated dataset, merge every worker sink over it, and write all
// export artifacts plus the summary into the data directory. A pass over
// an empty workspace returns Total zero and writes nothing.
func Run(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger, now time.Time) (Result, error) {
	ds := NewDataset()

	// Existing data first so worker rows win on duplicate file numbers.
	MergeExisting(ds, paths.DataPath("businesses.csv"), logger)
	MergeSinks(ds, paths.OutputDir, logger)

	if ds.Len() == 0 {
		logger.WarnContext(ctx, "no data to consolidate")
		return Result{}, nil
	}

	files := map[string]string{
		"csv":  "businesses.csv",
		"json": "businesses.json",
		"sql":  "businesses.sql",
		"xlsx": "businesses.xlsx",
	}

	if err := ExportCSV(ds, paths.DataPath(files["csv"])); err != nil {
		return Result{}, err
	}
	if err := ExportJSON(ds, paths.DataPath(files["json"]), now, infrastructure.GetRunID(ctx)); err != nil {
		return Result{}, err
	}
	if err := ExportSQL(ds, paths.DataPath(files["sql"]), cfg.Export.SQLTableName, now); err != nil {
		return Result{}, err
	}
	if err := ExportXLSX(ds, paths.DataPath(files["xlsx"])); err != nil {
		return Result{}, err
	}

	summary := BuildSummary(ds, files, now)
	if err := WriteSummary(summary, paths.DataPath("summary.json")); err != nil {
		return Result{}, err
	}

	logger.InfoContext(ctx, "consolidation complete",
		slog.Int("total_businesses", ds.Len()))
	return Result{Total: ds.Len(), Files: files}, nil
}
