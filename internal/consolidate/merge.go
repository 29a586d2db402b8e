package consolidate

import (
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
)

// sinkGlobs are the per-worker sink file patterns collected by a merge, in
// merge order: alpha workers first, then sequential workers.
var sinkGlobs = []string{
	"businesses_alpha_worker_*.csv",
	"businesses_worker_*.csv",
}

// mainFiles are consolidated files from earlier tooling that are folded in
// after the worker sinks when present.
var mainFiles = []string{
	"businesses.csv",
	"businesses_all.csv",
}

// MergeSinks reads every worker sink in outputDir into ds. A sink that
// cannot be read or parsed is logged and skipped; the merge never fails on
// a single bad file. Returns the number of rows read.
func MergeSinks(ds *Dataset, outputDir string, logger *slog.Logger) int {
	var files []string
	for _, glob := range sinkGlobs {
		matches, err := filepath.Glob(filepath.Join(outputDir, glob))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		files = append(files, matches...)
	}
	for _, name := range mainFiles {
		path := filepath.Join(outputDir, name)
		if _, err := os.Stat(path); err == nil {
			files = append(files, path)
		}
	}

	total := 0
	for _, file := range files {
		n, err := mergeFile(ds, file)
		if err != nil {
			logger.Error("skipping unreadable sink file",
				slog.String("file", filepath.Base(file)),
				slog.String("error", err.Error()))
			continue
		}
		total += n
		logger.Info("merged sink file",
			slog.String("file", filepath.Base(file)),
			slog.Int("records", n))
	}
	return total
}

// MergeExisting folds a previously consolidated dataset file into ds so
// records scraped by earlier runs survive consolidation. Workers' newer
// rows must win, so call this BEFORE MergeSinks. Missing file is a no-op.
func MergeExisting(ds *Dataset, path string, logger *slog.Logger) {
	if _, err := os.Stat(path); err != nil {
		return
	}
	n, err := mergeFile(ds, path)
	if err != nil {
		logger.Error("could not read existing dataset",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return
	}
	logger.Info("merged existing dataset",
		slog.String("file", filepath.Base(path)),
		slog.Int("records", n))
}

// mergeFile reads one CSV by its own header, mapping each row into a
// column map. Short rows leave their trailing columns empty.
func mergeFile(ds *Dataset, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return 0, err
	}

	n := 0
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return n, err
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		ds.Upsert(row)
		n++
	}
	return n, nil
}
