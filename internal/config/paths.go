package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths resolves every file the pipeline reads or writes. Worker sinks and
// checkpoints live under OutputDir; consolidated exports under DataDir.
type Paths struct {
	OutputDir string
	DataDir   string
	LogsDir   string
}

// NewPaths builds a Paths from the configured directories, resolving
// relative paths against the working directory.
func NewPaths(cfg PathsConfig) *Paths {
	return &Paths{
		OutputDir: absOrSelf(cfg.OutputDir),
		DataDir:   absOrSelf(cfg.DataDir),
		LogsDir:   absOrSelf(cfg.LogsDir),
	}
}

func absOrSelf(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}

// EnsureDirectories creates all required directories.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.OutputDir, p.DataDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SinkPath returns the per-worker CSV sink for sequential/range workers.
func (p *Paths) SinkPath(workerID int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("businesses_worker_%d.csv", workerID))
}

// AlphaSinkPath returns the per-worker CSV sink for alpha-search workers.
func (p *Paths) AlphaSinkPath(workerID int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("businesses_alpha_worker_%d.csv", workerID))
}

// ProgressPath returns the checkpoint file for sequential/range workers.
func (p *Paths) ProgressPath(workerID int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("progress_worker_%d.json", workerID))
}

// AlphaProgressPath returns the checkpoint file for alpha-search workers.
func (p *Paths) AlphaProgressPath(workerID int) string {
	return filepath.Join(p.OutputDir, fmt.Sprintf("progress_alpha_worker_%d.json", workerID))
}

// DataPath returns the path of a consolidated export artifact.
func (p *Paths) DataPath(name string) string {
	return filepath.Join(p.DataDir, name)
}

// LogPath returns the path of a log file.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
