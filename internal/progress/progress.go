// Package progress persists per-worker checkpoints so interrupted runs
// resume where they left off. Checkpoint files are small JSON documents
// rewritten wholesale on every save; a corrupt file is treated as an empty
// checkpoint, never as a fatal error.
package progress

import (
	"encoding/json"
	"log/slog"
	"os"
	"time"

	apperrors "mnsos/internal/errors"
)

// maxTrackedGUIDs caps the processed-GUID list kept in alpha checkpoints.
// Older entries are dropped first; the sink file remains the authoritative
// record of what was persisted.
const maxTrackedGUIDs = 10000

// Sequential is the checkpoint of a file-number probing worker.
type Sequential struct {
	WorkerID       int    `json:"worker_id"`
	LastFileNumber int    `json:"last_file_number"`
	UpdatedAt      string `json:"updated_at"`
}

// Alpha is the checkpoint of a name-search worker.
type Alpha struct {
	WorkerID          int      `json:"worker_id"`
	CompletedPatterns []string `json:"completed_patterns"`
	ProcessedGUIDs    []string `json:"processed_guids"`
	FoundCount        int      `json:"found_count"`
	RecentCount       int      `json:"recent_count"`
	UpdatedAt         string   `json:"updated_at"`
}

// Store reads and writes checkpoint files at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
	now    func() time.Time
}

// NewStore returns a Store for the given checkpoint file.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger, now: time.Now}
}

// LoadSequential reads a sequential checkpoint. A missing or unreadable
// file yields a zero checkpoint.
func (s *Store) LoadSequential() Sequential {
	var cp Sequential
	s.load(&cp)
	return cp
}

// SaveSequential writes the checkpoint, stamping the update time.
func (s *Store) SaveSequential(cp Sequential) error {
	cp.UpdatedAt = s.now().Format(time.RFC3339)
	return s.save(cp)
}

// LoadAlpha reads an alpha checkpoint. A missing or unreadable file yields
// a zero checkpoint.
func (s *Store) LoadAlpha() Alpha {
	var cp Alpha
	s.load(&cp)
	return cp
}

// SaveAlpha writes the checkpoint, trimming the GUID list to the cap and
// stamping the update time.
func (s *Store) SaveAlpha(cp Alpha) error {
	if len(cp.ProcessedGUIDs) > maxTrackedGUIDs {
		cp.ProcessedGUIDs = cp.ProcessedGUIDs[len(cp.ProcessedGUIDs)-maxTrackedGUIDs:]
	}
	cp.UpdatedAt = s.now().Format(time.RFC3339)
	return s.save(cp)
}

func (s *Store) load(out any) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("could not read checkpoint, starting fresh",
				slog.String("path", s.path),
				slog.String("error", err.Error()))
		}
		return
	}
	if err := json.Unmarshal(data, out); err != nil {
		s.logger.Warn("corrupt checkpoint, starting fresh",
			slog.String("path", s.path),
			slog.String("error", err.Error()))
	}
}

func (s *Store) save(cp any) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return apperrors.NewStorageError("failed to encode checkpoint", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return apperrors.NewStorageError("failed to write checkpoint", err)
	}
	return nil
}
