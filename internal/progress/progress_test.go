package progress

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequentialRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress_worker_0.json")
	store := NewStore(path, slog.Default())

	// Missing file loads as zero checkpoint.
	cp := store.LoadSequential()
	assert.Zero(t, cp.LastFileNumber)

	require.NoError(t, store.SaveSequential(Sequential{WorkerID: 0, LastFileNumber: 1000500}))

	loaded := store.LoadSequential()
	assert.Equal(t, 1000500, loaded.LastFileNumber)
	assert.NotEmpty(t, loaded.UpdatedAt)
}

func TestAlphaRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress_alpha_worker_2.json")
	store := NewStore(path, slog.Default())

	require.NoError(t, store.SaveAlpha(Alpha{
		WorkerID:          2,
		CompletedPatterns: []string{"aa", "ab"},
		ProcessedGUIDs:    []string{"g1", "g2"},
		FoundCount:        5,
		RecentCount:       3,
	}))

	loaded := store.LoadAlpha()
	assert.Equal(t, 2, loaded.WorkerID)
	assert.Equal(t, []string{"aa", "ab"}, loaded.CompletedPatterns)
	assert.Equal(t, []string{"g1", "g2"}, loaded.ProcessedGUIDs)
	assert.Equal(t, 5, loaded.FoundCount)
	assert.Equal(t, 3, loaded.RecentCount)
}

func TestAlphaTrimsGUIDList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress_alpha_worker_0.json")
	store := NewStore(path, slog.Default())

	guids := make([]string, maxTrackedGUIDs+50)
	for i := range guids {
		guids[i] = fmt.Sprintf("guid-%d", i)
	}
	require.NoError(t, store.SaveAlpha(Alpha{ProcessedGUIDs: guids}))

	loaded := store.LoadAlpha()
	require.Len(t, loaded.ProcessedGUIDs, maxTrackedGUIDs)
	// The newest entries survive the trim.
	assert.Equal(t, fmt.Sprintf("guid-%d", maxTrackedGUIDs+49), loaded.ProcessedGUIDs[maxTrackedGUIDs-1])
	assert.Equal(t, "guid-50", loaded.ProcessedGUIDs[0])
}

func TestCorruptCheckpointLoadsFresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress_worker_0.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	store := NewStore(path, slog.Default())
	cp := store.LoadSequential()
	assert.Zero(t, cp.LastFileNumber)

	alpha := store.LoadAlpha()
	assert.Empty(t, alpha.CompletedPatterns)
}
