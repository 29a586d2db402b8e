package worker

import (
	"context"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mnsos/internal/config"
	"mnsos/internal/progress"
	"mnsos/internal/sink"
	"mnsos/pkg/contracts/domain"
)

// proberFunc scripts the probe outcome per file number.
type proberFunc func(fileNumber int) (*domain.BusinessRecord, error)

func (f proberFunc) ScrapeByFileNumber(_ context.Context, n int) (*domain.BusinessRecord, error) {
	return f(n)
}

func hitRecord(n int) *domain.BusinessRecord {
	return &domain.BusinessRecord{
		FileNumber:   strconv.Itoa(n),
		BusinessName: "BUSINESS LLC",
		FilingDate:   "2024-01-15",
	}
}

func newSequential(t *testing.T, prober Prober, misses int) (*Sequential, string) {
	t.Helper()
	dir := t.TempDir()
	out, err := sink.Open(filepath.Join(dir, "businesses_worker_0.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })

	return &Sequential{
		ID:      0,
		Scraper: prober,
		Sink:    out,
		Store:   progress.NewStore(filepath.Join(dir, "progress_worker_0.json"), slog.Default()),
		Cfg: config.ScraperConfig{
			MaxConsecutiveMisses: misses,
			CheckpointEvery:      10,
		},
		Delay:  NewDelayer(0, 0),
		Logger: slog.Default(),
	}, dir
}

func TestSequentialStopsAtMissCutoff(t *testing.T) {
	probes := 0
	w, _ := newSequential(t, proberFunc(func(int) (*domain.BusinessRecord, error) {
		probes++
		return nil, nil
	}), 5)

	found, err := w.Run(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Zero(t, found)
	// Exactly the cutoff count of probes, not one more.
	assert.Equal(t, 5, probes)
}

func TestSequentialHitResetsMissCounter(t *testing.T) {
	// miss, miss, hit, then misses until cutoff.
	w, _ := newSequential(t, proberFunc(func(n int) (*domain.BusinessRecord, error) {
		if n == 3 {
			return hitRecord(n), nil
		}
		return nil, nil
	}), 3)

	found, err := w.Run(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, found)

	// 1,2 miss; 3 hit; 4,5,6 miss -> stop.
	cp := w.Store.LoadSequential()
	assert.Equal(t, 6, cp.LastFileNumber)
}

func TestSequentialHonorsRangeBound(t *testing.T) {
	var probed []int
	w, _ := newSequential(t, proberFunc(func(n int) (*domain.BusinessRecord, error) {
		probed = append(probed, n)
		return hitRecord(n), nil
	}), 100)

	found, err := w.Run(context.Background(), 10, 14)
	require.NoError(t, err)
	assert.Equal(t, 5, found)
	assert.Equal(t, []int{10, 11, 12, 13, 14}, probed)
}

func TestSequentialRecordWithoutIdentityIsMiss(t *testing.T) {
	w, _ := newSequential(t, proberFunc(func(n int) (*domain.BusinessRecord, error) {
		return &domain.BusinessRecord{FileNumber: "1"}, nil
	}), 4)

	found, err := w.Run(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Zero(t, found)
}

func TestSequentialResumesAfterCheckpoint(t *testing.T) {
	var first []int
	w, _ := newSequential(t, proberFunc(func(n int) (*domain.BusinessRecord, error) {
		first = append(first, n)
		return hitRecord(n), nil
	}), 100)

	_, err := w.Run(context.Background(), 1, 20)
	require.NoError(t, err)

	// Same store, fresh run: picks up after the saved file number.
	var second []int
	w.Scraper = proberFunc(func(n int) (*domain.BusinessRecord, error) {
		second = append(second, n)
		return nil, nil
	})
	w.Cfg.MaxConsecutiveMisses = 3
	_, err = w.Run(context.Background(), 1, 0)
	require.NoError(t, err)

	assert.Equal(t, 20, first[len(first)-1])
	assert.Equal(t, []int{21, 22, 23}, second)
}

func TestSequentialErrorCountsAsMiss(t *testing.T) {
	w, _ := newSequential(t, proberFunc(func(n int) (*domain.BusinessRecord, error) {
		return nil, assert.AnError
	}), 3)

	found, err := w.Run(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Zero(t, found)
}
