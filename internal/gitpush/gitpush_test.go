package gitpush

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		require.NoError(t, cmd.Run(), strings.Join(args, " "))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "data"), 0o755))
	return dir
}

func TestPushCommitsChanges(t *testing.T) {
	dir := initRepo(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data", "businesses.csv"), []byte("file_number\n1\n"), 0o644))

	p := New(dir, "data/", slog.Default())
	// No remote is configured, so the push command itself fails; the commit
	// must still have landed.
	committed, err := p.Push(context.Background(), "Auto-save: 1 records (2026-08-23 10:00)")
	assert.True(t, committed)
	assert.Error(t, err)

	log := exec.Command("git", "log", "--oneline")
	log.Dir = dir
	out, err := log.Output()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Auto-save: 1 records")
}

func TestPushNothingToCommit(t *testing.T) {
	dir := initRepo(t)

	p := New(dir, "data/", slog.Default())
	committed, err := p.Push(context.Background(), "Auto-save: 0 records")
	assert.False(t, committed)
	assert.NoError(t, err)
}

func TestPushOutsideRepo(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	p := New(t.TempDir(), "data/", slog.Default())
	committed, err := p.Push(context.Background(), "msg")
	assert.False(t, committed)
	assert.Error(t, err)
}

func TestCommitMessage(t *testing.T) {
	now := time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)
	assert.Equal(t, "Auto-save: 1234 records (2026-08-23 14:30)", CommitMessage(1234, now))
}
