// Package gitpush publishes the consolidated data directory through git so
// the dataset repository stays current between scraping runs.
package gitpush

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	apperrors "mnsos/internal/errors"
)

// Pusher commits and pushes the data directory of a git checkout.
type Pusher struct {
	repoDir string
	dataDir string
	logger  *slog.Logger
}

// New builds a Pusher rooted at repoDir. dataDir is the pathspec staged and
// checked for changes, relative to the repository root.
func New(repoDir, dataDir string, logger *slog.Logger) *Pusher {
	return &Pusher{repoDir: repoDir, dataDir: dataDir, logger: logger}
}

// CommitMessage renders the auto-save commit subject for a record count.
func CommitMessage(total int, now time.Time) string {
	return fmt.Sprintf("Auto-save: %d records (%s)", total, now.Format("2006-01-02 15:04"))
}

// Push stages the data directory, commits with message, and pushes. Returns
// false with a nil error when there is nothing to commit.
func (p *Pusher) Push(ctx context.Context, message string) (bool, error) {
	if _, err := p.run(ctx, "add", p.dataDir); err != nil {
		return false, err
	}

	status, err := p.run(ctx, "status", "--porcelain", p.dataDir)
	if err != nil {
		return false, err
	}
	if strings.TrimSpace(status) == "" {
		p.logger.InfoContext(ctx, "no changes to commit")
		return false, nil
	}

	if _, err := p.run(ctx, "commit", "-m", message); err != nil {
		return false, err
	}
	p.logger.InfoContext(ctx, "committed data directory",
		slog.String("message", message))

	if _, err := p.run(ctx, "push"); err != nil {
		// The commit is local; the next pass will retry the push.
		return true, err
	}
	p.logger.InfoContext(ctx, "pushed to remote")
	return true, nil
}

func (p *Pusher) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = p.repoDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return "", apperrors.NewStorageError(
			fmt.Sprintf("git %s failed: %s", args[0], detail), err)
	}
	return stdout.String(), nil
}
