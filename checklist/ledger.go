/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package checklist

import (
	"context"
	"fmt"

	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/ai-ulu/autopilot/retry"
	"github.com/chainguard-dev/clog"
)

// DefaultPath is where the ledger lives in a repository.
const DefaultPath = "tasks.md"

// advanceMessage is the commit message used when ticking a task.
const advanceMessage = "✅ Autonomous Progress: Task completed by Repair Agent"

// Files is the part of the GitHub client the ledger needs.
type Files interface {
	GetFile(ctx context.Context, repo, path, ref string) (*githubapi.File, error)
	PutFile(ctx context.Context, repo string, change githubapi.FileChange) (string, error)
}

// Ledger advances the task ledger stored in a repository.
type Ledger struct {
	files Files
	path  string
	retry retry.Config
}

// NewLedger returns a Ledger for the document at path. An empty path means
// DefaultPath.
func NewLedger(files Files, path string) *Ledger {
	if path == "" {
		path = DefaultPath
	}
	return &Ledger{files: files, path: path, retry: retry.Once()}
}

// Path returns the ledger's document path.
func (l *Ledger) Path() string {
	return l.path
}

// Advance ticks the first open task of the ledger on branch and commits the
// result to the same branch, using the version token read alongside the
// document as the write precondition. If the write is rejected as stale the
// ledger is re-read and the write attempted once more.
//
// It returns the text of the ticked task. It reports false without error
// when the document is absent or has no open task.
func (l *Ledger) Advance(ctx context.Context, repo, branch string) (string, bool, error) {
	log := clog.FromContext(ctx).With("repo", repo).With("branch", branch).With("path", l.path)

	res, err := retry.Do(ctx, l.retry, "advance checklist", githubapi.IsConflict, func(attempt int) (ticked, error) {
		f, err := l.files.GetFile(ctx, repo, l.path, branch)
		switch {
		case githubapi.IsNotFound(err):
			log.Info("No checklist document, nothing to advance")
			return ticked{}, nil
		case err != nil:
			return ticked{}, fmt.Errorf("reading checklist: %w", err)
		}

		task, ok := NextOpen(f.Content)
		if !ok {
			log.Info("Checklist has no open task, nothing to advance")
			return ticked{}, nil
		}
		updated, _ := Advance(f.Content)

		if _, err := l.files.PutFile(ctx, repo, githubapi.FileChange{
			Path:    l.path,
			Branch:  branch,
			Message: advanceMessage,
			Content: []byte(updated),
			SHA:     f.SHA,
		}); err != nil {
			return ticked{}, fmt.Errorf("writing checklist: %w", err)
		}
		return ticked{task: task, ok: true}, nil
	})
	if err != nil {
		return "", false, err
	}

	if res.ok {
		log.With("task", res.task).Info("Advanced checklist")
	}
	return res.task, res.ok, nil
}

// ticked is the result of one advance attempt.
type ticked struct {
	task string
	ok   bool
}
