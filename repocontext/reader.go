/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repocontext gathers what the media agent writes about: the latest
// completed ledger task, the latest closed pull request and any past
// self-healing run.
package repocontext

import (
	"context"
	"errors"
	"fmt"

	"github.com/ai-ulu/autopilot/checklist"
	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/chainguard-dev/clog"
)

// Defaults used when the repository cannot supply a value. A context never
// carries an empty task, change or description.
const (
	DefaultTask        = "Laying the foundations"
	DefaultChange      = "No recent changes"
	DefaultDescription = "No description"
)

// RecoveryTerm is the title fragment that marks a self-healing pull request.
const RecoveryTerm = "Self-Healing"

// RepositoryContext is the request-scoped input to content generation.
type RepositoryContext struct {
	Owner      string
	Repository string
	// Description is the repository's own description.
	Description string
	// LatestTask is the most recently completed ledger task.
	LatestTask string
	// LatestChange is the title of the most recently closed pull request.
	LatestChange string
	// Note mentions a past self-healing run. It is empty when there was none.
	Note string
}

// API is the part of the GitHub client the reader needs.
type API interface {
	Owner() string
	Repository(ctx context.Context, repo string) (*githubapi.Repository, error)
	GetFile(ctx context.Context, repo, path, ref string) (*githubapi.File, error)
	LatestClosedPullRequest(ctx context.Context, repo string) (*githubapi.PullRequest, error)
	FindPullRequest(ctx context.Context, repo, term string) (*githubapi.PullRequest, error)
}

// Reader builds RepositoryContexts.
type Reader struct {
	api       API
	tasksPath string
}

// NewReader returns a Reader that takes the ledger from tasksPath. An empty
// path means checklist.DefaultPath.
func NewReader(api API, tasksPath string) *Reader {
	if tasksPath == "" {
		tasksPath = checklist.DefaultPath
	}
	return &Reader{api: api, tasksPath: tasksPath}
}

// Get reads the context of repo. Every read is best effort: an absent or
// unreadable resource falls back to its default. The only error returned is
// the context's own, when it is cancelled mid-read.
func (r *Reader) Get(ctx context.Context, repo string) (*RepositoryContext, error) {
	rc := &RepositoryContext{
		Owner:        r.api.Owner(),
		Repository:   repo,
		Description:  DefaultDescription,
		LatestTask:   DefaultTask,
		LatestChange: DefaultChange,
	}

	f, err := r.api.GetFile(ctx, repo, r.tasksPath, "")
	if err := absorb(ctx, "checklist", err); err != nil {
		return nil, err
	}
	if f != nil {
		if task, ok := checklist.LatestCompleted(f.Content); ok {
			rc.LatestTask = task
		}
	}

	pr, err := r.api.LatestClosedPullRequest(ctx, repo)
	if err := absorb(ctx, "closed pull requests", err); err != nil {
		return nil, err
	}
	if pr != nil && pr.Title != "" {
		rc.LatestChange = pr.Title
	}

	recovery, err := r.api.FindPullRequest(ctx, repo, RecoveryTerm)
	if err := absorb(ctx, "recovery search", err); err != nil {
		return nil, err
	}
	if recovery != nil {
		rc.Note = fmt.Sprintf("Recovered automatically in #%d: %s", recovery.Number, recovery.Title)
	}

	meta, err := r.api.Repository(ctx, repo)
	if err := absorb(ctx, "repository metadata", err); err != nil {
		return nil, err
	}
	if meta != nil && meta.Description != "" {
		rc.Description = meta.Description
	}

	clog.FromContext(ctx).With("repo", repo).
		With("task", rc.LatestTask).
		With("change", rc.LatestChange).
		With("has_note", rc.Note != "").
		Info("Read repository context")
	return rc, nil
}

// absorb logs a failed read and swallows it, unless the failure is the
// context ending.
func absorb(ctx context.Context, what string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	log := clog.FromContext(ctx).With("read", what)
	if githubapi.IsNotFound(err) {
		log.Debug("Not found, using default")
		return nil
	}
	log.With("error", err).Warn("Read failed, using default")
	return nil
}
