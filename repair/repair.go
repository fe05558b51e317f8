/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package repair removes a designated test artifact from a repository
// through a pull request, ticking the next open task of the ledger on the
// way.
//
// A repair never writes to the default branch. It branches from the
// default branch head, deletes the artifact and advances the ledger on the
// new branch, then asks for review with a pull request. Nothing is rolled
// back on failure; a failed run may leave its branch behind, and the error
// names it.
package repair

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/ai-ulu/autopilot/checklist"
	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/ai-ulu/autopilot/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultArtifactPath is the file a repair removes.
const DefaultArtifactPath = "tests/chaos_test.js"

const (
	branchPrefix  = "fix/chaos-recovery-"
	deleteMessage = "🛠️ Autonomous Repair"
	prTitle       = "🛡️ Autonomous Self-Healing: Chaos Recovery"
	prBody        = "Autonomous repair and task update completed."
)

// Outcome reports what a repair did.
type Outcome struct {
	// Repaired is false when there was nothing to repair.
	Repaired bool
	// Branch is the repair branch, set once it was created.
	Branch            string
	PullRequestURL    string
	PullRequestNumber int
	// ChecklistAdvanced reports whether an open task was ticked.
	ChecklistAdvanced bool
	// CompletedTask is the text of the ticked task.
	CompletedTask string
}

// API is the part of the GitHub client a repair needs.
type API interface {
	checklist.Files
	Repository(ctx context.Context, repo string) (*githubapi.Repository, error)
	BranchHead(ctx context.Context, repo, branch string) (string, error)
	CreateBranch(ctx context.Context, repo, branch, sha string) error
	DeleteFile(ctx context.Context, repo string, change githubapi.FileChange) (string, error)
	CreatePullRequest(ctx context.Context, repo string, npr githubapi.NewPullRequest) (*githubapi.PullRequest, error)
}

// Option configures an Agent.
type Option func(*Agent)

// WithArtifactPath sets the file to remove.
func WithArtifactPath(path string) Option {
	return func(a *Agent) {
		if path != "" {
			a.artifact = path
		}
	}
}

// WithTasksPath sets the ledger document advanced on the repair branch.
func WithTasksPath(path string) Option {
	return func(a *Agent) {
		a.tasksPath = path
	}
}

// WithRand sets the random source for branch names.
func WithRand(r *rand.Rand) Option {
	return func(a *Agent) {
		a.rng = r
	}
}

// Agent performs repairs.
type Agent struct {
	api       API
	ledger    *checklist.Ledger
	artifact  string
	tasksPath string
	rng       *rand.Rand
	retry     retry.Config
}

// New returns an Agent backed by api.
func New(api API, opts ...Option) *Agent {
	a := &Agent{
		api:      api,
		artifact: DefaultArtifactPath,
		retry:    retry.Once(),
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.rng == nil {
		seed := uint64(time.Now().UnixNano())
		a.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	a.ledger = checklist.NewLedger(api, a.tasksPath)
	return a
}

// branchName draws a name in fix/chaos-recovery-1000 through -9999.
func (a *Agent) branchName() string {
	return fmt.Sprintf("%s%d", branchPrefix, 1000+a.rng.IntN(9000))
}

// Heal repairs repo. When the artifact is absent it reports Repaired false
// and makes no write.
//
// Once the repair branch exists the returned Outcome is non-nil even on
// error, and carries the branch name.
func (a *Agent) Heal(ctx context.Context, repo string) (_ *Outcome, err error) {
	ctx, span := otel.Tracer("github.com/ai-ulu/autopilot/repair").Start(ctx, "repair.heal",
		trace.WithAttributes(attribute.String("github.repo", repo), attribute.String("repair.artifact", a.artifact)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	log := clog.FromContext(ctx).With("repo", repo).With("artifact", a.artifact)

	artifact, err := a.api.GetFile(ctx, repo, a.artifact, "")
	switch {
	case githubapi.IsNotFound(err):
		log.Info("No artifact found, nothing to repair")
		return &Outcome{}, nil
	case err != nil:
		return nil, fmt.Errorf("reading %s: %w", a.artifact, err)
	}

	info, err := a.api.Repository(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("resolving default branch: %w", err)
	}
	head, err := a.api.BranchHead(ctx, repo, info.DefaultBranch)
	if err != nil {
		return nil, fmt.Errorf("resolving head of %s: %w", info.DefaultBranch, err)
	}

	branch, err := retry.Do(ctx, a.retry, "create branch", githubapi.IsAlreadyExists, func(int) (string, error) {
		name := a.branchName()
		if err := a.api.CreateBranch(ctx, repo, name, head); err != nil {
			return "", fmt.Errorf("creating branch %s: %w", name, err)
		}
		return name, nil
	})
	if err != nil {
		return nil, err
	}
	log = log.With("branch", branch)
	log.Info("Created repair branch")
	span.SetAttributes(attribute.String("repair.branch", branch))

	out := &Outcome{Repaired: true, Branch: branch}

	if _, err := a.api.DeleteFile(ctx, repo, githubapi.FileChange{
		Path:    a.artifact,
		Branch:  branch,
		Message: deleteMessage,
		SHA:     artifact.SHA,
	}); err != nil {
		return out, fmt.Errorf("deleting %s on branch %s (branch left in place): %w", a.artifact, branch, err)
	}
	log.Info("Deleted artifact")

	task, advanced, err := a.ledger.Advance(ctx, repo, branch)
	if err != nil {
		log.With("error", err.Error()).Warn("Could not advance checklist, continuing without it")
	}
	out.ChecklistAdvanced, out.CompletedTask = advanced, task

	pr, err := a.api.CreatePullRequest(ctx, repo, githubapi.NewPullRequest{
		Title: prTitle,
		Body:  prBody,
		Head:  branch,
		Base:  info.DefaultBranch,
	})
	if err != nil {
		return out, fmt.Errorf("opening pull request for branch %s (branch left in place): %w", branch, err)
	}
	out.PullRequestNumber = pr.Number
	out.PullRequestURL = pr.URL

	log.With("pull_request", pr.Number).Info("Opened recovery pull request")
	return out, nil
}
