/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package publisher commits generated content to a repository and opens an
// issue asking a human to review it.
package publisher

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"time"

	"github.com/ai-ulu/autopilot/content"
	"github.com/ai-ulu/autopilot/content/placeholder"
	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/ai-ulu/autopilot/retry"
	"github.com/chainguard-dev/clog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultOutputDir is where documents are committed.
const DefaultOutputDir = "marketing/outputs"

const (
	commitMessage = "📣 Media Agent: Generated marketing content"
	issueTitle    = "📢 Content Approval Required: "
	issueBody     = "The Media Agent has generated new content for review.\n\nView it here: %s\n\nClose this issue to mark as 'Published'."

	headingLayout = "2006-01-02 15:04"
	fileLayout    = "20060102_1504"
)

var document = placeholder.Must(placeholder.New("# Marketing Content - {{date}}\n" +
	"\n" +
	"## LinkedIn\n" +
	"{{long_form}}\n" +
	"\n" +
	"---\n" +
	"## X (Twitter)\n" +
	"{{short_form}}\n" +
	"\n" +
	"---\n" +
	"## Dashboard Data\n" +
	"```json\n" +
	"{{dashboard}}\n" +
	"```\n"))

// Artifact describes a published document and its review issue.
type Artifact struct {
	Path        string
	CommitSHA   string
	IssueNumber int
	IssueURL    string
}

// API is the part of the GitHub client the publisher needs.
type API interface {
	Repository(ctx context.Context, repo string) (*githubapi.Repository, error)
	PutFile(ctx context.Context, repo string, change githubapi.FileChange) (string, error)
	CreateIssue(ctx context.Context, repo, title, body string) (*githubapi.Issue, error)
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithOutputDir sets the directory documents are committed under.
func WithOutputDir(dir string) Option {
	return func(p *Publisher) {
		if dir != "" {
			p.dir = dir
		}
	}
}

// WithClock sets the clock used for the document name, heading and issue
// title.
func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		p.now = now
	}
}

// WithRand sets the random source for document name suffixes.
func WithRand(r *rand.Rand) Option {
	return func(p *Publisher) {
		p.rng = r
	}
}

// Publisher writes generated content to a repository's default branch.
type Publisher struct {
	api   API
	dir   string
	now   func() time.Time
	rng   *rand.Rand
	retry retry.Config
}

// New returns a Publisher backed by api.
func New(api API, opts ...Option) *Publisher {
	p := &Publisher{
		api:   api,
		dir:   DefaultOutputDir,
		now:   time.Now,
		retry: retry.Once(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.rng == nil {
		seed := uint64(time.Now().UnixNano())
		p.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return p
}

// Render formats g as the Markdown document committed for review. The
// heading carries t at minute resolution.
func Render(t time.Time, g *content.Generated) (string, error) {
	doc, err := document.BindStrings(map[string]string{
		"date":       t.Format(headingLayout),
		"long_form":  g.LongForm,
		"short_form": g.ShortForm,
	})
	if err != nil {
		return "", err
	}
	if doc, err = doc.BindJSON("dashboard", g.Status); err != nil {
		return "", err
	}
	return doc.Build()
}

// path names a new document. Runs in the same minute are told apart by a
// random six-digit hex suffix.
func (p *Publisher) path(t time.Time) string {
	return path.Join(p.dir, fmt.Sprintf("post_%s_%06x.md", t.Format(fileLayout), p.rng.IntN(1<<24)))
}

// Publish commits the rendered document to the default branch of repo and
// opens a review issue pointing at it. The document is only ever created,
// never overwritten: if the drawn name is taken a new one is drawn once.
// No issue is opened when the commit fails.
func (p *Publisher) Publish(ctx context.Context, repo string, g *content.Generated) (_ *Artifact, err error) {
	ctx, span := otel.Tracer("github.com/ai-ulu/autopilot/publisher").Start(ctx, "publisher.publish",
		trace.WithAttributes(attribute.String("github.repo", repo)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	now := p.now()
	body, err := Render(now, g)
	if err != nil {
		return nil, fmt.Errorf("rendering document: %w", err)
	}

	info, err := p.api.Repository(ctx, repo)
	if err != nil {
		return nil, fmt.Errorf("resolving default branch: %w", err)
	}

	art, err := retry.Do(ctx, p.retry, "commit document", githubapi.IsAlreadyExists, func(int) (*Artifact, error) {
		docPath := p.path(now)
		sha, err := p.api.PutFile(ctx, repo, githubapi.FileChange{
			Path:    docPath,
			Branch:  info.DefaultBranch,
			Message: commitMessage,
			Content: []byte(body),
		})
		if err != nil {
			return nil, fmt.Errorf("committing %s: %w", docPath, err)
		}
		return &Artifact{Path: docPath, CommitSHA: sha}, nil
	})
	if err != nil {
		return nil, err
	}

	log := clog.FromContext(ctx).With("repo", repo).With("path", art.Path)
	log.Info("Committed document")

	issue, err := p.api.CreateIssue(ctx, repo, issueTitle+now.Format(headingLayout), fmt.Sprintf(issueBody, art.Path))
	if err != nil {
		return art, fmt.Errorf("opening review issue for %s: %w", art.Path, err)
	}
	art.IssueNumber = issue.Number
	art.IssueURL = issue.URL

	log.With("issue", issue.Number).Info("Opened review issue")
	return art, nil
}
