/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the media agent. It turns a repository's recent
// progress into social-media copy, commits it for review and opens an
// approval issue.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ai-ulu/autopilot/content"
	"github.com/ai-ulu/autopilot/internal/agentcmd"
	"github.com/ai-ulu/autopilot/publisher"
	"github.com/ai-ulu/autopilot/repocontext"
	"github.com/ai-ulu/autopilot/report"
	"github.com/chainguard-dev/clog"
)

const name = "media-agent"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := agentcmd.Command(name, "Publish a progress post for a repository", run).Run(ctx, os.Args); err != nil {
		clog.FatalContextf(ctx, "%s: %v", name, err)
	}
}

func run(ctx context.Context, env *agentcmd.Env, repo string) (*agentcmd.Result, error) {
	cfg := env.Config

	templates, err := content.LoadTemplates(cfg.TemplatesFile)
	if err != nil {
		return nil, err
	}
	rng := cfg.Rand()

	rc, err := repocontext.NewReader(env.GitHub, cfg.TasksPath).Get(ctx, repo)
	if err != nil {
		return nil, err
	}

	generated, err := content.NewGenerator(content.WithTemplates(templates), content.WithRand(rng)).Generate(rc)
	if err != nil {
		return nil, fmt.Errorf("generating content: %w", err)
	}

	art, err := publisher.New(env.GitHub, publisher.WithOutputDir(cfg.OutputDir), publisher.WithRand(rng)).Publish(ctx, repo, generated)
	if err != nil {
		return nil, err
	}

	fmt.Fprintf(env.Out, "✅ Content saved and issue opened for %s\n", repo)
	return &agentcmd.Result{Outcome: "published", Summary: report.Media(repo, rc, art)}, nil
}
