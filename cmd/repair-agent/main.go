/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package main implements the repair agent. It removes the designated test
// artifact from a repository through a recovery pull request.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ai-ulu/autopilot/internal/agentcmd"
	"github.com/ai-ulu/autopilot/repair"
	"github.com/ai-ulu/autopilot/report"
	"github.com/chainguard-dev/clog"
)

const name = "repair-agent"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := agentcmd.Command(name, "Repair a repository through a recovery pull request", run).Run(ctx, os.Args); err != nil {
		clog.FatalContextf(ctx, "%s: %v", name, err)
	}
}

func run(ctx context.Context, env *agentcmd.Env, repo string) (*agentcmd.Result, error) {
	cfg := env.Config
	fmt.Fprintf(env.Out, "🤖 Agentic Repair initiated for %s...\n", repo)

	agent := repair.New(env.GitHub,
		repair.WithArtifactPath(cfg.ArtifactPath),
		repair.WithTasksPath(cfg.TasksPath),
		repair.WithRand(cfg.Rand()),
	)
	out, err := agent.Heal(ctx, repo)
	if err != nil {
		return nil, err
	}

	if !out.Repaired {
		fmt.Fprintln(env.Out, "🤷 No chaos file found, nothing to repair.")
		return &agentcmd.Result{Outcome: "nothing_to_repair", Summary: report.Repair(repo, out)}, nil
	}
	if out.ChecklistAdvanced {
		fmt.Fprintf(env.Out, "📝 Updated %s in %s: %s\n", cfg.TasksPath, repo, out.CompletedTask)
	}
	fmt.Fprintf(env.Out, "✅ Recovery PR opened: %s\n", out.PullRequestURL)
	return &agentcmd.Result{Outcome: "repaired", Summary: report.Repair(repo, out)}, nil
}
