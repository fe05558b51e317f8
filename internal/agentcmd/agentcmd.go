/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package agentcmd builds the command-line entry point shared by the agents.
//
// Each agent is a single command taking the repository short name as its
// only argument. The command reads configuration from the environment, sets
// up logging and metrics, builds the GitHub client and hands them to the
// agent's run function. Without an argument it prints usage and does
// nothing else.
package agentcmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/ai-ulu/autopilot/config"
	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/ai-ulu/autopilot/metrics"
	"github.com/ai-ulu/autopilot/report"
	"github.com/chainguard-dev/clog"
	"github.com/urfave/cli/v3"
)

// Env is what a run function gets to work with.
type Env struct {
	Config  *config.Config
	GitHub  *githubapi.Client
	Metrics *metrics.Metrics
	// Out receives the human-readable status lines.
	Out io.Writer
}

// Result is what a run function reports back.
type Result struct {
	// Outcome labels the run in the runs metric, e.g. "published".
	Outcome string
	Summary *report.Summary
}

// RunFunc performs one agent run against repo.
type RunFunc func(ctx context.Context, env *Env, repo string) (*Result, error)

// Command returns the cli command for the agent called name.
func Command(name, usage string, run RunFunc) *cli.Command {
	var summary bool
	return &cli.Command{
		Name:      name,
		Usage:     usage,
		UsageText: name + " [options] <repo_name>",
		ArgsUsage: "<repo_name>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "summary",
				Usage:       "print a Markdown summary table after the run",
				Sources:     cli.EnvVars("AUTOPILOT_SUMMARY"),
				Destination: &summary,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := cmd.Root().Writer
			repo := cmd.Args().First()
			if repo == "" {
				fmt.Fprintf(out, "Usage: %s <repo_name>\n", name)
				return nil
			}

			cfg, err := config.Load(ctx)
			if err != nil {
				return err
			}

			logger := clog.New(slog.NewTextHandler(cmd.Root().ErrWriter, &slog.HandlerOptions{Level: cfg.LogLevel}))
			ctx = clog.WithLogger(ctx, logger.With("agent", name).With("repo", repo))
			if cfg.Token == "" {
				clog.WarnContextf(ctx, "GITHUB_TOKEN is not set, requests are unauthenticated")
			}

			m := metrics.New()
			gh, err := cfg.GitHub(ctx, m.Transport(http.DefaultTransport))
			if err != nil {
				return fmt.Errorf("creating GitHub client: %w", err)
			}

			res, err := run(ctx, &Env{Config: cfg, GitHub: gh, Metrics: m, Out: out}, repo)
			outcome := "error"
			if err == nil {
				outcome = res.Outcome
			}
			m.RecordRun(name, outcome)
			if werr := m.WriteTextfile(cfg.MetricsTextfile); werr != nil {
				clog.WarnContextf(ctx, "Writing metrics to %s: %v", cfg.MetricsTextfile, werr)
			}
			if err != nil {
				return err
			}

			if summary && res.Summary != nil {
				fmt.Fprintln(out)
				return res.Summary.Render(out)
			}
			return nil
		},
	}
}
