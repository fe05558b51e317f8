/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package config reads the agents' settings from the environment.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/sethvargo/go-envconfig"
)

// Config holds every setting an agent run needs. Build it once with Load
// and pass it down.
type Config struct {
	// Token is the GitHub bearer credential. It is optional so public
	// repositories can be read without one.
	Token  string `env:"GITHUB_TOKEN"`
	Org    string `env:"GITHUB_ORG,default=ai-ulu"`
	APIURL string `env:"GITHUB_API_URL,default=https://api.github.com/"`

	TasksPath     string `env:"TASKS_PATH,default=tasks.md"`
	ArtifactPath  string `env:"ARTIFACT_PATH,default=tests/chaos_test.js"`
	OutputDir     string `env:"OUTPUT_DIR,default=marketing/outputs"`
	TemplatesFile string `env:"TEMPLATES_FILE"`

	// Seed fixes the random source. Zero seeds from the clock.
	Seed uint64 `env:"AUTOPILOT_SEED,default=0"`

	// MetricsTextfile, when set, receives the run's metrics in the
	// Prometheus text format.
	MetricsTextfile string `env:"METRICS_TEXTFILE"`

	LogLevel slog.Level `env:"LOG_LEVEL,default=info"`
}

// Load reads Config from the process environment.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: l,
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that have no usable zero value.
func (c *Config) Validate() error {
	var errs []error
	if c.Org == "" {
		errs = append(errs, errors.New("GITHUB_ORG cannot be empty"))
	}
	if c.APIURL == "" {
		errs = append(errs, errors.New("GITHUB_API_URL cannot be empty"))
	}
	for _, path := range []struct{ name, value string }{
		{"TASKS_PATH", c.TasksPath},
		{"ARTIFACT_PATH", c.ArtifactPath},
		{"OUTPUT_DIR", c.OutputDir},
	} {
		if path.value == "" {
			errs = append(errs, fmt.Errorf("%s cannot be empty", path.name))
		}
	}
	return errors.Join(errs...)
}

// Rand returns the run's random source.
func (c *Config) Rand() *rand.Rand {
	seed := c.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed))
}

// GitHub returns a client for the configured organisation sending requests
// through transport.
func (c *Config) GitHub(ctx context.Context, transport http.RoundTripper) (*githubapi.Client, error) {
	return githubapi.New(ctx, githubapi.Options{
		Token:     c.Token,
		Owner:     c.Org,
		BaseURL:   c.APIURL,
		Transport: transport,
	})
}
