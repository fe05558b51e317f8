/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package content turns a repository context into social-media copy.
package content

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/ai-ulu/autopilot/content/placeholder"
	"github.com/ai-ulu/autopilot/repocontext"
)

// Status is the structured record shown on the progress dashboard.
type Status struct {
	Title     string `json:"title"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// Generated is one run's worth of copy.
type Generated struct {
	// LongForm is the LinkedIn post.
	LongForm string
	// ShortForm is the X (Twitter) post.
	ShortForm string
	Status    Status
}

// Option configures a Generator.
type Option func(*Generator)

// WithRand sets the random source used to pick variants.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) {
		g.rng = r
	}
}

// WithClock sets the clock used for the status timestamp.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// WithTemplates replaces the built-in variants.
func WithTemplates(t *Templates) Option {
	return func(g *Generator) {
		g.templates = t
	}
}

// Generator fills templates from a RepositoryContext.
type Generator struct {
	templates *Templates
	rng       *rand.Rand
	now       func() time.Time
}

// NewGenerator returns a Generator using the built-in variants, a
// time-seeded random source and the local clock unless overridden.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{now: time.Now}
	for _, opt := range opts {
		opt(g)
	}
	if g.templates == nil {
		g.templates = DefaultTemplates()
	}
	if g.rng == nil {
		seed := uint64(time.Now().UnixNano())
		g.rng = rand.New(rand.NewPCG(seed, seed>>1))
	}
	return g
}

// Generate picks one variant per channel uniformly at random and fills it
// with rc's values verbatim.
func (g *Generator) Generate(rc *repocontext.RepositoryContext) (*Generated, error) {
	values := map[string]string{
		KeyRepo:        rc.Repository,
		KeyOwner:       rc.Owner,
		KeyTask:        rc.LatestTask,
		KeyChange:      rc.LatestChange,
		KeyDescription: rc.Description,
		KeyNote:        rc.Note,
	}

	longForm, err := g.render(g.templates.LongForm, values)
	if err != nil {
		return nil, fmt.Errorf("rendering long form: %w", err)
	}
	shortForm, err := g.render(g.templates.ShortForm, values)
	if err != nil {
		return nil, fmt.Errorf("rendering short form: %w", err)
	}

	message := "Successfully completed: " + rc.LatestTask
	if rc.Note != "" {
		message += " (" + rc.Note + ")"
	}

	return &Generated{
		LongForm:  longForm,
		ShortForm: shortForm,
		Status: Status{
			Title:     rc.Repository + " Progress Update",
			Message:   message,
			Timestamp: g.now().Format(time.RFC3339),
		},
	}, nil
}

func (g *Generator) render(variants []*placeholder.Template, values map[string]string) (string, error) {
	if len(variants) == 0 {
		return "", errors.New("no variants")
	}
	t, err := variants[g.rng.IntN(len(variants))].BindStrings(values)
	if err != nil {
		return "", err
	}
	text, err := t.Build()
	if err != nil {
		return "", err
	}
	// An empty optional placeholder leaves no trailing blanks behind.
	var b strings.Builder
	for line := range strings.Lines(text) {
		body, nl := strings.CutSuffix(line, "\n")
		b.WriteString(strings.TrimRight(body, " \t"))
		if nl {
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
