/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/oauth2"
)

const tracerName = "github.com/ai-ulu/autopilot/githubapi"

// Options configures a Client.
type Options struct {
	// Token is the bearer credential. An empty token sends unauthenticated
	// requests, which GitHub rejects for anything but public reads.
	Token string
	// Owner is the organisation or user that owns every repository the
	// client touches.
	Owner string
	// BaseURL overrides the REST endpoint, e.g. for GitHub Enterprise or a
	// test server. Empty means https://api.github.com/.
	BaseURL string
	// Transport is the base round tripper. Nil means http.DefaultTransport.
	Transport http.RoundTripper
}

// Client issues GitHub REST calls for repositories of a single owner.
type Client struct {
	gh    *github.Client
	owner string
}

// New creates a Client from opts.
func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Owner == "" {
		return nil, errors.New("owner cannot be empty")
	}

	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	httpClient := &http.Client{Transport: transport}
	if opts.Token != "" {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, httpClient)
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: opts.Token}))
	}

	gh := github.NewClient(httpClient)
	if opts.BaseURL != "" {
		u, err := url.Parse(opts.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		gh.BaseURL = u
	}

	return &Client{gh: gh, owner: opts.Owner}, nil
}

// Owner returns the owner the client is scoped to.
func (c *Client) Owner() string {
	return c.owner
}

// FullName returns owner/repo.
func (c *Client) FullName(repo string) string {
	return c.owner + "/" + repo
}

func (c *Client) start(ctx context.Context, op, repo string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tr := otel.Tracer(tracerName, trace.WithInstrumentationVersion("1.0.0"))
	attrs = append(attrs,
		attribute.String("github.owner", c.owner),
		attribute.String("github.repo", repo),
	)
	return tr.Start(ctx, "github."+op, trace.WithAttributes(attrs...))
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
