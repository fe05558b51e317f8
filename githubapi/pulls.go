/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"context"
	"fmt"

	"github.com/chainguard-dev/clog"
	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/otel/attribute"
)

// PullRequest is the subset of pull request fields the agents use.
type PullRequest struct {
	Number int
	Title  string
	URL    string
	Head   string
}

// LatestClosedPullRequest returns the most recently updated closed pull
// request, or nil if the repository has none.
func (c *Client) LatestClosedPullRequest(ctx context.Context, repo string) (_ *PullRequest, err error) {
	ctx, span := c.start(ctx, "list_pulls", repo)
	defer func() { finish(span, err) }()

	prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, repo, &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "updated",
		Direction:   "desc",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, classify("list_pulls", resp, err)
	}
	if len(prs) == 0 {
		return nil, nil
	}

	pr := prs[0]
	return &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Head:   pr.GetHead().GetRef(),
	}, nil
}

// FindPullRequest searches for a pull request in repo whose title contains
// term, in any state. It returns nil when nothing matches.
func (c *Client) FindPullRequest(ctx context.Context, repo, term string) (_ *PullRequest, err error) {
	ctx, span := c.start(ctx, "search_pulls", repo, attribute.String("github.search_term", term))
	defer func() { finish(span, err) }()

	query := fmt.Sprintf("repo:%s is:pr in:title %q", c.FullName(repo), term)
	result, resp, err := c.gh.Search.Issues(ctx, query, &github.SearchOptions{
		Sort:        "updated",
		Order:       "desc",
		ListOptions: github.ListOptions{PerPage: 1},
	})
	if err != nil {
		return nil, classify("search_pulls", resp, err)
	}
	if len(result.Issues) == 0 {
		return nil, nil
	}

	clog.FromContext(ctx).With("query", query).Debugf("Search matched %d pull requests", result.GetTotal())
	issue := result.Issues[0]
	return &PullRequest{
		Number: issue.GetNumber(),
		Title:  issue.GetTitle(),
		URL:    issue.GetHTMLURL(),
	}, nil
}

// NewPullRequest describes a pull request to open.
type NewPullRequest struct {
	Title string
	Body  string
	Head  string
	Base  string
}

// CreatePullRequest opens a pull request.
func (c *Client) CreatePullRequest(ctx context.Context, repo string, npr NewPullRequest) (_ *PullRequest, err error) {
	ctx, span := c.start(ctx, "create_pull", repo, attribute.String("github.head", npr.Head), attribute.String("github.base", npr.Base))
	defer func() { finish(span, err) }()

	pr, resp, err := c.gh.PullRequests.Create(ctx, c.owner, repo, &github.NewPullRequest{
		Title: github.Ptr(npr.Title),
		Body:  github.Ptr(npr.Body),
		Head:  github.Ptr(npr.Head),
		Base:  github.Ptr(npr.Base),
	})
	if err != nil {
		return nil, classify("create_pull", resp, err)
	}
	return &PullRequest{
		Number: pr.GetNumber(),
		Title:  pr.GetTitle(),
		URL:    pr.GetHTMLURL(),
		Head:   pr.GetHead().GetRef(),
	}, nil
}
