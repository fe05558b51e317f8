/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"context"

	"github.com/google/go-github/v84/github"
)

// Issue identifies an issue that was opened.
type Issue struct {
	Number int
	URL    string
}

// CreateIssue opens an issue in repo.
func (c *Client) CreateIssue(ctx context.Context, repo, title, body string) (_ *Issue, err error) {
	ctx, span := c.start(ctx, "create_issue", repo)
	defer func() { finish(span, err) }()

	issue, resp, err := c.gh.Issues.Create(ctx, c.owner, repo, &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	})
	if err != nil {
		return nil, classify("create_issue", resp, err)
	}
	return &Issue{Number: issue.GetNumber(), URL: issue.GetHTMLURL()}, nil
}
