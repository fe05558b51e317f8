/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package githubapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v84/github"
	"go.opentelemetry.io/otel/attribute"
)

// BranchHead returns the SHA of the commit branch points at.
func (c *Client) BranchHead(ctx context.Context, repo, branch string) (_ string, err error) {
	ctx, span := c.start(ctx, "get_ref", repo, attribute.String("github.ref", branch))
	defer func() { finish(span, err) }()

	ref, resp, err := c.gh.Git.GetRef(ctx, c.owner, repo, "heads/"+branch)
	if err != nil {
		return "", classify("get_ref", resp, err)
	}
	sha := ref.GetObject().GetSHA()
	if sha == "" {
		return "", &Error{Op: "get_ref", Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("ref heads/%s has no object", branch)}
	}
	return sha, nil
}

type createRefRequest struct {
	Ref string `json:"ref"`
	SHA string `json:"sha"`
}

// CreateBranch creates refs/heads/branch pointing at sha. An existing branch
// of the same name fails with IsAlreadyExists.
func (c *Client) CreateBranch(ctx context.Context, repo, branch, sha string) (err error) {
	ctx, span := c.start(ctx, "create_ref", repo, attribute.String("github.ref", branch))
	defer func() { finish(span, err) }()

	req, err := c.gh.NewRequest(http.MethodPost, fmt.Sprintf("repos/%s/%s/git/refs", c.owner, repo), &createRefRequest{
		Ref: "refs/heads/" + branch,
		SHA: sha,
	})
	if err != nil {
		return fmt.Errorf("building create ref request: %w", err)
	}

	resp, err := c.gh.Do(ctx, req, new(github.Reference))
	return classify("create_ref", resp, err)
}
