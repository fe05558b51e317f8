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

// fallbackBranch is used when repository metadata omits the default branch.
const fallbackBranch = "main"

// Repository is the subset of repository metadata the agents read.
type Repository struct {
	Name          string
	DefaultBranch string
	Description   string
}

// Repository reads repository metadata.
func (c *Client) Repository(ctx context.Context, repo string) (_ *Repository, err error) {
	ctx, span := c.start(ctx, "get_repository", repo)
	defer func() { finish(span, err) }()

	r, resp, err := c.gh.Repositories.Get(ctx, c.owner, repo)
	if err != nil {
		return nil, classify("get_repository", resp, err)
	}

	branch := r.GetDefaultBranch()
	if branch == "" {
		clog.FromContext(ctx).With("repo", repo).Warnf("No default branch reported, assuming %s", fallbackBranch)
		branch = fallbackBranch
	}
	return &Repository{
		Name:          r.GetName(),
		DefaultBranch: branch,
		Description:   r.GetDescription(),
	}, nil
}

// File is a decoded file and its version token.
type File struct {
	Path string
	// SHA is the blob SHA, used as the precondition for later writes.
	SHA     string
	Content string
}

// GetFile reads path from repo at ref. An empty ref reads the default branch.
func (c *Client) GetFile(ctx context.Context, repo, path, ref string) (_ *File, err error) {
	ctx, span := c.start(ctx, "get_file", repo, attribute.String("github.path", path), attribute.String("github.ref", ref))
	defer func() { finish(span, err) }()

	var opts *github.RepositoryContentGetOptions
	if ref != "" {
		opts = &github.RepositoryContentGetOptions{Ref: ref}
	}

	fc, _, resp, err := c.gh.Repositories.GetContents(ctx, c.owner, repo, path, opts)
	if err != nil {
		return nil, classify("get_file", resp, err)
	}
	if fc == nil {
		return nil, &Error{Op: "get_file", Kind: KindDecode, StatusCode: resp.StatusCode, Err: fmt.Errorf("%s is a directory", path)}
	}

	content, err := fc.GetContent()
	if err != nil {
		return nil, &Error{Op: "get_file", Kind: KindDecode, StatusCode: resp.StatusCode, Err: err}
	}
	return &File{
		Path:    fc.GetPath(),
		SHA:     fc.GetSHA(),
		Content: content,
	}, nil
}

// FileChange describes a write to a single file.
type FileChange struct {
	Path    string
	Branch  string
	Message string
	Content []byte
	// SHA is the version token of the file being replaced or deleted. It is
	// empty when creating a file.
	SHA string
}

// PutFile creates or updates a file and returns the resulting commit SHA.
// A change without a SHA creates the file and fails if it exists.
func (c *Client) PutFile(ctx context.Context, repo string, change FileChange) (_ string, err error) {
	ctx, span := c.start(ctx, "put_file", repo, attribute.String("github.path", change.Path), attribute.String("github.ref", change.Branch))
	defer func() { finish(span, err) }()

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(change.Message),
		Content: change.Content,
	}
	if change.Branch != "" {
		opts.Branch = github.Ptr(change.Branch)
	}

	var (
		res  *github.RepositoryContentResponse
		resp *github.Response
	)
	if change.SHA == "" {
		res, resp, err = c.gh.Repositories.CreateFile(ctx, c.owner, repo, change.Path, opts)
	} else {
		opts.SHA = github.Ptr(change.SHA)
		res, resp, err = c.gh.Repositories.UpdateFile(ctx, c.owner, repo, change.Path, opts)
	}
	if err != nil {
		return "", classify("put_file", resp, err)
	}

	clog.FromContext(ctx).With("repo", repo).With("path", change.Path).Debugf("Wrote file at commit %s", res.Commit.GetSHA())
	return res.Commit.GetSHA(), nil
}

// DeleteFile removes a file and returns the resulting commit SHA. The
// change must carry the file's current SHA.
func (c *Client) DeleteFile(ctx context.Context, repo string, change FileChange) (_ string, err error) {
	ctx, span := c.start(ctx, "delete_file", repo, attribute.String("github.path", change.Path), attribute.String("github.ref", change.Branch))
	defer func() { finish(span, err) }()

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(change.Message),
		SHA:     github.Ptr(change.SHA),
	}
	if change.Branch != "" {
		opts.Branch = github.Ptr(change.Branch)
	}

	res, resp, err := c.gh.Repositories.DeleteFile(ctx, c.owner, repo, change.Path, opts)
	if err != nil {
		return "", classify("delete_file", resp, err)
	}
	return res.Commit.GetSHA(), nil
}
