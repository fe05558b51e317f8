/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/ai-ulu/autopilot/githubapi/githubtest"
	"github.com/ai-ulu/autopilot/internal/agentcmd"
)

func TestMediaAgent(t *testing.T) {
	gh := githubtest.New(t, "ai-ulu")
	gh.AddRepo("demo", "main", "Autonomous QA pilot")
	gh.SetFile("demo", "main", "tasks.md", "- [x] Set up CI\n- [ ] Add tests\n")
	gh.AddPullRequest("demo", githubtest.PullRequest{Title: "Add integration tests", State: "closed", Head: "feature", Base: "main"})

	t.Setenv("GITHUB_TOKEN", "test-token")
	t.Setenv("GITHUB_ORG", "ai-ulu")
	t.Setenv("GITHUB_API_URL", gh.URL)
	t.Setenv("AUTOPILOT_SEED", "42")
	t.Setenv("METRICS_TEXTFILE", "")
	t.Setenv("TEMPLATES_FILE", "")

	var stdout, stderr bytes.Buffer
	cmd := agentcmd.Command(name, "", run)
	cmd.Writer = &stdout
	cmd.ErrWriter = &stderr
	if err := cmd.Run(context.Background(), []string{name, "demo"}); err != nil {
		t.Fatalf("Run() = %v (stderr %q)", err, stderr.String())
	}
	if got, want := stdout.String(), "✅ Content saved and issue opened for demo\n"; got != want {
		t.Errorf("stdout: got = %q, wanted = %q", got, want)
	}

	var docs []string
	for _, p := range gh.Files("demo", "main") {
		if strings.HasPrefix(p, "marketing/outputs/post_") {
			docs = append(docs, p)
		}
	}
	if len(docs) != 1 {
		t.Fatalf("published documents: got = %v, wanted exactly one", docs)
	}

	doc, _ := gh.File("demo", "main", docs[0])
	for _, want := range []string{"demo", "Set up CI", `"title": "demo Progress Update"`} {
		if !strings.Contains(doc, want) {
			t.Errorf("document missing %q:\n%s", want, doc)
		}
	}

	issues := gh.Issues("demo")
	if len(issues) != 1 {
		t.Fatalf("issues: got = %d, wanted = 1", len(issues))
	}
	if !strings.Contains(issues[0].Body, docs[0]) {
		t.Errorf("issue body: got = %q, wanted to reference %s", issues[0].Body, docs[0])
	}
}
