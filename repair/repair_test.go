/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package repair

import (
	"context"
	"math/rand/v2"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"testing"

	"github.com/ai-ulu/autopilot/githubapi"
	"github.com/ai-ulu/autopilot/githubapi/githubtest"
	"github.com/google/go-cmp/cmp"
)

const (
	artifactURL = "/repos/ai-ulu/demo/contents/tests/chaos_test.js"
	refsURL     = "/repos/ai-ulu/demo/git/refs"
)

func setup(t *testing.T) (*githubtest.Server, *githubapi.Client) {
	t.Helper()

	gh := githubtest.New(t, "ai-ulu")
	gh.AddRepo("demo", "main", "")
	client, err := githubapi.New(context.Background(), githubapi.Options{Owner: "ai-ulu", BaseURL: gh.URL})
	if err != nil {
		t.Fatalf("githubapi.New() = %v", err)
	}
	return gh, client
}

func newAgent(api API, seed uint64) *Agent {
	return New(api, WithRand(rand.New(rand.NewPCG(seed, seed))))
}

// drawnBranches returns the first n branch names an agent seeded with seed
// would draw.
func drawnBranches(seed uint64, n int) []string {
	a := newAgent(nil, seed)
	out := make([]string, 0, n)
	for range n {
		out = append(out, a.branchName())
	}
	return out
}

func TestBranchNameRange(t *testing.T) {
	a := newAgent(nil, 11)
	for range 1000 {
		name := a.branchName()
		suffix, ok := strings.CutPrefix(name, "fix/chaos-recovery-")
		if !ok {
			t.Fatalf("branch %q lacks the recovery prefix", name)
		}
		n, err := strconv.Atoi(suffix)
		if err != nil {
			t.Fatalf("branch suffix %q: %v", suffix, err)
		}
		if n < 1000 || n > 9999 {
			t.Errorf("branch suffix: got = %d, wanted = [1000, 9999]", n)
		}
	}
}

func TestHealNothingToRepair(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tasks.md", "- [ ] Add tests\n")

	out, err := newAgent(client, 1).Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}
	if diff := cmp.Diff(&Outcome{}, out); diff != "" {
		t.Errorf("Heal() mismatch (-want +got):\n%s", diff)
	}
	if w := gh.Writes(); len(w) != 0 {
		t.Errorf("writes: got = %v, wanted = none", w)
	}
	if diff := cmp.Diff([]string{"main"}, gh.Branches("demo")); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}
	if prs := gh.PullRequests("demo"); len(prs) != 0 {
		t.Errorf("pull requests: got = %d, wanted = 0", len(prs))
	}
}

// TestHeal verifies that every write targets the repair branch and that the
// outcome names the task it ticked.
func TestHeal(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "throw new Error('chaos')\n")
	gh.SetFile("demo", "main", "tasks.md", "- [x] Set up CI\n- [ ] Add tests\n- [ ] Ship\n")

	out, err := newAgent(client, 2).Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}

	branch := drawnBranches(2, 1)[0]
	if diff := cmp.Diff(&Outcome{
		Repaired:          true,
		Branch:            branch,
		PullRequestURL:    "https://github.com/ai-ulu/demo/pull/1",
		PullRequestNumber: 1,
		ChecklistAdvanced: true,
		CompletedTask:     "Add tests",
	}, out); diff != "" {
		t.Errorf("Heal() mismatch (-want +got):\n%s", diff)
	}

	if got := len(gh.WritesMatching(http.MethodPost, "/git/refs")); got != 1 {
		t.Errorf("branch creations: got = %d, wanted = 1", got)
	}
	if got := len(gh.WritesMatching(http.MethodDelete, "/contents/tests/chaos_test.js")); got != 1 {
		t.Errorf("artifact deletions: got = %d, wanted = 1", got)
	}
	if got := len(gh.WritesMatching(http.MethodPut, "/contents/tasks.md")); got > 1 {
		t.Errorf("checklist writes: got = %d, wanted <= 1", got)
	}
	for _, w := range gh.Writes() {
		if w.Branch != branch {
			t.Errorf("%s %s branch: got = %s, wanted = %s", w.Method, w.Path, w.Branch, branch)
		}
	}

	if _, ok := gh.File("demo", branch, "tests/chaos_test.js"); ok {
		t.Error("artifact still present on the repair branch")
	}
	if _, ok := gh.File("demo", "main", "tests/chaos_test.js"); !ok {
		t.Error("artifact removed from the default branch")
	}

	if got, want := fileOn(gh, branch, "tasks.md"), "- [x] Set up CI\n- [x] Add tests\n- [ ] Ship\n"; got != want {
		t.Errorf("branch tasks.md: got = %q, wanted = %q", got, want)
	}
	if got, want := fileOn(gh, "main", "tasks.md"), "- [x] Set up CI\n- [ ] Add tests\n- [ ] Ship\n"; got != want {
		t.Errorf("main tasks.md: got = %q, wanted = %q", got, want)
	}

	prs := gh.PullRequests("demo")
	if len(prs) != 1 {
		t.Fatalf("pull requests: got = %d, wanted = 1", len(prs))
	}
	got := githubtest.PullRequest{Title: prs[0].Title, Body: prs[0].Body, Head: prs[0].Head, Base: prs[0].Base}
	want := githubtest.PullRequest{
		Title: "🛡️ Autonomous Self-Healing: Chaos Recovery",
		Body:  "Autonomous repair and task update completed.",
		Head:  branch,
		Base:  "main",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("pull request mismatch (-want +got):\n%s", diff)
	}
}

func fileOn(gh *githubtest.Server, branch, path string) string {
	content, _ := gh.File("demo", branch, path)
	return content
}

func TestHealWithoutChecklist(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")

	out, err := newAgent(client, 3).Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}
	if !out.Repaired {
		t.Error("Repaired: got = false, wanted = true")
	}
	if out.ChecklistAdvanced || out.CompletedTask != "" {
		t.Errorf("checklist: got = %v, %q, wanted = false, \"\"", out.ChecklistAdvanced, out.CompletedTask)
	}
	if got := len(gh.WritesMatching(http.MethodPut, "/contents/tasks.md")); got != 0 {
		t.Errorf("checklist writes: got = %d, wanted = 0", got)
	}
	if got := len(gh.PullRequests("demo")); got != 1 {
		t.Errorf("pull requests: got = %d, wanted = 1", got)
	}
}

func TestHealChecklistFailureIsNotFatal(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.SetFile("demo", "main", "tasks.md", "- [ ] Add tests\n")
	gh.FailNext(http.MethodPut, "/repos/ai-ulu/demo/contents/tasks.md", http.StatusInternalServerError)

	out, err := newAgent(client, 4).Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}
	if out.ChecklistAdvanced || out.CompletedTask != "" {
		t.Errorf("checklist: got = %v, %q, wanted = false, \"\"", out.ChecklistAdvanced, out.CompletedTask)
	}
	if out.PullRequestURL == "" {
		t.Error("PullRequestURL: got = \"\", wanted = non-empty")
	}
}

func TestHealRedrawsTakenBranch(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.FailNext(http.MethodPost, refsURL, http.StatusUnprocessableEntity)

	out, err := newAgent(client, 5).Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}
	if got, want := out.Branch, drawnBranches(5, 2)[1]; got != want {
		t.Errorf("Branch: got = %s, wanted = %s", got, want)
	}
	if got := len(gh.WritesMatching(http.MethodPost, "/git/refs")); got != 1 {
		t.Errorf("branch creations: got = %d, wanted = 1", got)
	}
}

func TestHealGivesUpAfterSecondCollision(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.FailNext(http.MethodPost, refsURL, http.StatusUnprocessableEntity)
	gh.FailNext(http.MethodPost, refsURL, http.StatusUnprocessableEntity)

	out, err := newAgent(client, 6).Heal(context.Background(), "demo")
	if !githubapi.IsAlreadyExists(err) {
		t.Errorf("Heal() error: got = %v, wanted = already exists", err)
	}
	if out != nil {
		t.Errorf("Heal(): got = %+v, wanted = nil", out)
	}
	if w := gh.Writes(); len(w) != 0 {
		t.Errorf("writes: got = %v, wanted = none", w)
	}
}

func TestHealArtifactReadFailure(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.FailNext(http.MethodGet, artifactURL, http.StatusBadGateway)

	out, err := newAgent(client, 7).Heal(context.Background(), "demo")
	if got := githubapi.StatusCode(err); got != http.StatusBadGateway {
		t.Errorf("status: got = %d, wanted = %d (err %v)", got, http.StatusBadGateway, err)
	}
	if out != nil {
		t.Errorf("Heal(): got = %+v, wanted = nil", out)
	}
	if w := gh.Writes(); len(w) != 0 {
		t.Errorf("writes: got = %v, wanted = none", w)
	}
}

func TestHealDeleteFailureNamesBranch(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.FailNext(http.MethodDelete, artifactURL, http.StatusInternalServerError)

	out, err := newAgent(client, 8).Heal(context.Background(), "demo")
	if err == nil {
		t.Fatal("error: got = nil, wanted = non-nil")
	}

	branch := drawnBranches(8, 1)[0]
	if !strings.Contains(err.Error(), branch) {
		t.Errorf("error %q does not name branch %s", err, branch)
	}
	if out == nil || out.Branch != branch {
		t.Errorf("Outcome.Branch: got = %+v, wanted = %s", out, branch)
	}
	if !slices.Contains(gh.Branches("demo"), branch) {
		t.Errorf("branch %s was rolled back", branch)
	}
	if got := len(gh.PullRequests("demo")); got != 0 {
		t.Errorf("pull requests: got = %d, wanted = 0", got)
	}
}

func TestHealPullRequestFailureNamesBranch(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.FailNext(http.MethodPost, "/repos/ai-ulu/demo/pulls", http.StatusUnprocessableEntity)

	out, err := newAgent(client, 9).Heal(context.Background(), "demo")
	if err == nil {
		t.Fatal("error: got = nil, wanted = non-nil")
	}
	if out == nil {
		t.Fatal("Heal(): got = nil, wanted = partial outcome")
	}
	if !strings.Contains(err.Error(), out.Branch) {
		t.Errorf("error %q does not name branch %s", err, out.Branch)
	}
	if out.PullRequestURL != "" {
		t.Errorf("PullRequestURL: got = %s, wanted = \"\"", out.PullRequestURL)
	}
}

func TestHealCustomArtifact(t *testing.T) {
	gh, client := setup(t)
	gh.SetFile("demo", "main", "chaos/monkey.go", "package chaos")
	gh.SetFile("demo", "main", "tests/chaos_test.js", "chaos")
	gh.SetFile("demo", "main", "TODO.md", "- [ ] One\n")

	a := New(client, WithArtifactPath("chaos/monkey.go"), WithTasksPath("TODO.md"), WithRand(rand.New(rand.NewPCG(1, 2))))
	out, err := a.Heal(context.Background(), "demo")
	if err != nil {
		t.Fatalf("Heal() = %v", err)
	}
	if !out.ChecklistAdvanced || out.CompletedTask != "One" {
		t.Errorf("checklist: got = %v, %q, wanted = true, %q", out.ChecklistAdvanced, out.CompletedTask, "One")
	}

	if _, ok := gh.File("demo", out.Branch, "chaos/monkey.go"); ok {
		t.Error("custom artifact still present on the repair branch")
	}
	if _, ok := gh.File("demo", out.Branch, "tests/chaos_test.js"); !ok {
		t.Error("default artifact removed when a custom one was configured")
	}
	if got, want := fileOn(gh, out.Branch, "TODO.md"), "- [x] One\n"; got != want {
		t.Errorf("TODO.md: got = %q, wanted = %q", got, want)
	}
}
