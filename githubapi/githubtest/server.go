/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package githubtest provides an in-memory GitHub REST server for tests.
//
// The server implements the endpoints the agents call (repository metadata,
// contents, git refs, pulls, issues and issue search) over a small model of
// repositories with branches of files. Every mutating request is recorded so
// tests can assert exactly which writes a run performed.
package githubtest

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"strconv"
	"strings"
	"sync"
	"testing"
)

// Write records one mutating request.
type Write struct {
	Method string
	Path   string
	// Branch is the branch the write targeted, when it targeted one.
	Branch string
}

// PullRequest is a pull request held by the server.
type PullRequest struct {
	Number int
	Title  string
	Body   string
	State  string
	Head   string
	Base   string
}

// Issue is an issue held by the server.
type Issue struct {
	Number int
	Title  string
	Body   string
}

type branch struct {
	head  string
	files map[string]string
}

type repository struct {
	description   string
	defaultBranch string
	branches      map[string]*branch
	pulls         []*PullRequest
	issues        []*Issue
	nextNumber    int
}

type fault struct {
	method string
	path   string
	status int
}

// Server is a fake GitHub API. Create one with New.
type Server struct {
	*httptest.Server

	owner string

	mu      sync.Mutex
	repos   map[string]*repository
	writes  []Write
	faults  []fault
	commits int
}

// New starts a server for owner. It is closed when the test ends.
func New(t testing.TB, owner string) *Server {
	t.Helper()

	s := &Server{
		owner: owner,
		repos: make(map[string]*repository),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /repos/{owner}/{repo}", s.getRepository)
	mux.HandleFunc("GET /repos/{owner}/{repo}/contents/{path...}", s.getContents)
	mux.HandleFunc("PUT /repos/{owner}/{repo}/contents/{path...}", s.putContents)
	mux.HandleFunc("DELETE /repos/{owner}/{repo}/contents/{path...}", s.deleteContents)
	mux.HandleFunc("GET /repos/{owner}/{repo}/git/ref/{ref...}", s.getRef)
	mux.HandleFunc("POST /repos/{owner}/{repo}/git/refs", s.createRef)
	mux.HandleFunc("GET /repos/{owner}/{repo}/pulls", s.listPulls)
	mux.HandleFunc("POST /repos/{owner}/{repo}/pulls", s.createPull)
	mux.HandleFunc("POST /repos/{owner}/{repo}/issues", s.createIssue)
	mux.HandleFunc("GET /search/issues", s.searchIssues)

	s.Server = httptest.NewServer(s.injectFaults(mux))
	t.Cleanup(s.Close)
	return s
}

// AddRepo registers an empty repository whose default branch is
// defaultBranch.
func (s *Server) AddRepo(name, defaultBranch, description string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.repos[name] = &repository{
		description:   description,
		defaultBranch: defaultBranch,
		branches: map[string]*branch{
			defaultBranch: {head: s.nextCommitLocked(), files: make(map[string]string)},
		},
		nextNumber: 1,
	}
}

// SetFile places a file on a branch without recording a write.
func (s *Server) SetFile(repo, branchName, path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.repos[repo].branches[branchName]
	b.files[path] = content
	b.head = s.nextCommitLocked()
}

// AddPullRequest registers an existing pull request and returns its number.
func (s *Server) AddPullRequest(repo string, pr PullRequest) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := s.repos[repo]
	pr.Number = r.nextNumber
	r.nextNumber++
	if pr.State == "" {
		pr.State = "open"
	}
	r.pulls = append(r.pulls, &pr)
	return pr.Number
}

// FailNext makes the next request matching method and URL path fail with
// status. Faults queue up and are consumed in order.
func (s *Server) FailNext(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, fault{method: method, path: path, status: status})
}

// File returns a file's content on a branch.
func (s *Server) File(repo, branchName, path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.repos[repo].branches[branchName]
	if !ok {
		return "", false
	}
	content, ok := b.files[path]
	return content, ok
}

// Files returns the paths present on a branch, sorted.
func (s *Server) Files(repo, branchName string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.repos[repo].branches[branchName]
	if !ok {
		return nil
	}
	paths := make([]string, 0, len(b.files))
	for p := range b.files {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Branches returns the branch names of repo, sorted.
func (s *Server) Branches(repo string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.repos[repo].branches))
	for name := range s.repos[repo].branches {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// PullRequests returns copies of the pull requests of repo.
func (s *Server) PullRequests(repo string) []PullRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]PullRequest, 0, len(s.repos[repo].pulls))
	for _, pr := range s.repos[repo].pulls {
		out = append(out, *pr)
	}
	return out
}

// Issues returns copies of the issues of repo.
func (s *Server) Issues(repo string) []Issue {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Issue, 0, len(s.repos[repo].issues))
	for _, issue := range s.repos[repo].issues {
		out = append(out, *issue)
	}
	return out
}

// Writes returns every mutating request served so far.
func (s *Server) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.writes)
}

// WritesMatching returns the recorded writes with the given method whose
// path has the given suffix.
func (s *Server) WritesMatching(method, pathSuffix string) []Write {
	var out []Write
	for _, w := range s.Writes() {
		if w.Method == method && strings.HasSuffix(w.Path, pathSuffix) {
			out = append(out, w)
		}
	}
	return out
}

func (s *Server) injectFaults(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		idx := slices.IndexFunc(s.faults, func(f fault) bool {
			return f.method == r.Method && f.path == r.URL.Path
		})
		var f fault
		if idx >= 0 {
			f = s.faults[idx]
			s.faults = slices.Delete(s.faults, idx, idx+1)
		}
		s.mu.Unlock()

		if idx >= 0 {
			writeError(w, f.status, http.StatusText(f.status))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) nextCommitLocked() string {
	s.commits++
	return hashOf("commit-" + strconv.Itoa(s.commits))
}

func (s *Server) recordLocked(r *http.Request, branchName string) {
	s.writes = append(s.writes, Write{Method: r.Method, Path: r.URL.Path, Branch: branchName})
}

// lookup resolves the repository named in the request path. It writes a 404
// and returns nil when the owner or repository is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *repository {
	if r.PathValue("owner") != s.owner {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	repo, ok := s.repos[r.PathValue("repo")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return nil
	}
	return repo
}

func (s *Server) getRepository(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"name":           r.PathValue("repo"),
		"full_name":      s.owner + "/" + r.PathValue("repo"),
		"default_branch": repo.defaultBranch,
		"description":    repo.description,
	})
}

func (s *Server) getContents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	branchName := r.URL.Query().Get("ref")
	if branchName == "" {
		branchName = repo.defaultBranch
	}
	b, ok := repo.branches[branchName]
	if !ok {
		writeError(w, http.StatusNotFound, "No commit found for the ref "+branchName)
		return
	}
	path := r.PathValue("path")
	content, ok := b.files[path]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, fileJSON(path, content, true))
}

type fileRequest struct {
	Message string `json:"message"`
	Content []byte `json:"content"`
	SHA     string `json:"sha"`
	Branch  string `json:"branch"`
}

func (s *Server) putContents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"message\" wasn't supplied.")
		return
	}
	branchName := req.Branch
	if branchName == "" {
		branchName = repo.defaultBranch
	}
	b, ok := repo.branches[branchName]
	if !ok {
		writeError(w, http.StatusNotFound, "Branch "+branchName+" not found")
		return
	}

	path := r.PathValue("path")
	existing, exists := b.files[path]
	status := http.StatusCreated
	switch {
	case exists && req.SHA == "":
		writeError(w, http.StatusUnprocessableEntity, "Invalid request.\n\n\"sha\" wasn't supplied.")
		return
	case exists && req.SHA != hashOf(existing):
		writeError(w, http.StatusConflict, path+" does not match "+req.SHA)
		return
	case !exists && req.SHA != "":
		writeError(w, http.StatusNotFound, "Not Found")
		return
	case exists:
		status = http.StatusOK
	}

	s.recordLocked(r, branchName)
	b.files[path] = string(req.Content)
	b.head = s.nextCommitLocked()
	writeJSON(w, status, map[string]any{
		"content": fileJSON(path, string(req.Content), false),
		"commit":  map[string]any{"sha": b.head, "message": req.Message},
	})
}

func (s *Server) deleteContents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	var req fileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	branchName := req.Branch
	if branchName == "" {
		branchName = repo.defaultBranch
	}
	b, ok := repo.branches[branchName]
	if !ok {
		writeError(w, http.StatusNotFound, "Branch "+branchName+" not found")
		return
	}
	path := r.PathValue("path")
	existing, exists := b.files[path]
	switch {
	case !exists:
		writeError(w, http.StatusNotFound, "Not Found")
		return
	case req.SHA != hashOf(existing):
		writeError(w, http.StatusConflict, path+" does not match "+req.SHA)
		return
	}

	s.recordLocked(r, branchName)
	delete(b.files, path)
	b.head = s.nextCommitLocked()
	writeJSON(w, http.StatusOK, map[string]any{
		"content": nil,
		"commit":  map[string]any{"sha": b.head, "message": req.Message},
	})
}

func (s *Server) getRef(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	ref := r.PathValue("ref")
	name, ok := strings.CutPrefix(ref, "heads/")
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	b, ok := repo.branches[name]
	if !ok {
		writeError(w, http.StatusNotFound, "Not Found")
		return
	}
	writeJSON(w, http.StatusOK, refJSON(name, b.head))
}

func (s *Server) createRef(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	var req struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	name, ok := strings.CutPrefix(req.Ref, "refs/heads/")
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "Reference name must start with refs/heads/")
		return
	}
	if _, exists := repo.branches[name]; exists {
		writeError(w, http.StatusUnprocessableEntity, "Reference already exists")
		return
	}

	var source *branch
	for _, b := range repo.branches {
		if b.head == req.SHA {
			source = b
			break
		}
	}
	if source == nil {
		writeError(w, http.StatusUnprocessableEntity, "Object does not exist")
		return
	}

	s.recordLocked(r, name)
	files := make(map[string]string, len(source.files))
	for p, c := range source.files {
		files[p] = c
	}
	repo.branches[name] = &branch{head: req.SHA, files: files}
	writeJSON(w, http.StatusCreated, refJSON(name, req.SHA))
}

func (s *Server) listPulls(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	state := r.URL.Query().Get("state")
	if state == "" {
		state = "open"
	}
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))

	// Later registrations are treated as more recently updated.
	out := []map[string]any{}
	for _, pr := range slices.Backward(repo.pulls) {
		if state != "all" && pr.State != state {
			continue
		}
		out = append(out, s.pullJSON(r.PathValue("repo"), pr))
		if perPage > 0 && len(out) == perPage {
			break
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) createPull(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
		Head  string `json:"head"`
		Base  string `json:"base"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if _, ok := repo.branches[req.Head]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed: head")
		return
	}
	if _, ok := repo.branches[req.Base]; !ok {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed: base")
		return
	}

	s.recordLocked(r, req.Head)
	pr := &PullRequest{
		Number: repo.nextNumber,
		Title:  req.Title,
		Body:   req.Body,
		State:  "open",
		Head:   req.Head,
		Base:   req.Base,
	}
	repo.nextNumber++
	repo.pulls = append(repo.pulls, pr)
	writeJSON(w, http.StatusCreated, s.pullJSON(r.PathValue("repo"), pr))
}

func (s *Server) createIssue(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo := s.lookup(w, r)
	if repo == nil {
		return
	}
	var req struct {
		Title string `json:"title"`
		Body  string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Problems parsing JSON")
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusUnprocessableEntity, "Validation Failed: title")
		return
	}

	s.recordLocked(r, "")
	issue := &Issue{Number: repo.nextNumber, Title: req.Title, Body: req.Body}
	repo.nextNumber++
	repo.issues = append(repo.issues, issue)
	writeJSON(w, http.StatusCreated, map[string]any{
		"number":   issue.Number,
		"title":    issue.Title,
		"body":     issue.Body,
		"state":    "open",
		"html_url": fmt.Sprintf("https://github.com/%s/%s/issues/%d", s.owner, r.PathValue("repo"), issue.Number),
	})
}

// searchIssues understands the subset of the search syntax the agents use:
// a repo: qualifier, is:pr, in:title and one quoted phrase.
func (s *Server) searchIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := r.URL.Query().Get("q")
	var repoName, phrase string
	if start := strings.Index(q, `"`); start >= 0 {
		if end := strings.Index(q[start+1:], `"`); end >= 0 {
			phrase = q[start+1 : start+1+end]
		}
	}
	for _, field := range strings.Fields(q) {
		if full, ok := strings.CutPrefix(field, "repo:"); ok {
			owner, name, _ := strings.Cut(full, "/")
			if owner == s.owner {
				repoName = name
			}
		}
	}

	items := []map[string]any{}
	if repo, ok := s.repos[repoName]; ok {
		for _, pr := range slices.Backward(repo.pulls) {
			if strings.Contains(strings.ToLower(pr.Title), strings.ToLower(phrase)) {
				item := s.pullJSON(repoName, pr)
				item["pull_request"] = map[string]any{"html_url": item["html_url"]}
				items = append(items, item)
			}
		}
	}
	total := len(items)
	if perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page")); perPage > 0 && len(items) > perPage {
		items = items[:perPage]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count":        total,
		"incomplete_results": false,
		"items":              items,
	})
}

func (s *Server) pullJSON(repo string, pr *PullRequest) map[string]any {
	return map[string]any{
		"number":   pr.Number,
		"title":    pr.Title,
		"body":     pr.Body,
		"state":    pr.State,
		"html_url": fmt.Sprintf("https://github.com/%s/%s/pull/%d", s.owner, repo, pr.Number),
		"head":     map[string]any{"ref": pr.Head},
		"base":     map[string]any{"ref": pr.Base},
	}
}

func fileJSON(path, content string, withBody bool) map[string]any {
	name := path[strings.LastIndex(path, "/")+1:]
	out := map[string]any{
		"type": "file",
		"name": name,
		"path": path,
		"sha":  hashOf(content),
		"size": len(content),
	}
	if withBody {
		out["encoding"] = "base64"
		out["content"] = base64.StdEncoding.EncodeToString([]byte(content))
	}
	return out
}

func refJSON(name, sha string) map[string]any {
	return map[string]any{
		"ref":    "refs/heads/" + name,
		"object": map[string]any{"sha": sha, "type": "commit"},
	}
}

func hashOf(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"message":           msg,
		"documentation_url": "https://docs.github.com/rest",
	})
}
