/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package placeholder

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewCollectsNames(t *testing.T) {
	tmpl, err := New("Building {{repo}} in public! {{ task }}. {{repo}} again")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if diff := cmp.Diff([]string{"repo", "task"}, tmpl.Names()); diff != "" {
		t.Errorf("Names() mismatch (-want +got):\n%s", diff)
	}
	if !tmpl.Has("repo") || tmpl.Has("note") {
		t.Error("Has() reports the wrong membership")
	}
}

func TestNewRejectsMalformed(t *testing.T) {
	for _, text := range []string{
		"unclosed {{repo",
		"bad {{1repo}}",
		"bad {{re-po}}",
		"empty {{}}",
	} {
		t.Run(text, func(t *testing.T) {
			if _, err := New(text); err == nil {
				t.Errorf("New(%q) should fail", text)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	tmpl := Must(New("Building {{repo}} in public 🚀\n\nLatest win: {{task}}"))

	tmpl, err := tmpl.BindString("repo", "demo")
	if err != nil {
		t.Fatal(err)
	}
	tmpl, err = tmpl.BindString("task", "Set up CI")
	if err != nil {
		t.Fatal(err)
	}

	got, err := tmpl.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if want := "Building demo in public 🚀\n\nLatest win: Set up CI"; got != want {
		t.Errorf("Build(): got = %q, wanted = %q", got, want)
	}
}

func TestBuildUnbound(t *testing.T) {
	tmpl := Must(New("{{repo}} {{task}}"))
	tmpl = Must(tmpl.BindString("repo", "demo"))
	if _, err := tmpl.Build(); err == nil || !strings.Contains(err.Error(), "task") {
		t.Errorf("Build() error = %v, wanted unbound task", err)
	}
}

func TestBindErrors(t *testing.T) {
	tmpl := Must(New("{{repo}}"))
	if _, err := tmpl.BindString("missing", "x"); err == nil {
		t.Error("binding an unknown name should fail")
	}
	bound := Must(tmpl.BindString("repo", "demo"))
	if _, err := bound.BindString("repo", "again"); err == nil {
		t.Error("binding twice should fail")
	}
}

func TestBindingIsImmutable(t *testing.T) {
	base := Must(New("Hello {{name}}"))
	a := Must(base.BindString("name", "a"))
	b := Must(base.BindString("name", "b"))

	gotA, _ := a.Build()
	gotB, _ := b.Build()
	if gotA != "Hello a" || gotB != "Hello b" {
		t.Errorf("builds leaked across bindings: %q, %q", gotA, gotB)
	}
	if _, err := base.Build(); err == nil {
		t.Error("base template should remain unbound")
	}
}

func TestNoTransitiveSubstitution(t *testing.T) {
	tmpl := Must(New("{{a}} / {{b}}"))
	tmpl = Must(tmpl.BindString("a", "{{b}}"))
	tmpl = Must(tmpl.BindString("b", "value"))

	got, err := tmpl.Build()
	if err != nil {
		t.Fatal(err)
	}
	if want := "{{b}} / value"; got != want {
		t.Errorf("Build(): got = %q, wanted = %q", got, want)
	}
}

func TestBindJSON(t *testing.T) {
	tmpl := Must(New("```json\n{{data}}\n```"))
	tmpl = Must(tmpl.BindJSON("data", struct {
		Title string `json:"title"`
	}{Title: "demo Progress Update"}))

	got, err := tmpl.Build()
	if err != nil {
		t.Fatal(err)
	}
	want := "```json\n{\n  \"title\": \"demo Progress Update\"\n}\n```"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBindJSONError(t *testing.T) {
	tmpl := Must(New("{{data}}"))
	tmpl = Must(tmpl.BindJSON("data", make(chan int)))
	if _, err := tmpl.Build(); err == nil {
		t.Error("unmarshalable data should fail at Build")
	}
}

func TestBindStrings(t *testing.T) {
	tmpl := Must(New("{{repo}}: {{task}}"))
	tmpl, err := tmpl.BindStrings(map[string]string{
		"repo": "demo",
		"task": "Set up CI",
		"note": "unused here",
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := tmpl.Build()
	if err != nil {
		t.Fatal(err)
	}
	if want := "demo: Set up CI"; got != want {
		t.Errorf("Build(): got = %q, wanted = %q", got, want)
	}
}

func TestIsValidName(t *testing.T) {
	valid := []string{"a", "repo", "long_form", "x1", "Ünicode"}
	invalid := []string{"", "_x", "1x", "a-b", "a b", "a.b"}

	for _, s := range valid {
		if !isValidName(s) {
			t.Errorf("isValidName(%q): got = false, wanted = true", s)
		}
	}
	for _, s := range invalid {
		if isValidName(s) {
			t.Errorf("isValidName(%q): got = true, wanted = false", s)
		}
	}
}
