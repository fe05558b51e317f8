/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

/*
Package placeholder fills {{name}} placeholders in text templates.

Templates are parsed once; binding returns a new Template so a parsed
variant can be reused across runs. Substitution is a single pass, so a bound
value that itself contains "{{...}}" is emitted verbatim and never expanded.

	t, err := placeholder.New("Building {{repo}} in public: {{task}}")
	if err != nil {
		// malformed template
	}
	t, err = t.BindString("repo", "demo")
	t, err = t.BindString("task", "Set up CI")
	out, err := t.Build() // "Building demo in public: Set up CI"

BindJSON marshals structured values as indented JSON, which the publisher
uses for the dashboard block of a published document.

Build fails while any placeholder is unbound, and binding a name the
template does not contain is an error, so a template and its data cannot
silently drift apart.
*/
package placeholder
