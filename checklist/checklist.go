/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package checklist reads and advances a Markdown task ledger.
//
// A ledger is a line-oriented document in which a line carrying "- [x]" is
// a completed task and a line carrying "- [ ]" is an open one. Line order is
// ledger order. Advancing the ledger ticks the first open task and changes
// nothing else, so the document only ever moves forward.
package checklist

import "strings"

const (
	// Checked marks a completed task.
	Checked = "- [x]"
	// Unchecked marks an open task.
	Unchecked = "- [ ]"
)

// LatestCompleted returns the text of the last completed task in doc with
// the marker and surrounding whitespace removed. It reports false when doc
// holds no completed task with any text.
func LatestCompleted(doc string) (string, bool) {
	done := Completed(doc)
	if len(done) == 0 {
		return "", false
	}
	latest := done[len(done)-1]
	return latest, latest != ""
}

// Completed returns the text of every completed task, in ledger order.
func Completed(doc string) []string {
	var out []string
	for line := range strings.Lines(doc) {
		if _, text, ok := strings.Cut(line, Checked); ok {
			out = append(out, strings.TrimSpace(text))
		}
	}
	return out
}

// NextOpen returns the text of the first open task.
func NextOpen(doc string) (string, bool) {
	for line := range strings.Lines(doc) {
		if _, text, ok := strings.Cut(line, Unchecked); ok {
			return strings.TrimSpace(text), true
		}
	}
	return "", false
}

// Advance ticks the first open task in doc. Every other byte is preserved.
// It reports false, returning doc unchanged, when there is no open task.
func Advance(doc string) (string, bool) {
	if !strings.Contains(doc, Unchecked) {
		return doc, false
	}
	return strings.Replace(doc, Unchecked, Checked, 1), true
}
