/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package report renders a Markdown summary of an agent run, suitable for
// a terminal or a CI job summary.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/ai-ulu/autopilot/publisher"
	"github.com/ai-ulu/autopilot/repair"
	"github.com/ai-ulu/autopilot/repocontext"
)

// Summary is a titled list of field/value pairs.
type Summary struct {
	Title string
	// Outcome, when set, is rendered as the table footer.
	Outcome string
	rows    [][]string
}

// New returns an empty Summary.
func New(title string) *Summary {
	return &Summary{Title: title}
}

// Add appends a row. Empty values are skipped.
func (s *Summary) Add(field, value string) *Summary {
	if value != "" {
		s.rows = append(s.rows, []string{field, value})
	}
	return s
}

// Len returns the number of rows.
func (s *Summary) Len() int {
	return len(s.rows)
}

// Render writes the summary as a Markdown heading and table.
func (s *Summary) Render(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "### %s\n\n", s.Title); err != nil {
		return err
	}
	table := newSummaryTable(w, s.Outcome)
	for _, row := range s.rows {
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

// Media summarizes a media agent run.
func Media(repo string, rc *repocontext.RepositoryContext, art *publisher.Artifact) *Summary {
	s := New("Media Agent: "+repo).
		Add("Latest task", rc.LatestTask).
		Add("Latest change", rc.LatestChange).
		Add("Note", rc.Note)
	if art != nil {
		s.Outcome = "published"
		s.Add("Document", art.Path).
			Add("Commit", art.CommitSHA).
			Add("Review issue", art.IssueURL)
	}
	return s
}

// Repair summarizes a repair agent run.
func Repair(repo string, out *repair.Outcome) *Summary {
	s := &Summary{Title: "Repair Agent: " + repo, Outcome: "nothing to repair"}
	if out == nil || !out.Repaired {
		return s
	}
	s.Outcome = "repaired"
	return s.Add("Branch", out.Branch).
		Add("Checklist advanced", strconv.FormatBool(out.ChecklistAdvanced)).
		Add("Completed task", out.CompletedTask).
		Add("Pull request", out.PullRequestURL)
}
