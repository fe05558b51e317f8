/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

package report

import (
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// fieldWidth bounds the field column. Values are never wrapped so URLs and
// SHAs stay copyable.
const fieldWidth = 24

// markdownCell keeps a value inside its Markdown table cell.
func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

// newSummaryTable returns a two-column field/value table whose footer
// carries the run outcome.
func newSummaryTable(w io.Writer, outcome string) *tablewriter.Table {
	left := tw.CellAlignment{Global: tw.AlignLeft}
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  left,
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment:    left,
			Formatting:   tw.CellFormatting{AutoWrap: tw.WrapNormal},
			ColMaxWidths: tw.CellWidth{PerColumn: tw.NewMapper[int, int]().Set(0, fieldWidth)},
			Filter:       tw.CellFilter{PerColumn: []func(string) string{nil, markdownCell}},
		},
		Footer: tw.CellConfig{
			Alignment:  left,
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
			Filter:     tw.CellFilter{PerColumn: []func(string) string{nil, markdownCell}},
		},
	}
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader([]string{"Field", "Value"}),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{Left: tw.On, Right: tw.On, Top: tw.Off, Bottom: tw.Off},
		}),
	)
	if outcome != "" {
		table.Footer("Outcome", outcome)
	}
	return table
}
