package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sessiontree/sessiontree/internal/types"
)

// RenderResults renders a search result table (§4.6): event id, session,
// type, and a match-marked snippet per row.
func RenderResults(query string, results []types.SearchResult, width int) string {
	rows := [][]string{
		{fmt.Sprintf("Found %d events:", len(results)), ""},
	}

	maxSnippetWidth := width - 24
	if maxSnippetWidth < 10 {
		maxSnippetWidth = 10
	}

	for i, r := range results {
		snippet := r.Snippet
		if len(snippet) > maxSnippetWidth {
			snippet = snippet[:maxSnippetWidth-3] + "..."
		}
		idCol := fmt.Sprintf("%d. [%s] %s", i+1, r.Type, r.EventID)
		rows = append(rows, []string{idCol, snippet})
	}

	return NewSearchTable(width).
		Headers("Search", fmt.Sprintf("%q", query)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row == 0:
				return TableHintStyle
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		}).
		String()
}

// RenderNoResults renders the no-results table with suggestions.
func RenderNoResults(query string, suggestions []string, width int) string {
	rows := [][]string{
		{"No events found.", ""},
		{"Try these:", ""},
	}

	for _, s := range suggestions {
		rows = append(rows, []string{"  -", s})
	}

	return NewSearchTable(width).
		Headers("Search", fmt.Sprintf("%q", query)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row == 0:
				return TableWarningStyle
			case row == 1:
				return TableHintStyle.Bold(true)
			default:
				return TableHintStyle
			}
		}).
		String()
}
