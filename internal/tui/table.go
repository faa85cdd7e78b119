package tui

import (
	"context"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
)

func newResultsTable(ctx context.Context, noColor bool) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "#", Width: 5},
			{Title: appI18n.T(ctx, "Section"), Width: 12},
			{Title: appI18n.T(ctx, "Selected"), Width: 12},
			{Title: appI18n.T(ctx, "CorrectAnswer"), Width: 16},
			{Title: appI18n.T(ctx, "Outcome"), Width: 12},
		}),
		table.WithRows([]table.Row{}),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	t.SetStyles(tableStyles(noColor))
	return t
}

// tableStyles returns table styles for the UI.
func tableStyles(noColor bool) table.Styles {
	if noColor {
		return table.DefaultStyles()
	}
	styles := table.DefaultStyles()
	styles.Header = styles.Header.Foreground(lipgloss.Color("252"))
	return styles
}

// resultRows lists every graded question in display order.
func resultRows(ctx context.Context, report model.Report) []table.Row {
	rows := make([]table.Row, 0, len(report.Results))
	for _, r := range report.Results {
		selected := r.Selected
		if selected == "" {
			selected = appI18n.T(ctx, "NoAnswer")
		}
		rows = append(rows, table.Row{
			strconv.Itoa(r.Number),
			appI18n.Title(ctx, "Section", string(r.Section)),
			selected,
			r.Answer,
			appI18n.Title(ctx, "Outcome", string(r.Outcome)),
		})
	}
	return rows
}
