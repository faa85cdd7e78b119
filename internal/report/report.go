// Package report renders graded practice results for terminals and files.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
)

const barWidth = 30

// WriteJSON writes the render model as indented JSON.
func WriteJSON(w io.Writer, res practice.Results) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, err = fmt.Fprintln(w)
	return err
}

// WriteText writes the score summary and per-section breakdown.
func WriteText(w io.Writer, res practice.Results, noColor bool) error {
	_, err := io.WriteString(w, Text(res, noColor))
	return err
}

// Text renders the results as plain or coloured text.
func Text(res practice.Results, noColor bool) string {
	var b strings.Builder
	b.WriteString(Summary(res, noColor))
	for _, sec := range res.Sections {
		b.WriteString("\n")
		heading := fmt.Sprintf("%s: %d/%d (%d%%)", Title(sec.Section), sec.Tally.Correct, sec.Tally.Total, sec.Percent)
		b.WriteString(stylize(heading, noColor, SeverityColor(sec.Severity)) + "\n")
		for _, r := range sec.Results {
			b.WriteString(renderResult(r, noColor))
		}
	}
	if res.Notice != nil {
		b.WriteString("\n" + stylize(res.Notice.Message, noColor, lipgloss.Color("244")) + "\n")
	}
	return b.String()
}

// Summary renders only the score bars; empty when the summary is skipped.
func Summary(res practice.Results, noColor bool) string {
	if len(res.Bars) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(stylize("Score summary", noColor, lipgloss.Color("33")) + "\n")
	for _, bar := range res.Bars {
		b.WriteString(renderBar(bar, noColor) + "\n")
	}
	return b.String()
}

func renderBar(bar practice.Bar, noColor bool) string {
	filled := bar.Percent * barWidth / 100
	meter := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	label := fmt.Sprintf("%-8s", Title(model.Section(bar.Label)))
	counts := fmt.Sprintf("%3d%%  %d/%d", bar.Percent, bar.Tally.Correct, bar.Tally.Total)
	return label + " " + stylize(meter, noColor, SeverityColor(bar.Severity)) + " " + counts
}

func renderResult(r model.QuestionResult, noColor bool) string {
	mark := "✗"
	color := lipgloss.Color("160")
	switch r.Outcome {
	case model.OutcomeCorrect:
		mark, color = "✓", lipgloss.Color("34")
	case model.OutcomeUnanswered:
		mark, color = "–", lipgloss.Color("244")
	}
	line := fmt.Sprintf("  %s %-4s selected: %-10s correct: %s",
		stylize(mark, noColor, color), r.ID, r.SelectedOrSentinel(), r.Answer)
	if r.Explanation != "" {
		line += "\n      " + r.Explanation
	}
	return line + "\n"
}

// Title capitalises a section or bar label.
func Title(sec model.Section) string {
	s := string(sec)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// SeverityColor maps a band to its terminal colour.
func SeverityColor(s model.Severity) lipgloss.Color {
	switch s {
	case model.SeverityPass:
		return lipgloss.Color("34")
	case model.SeverityBorderline:
		return lipgloss.Color("214")
	default:
		return lipgloss.Color("160")
	}
}

// stylize applies optional color styling.
func stylize(text string, noColor bool, color lipgloss.Color) string {
	if noColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
