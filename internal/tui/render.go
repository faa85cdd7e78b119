package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/report"
)

// View renders the questions, or the results once graded.
func (m Model) View() string {
	parts := []string{m.renderHeader()}
	if m.results != nil {
		parts = append(parts, report.Summary(*m.results, m.opts.NoColor), m.table.View())
	} else {
		parts = append(parts, m.renderQuestion())
	}
	if n := m.renderNotice(); n != "" {
		parts = append(parts, n)
	}
	parts = append(parts, m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m Model) renderHeader() string {
	exam := m.sess.Exam()
	var clocks []string
	for _, sec := range model.Sections {
		if !exam.Layout.Has(model.DisplayMount(sec)) {
			continue
		}
		st := m.timers[sec]
		clocks = append(clocks, fmt.Sprintf("%s %s", appI18n.Title(m.ctx, "Section", string(sec)), st.Display))
	}
	line := exam.Title
	if len(clocks) > 0 {
		line += " | " + strings.Join(clocks, " | ")
	}
	return m.stylize(line, lipgloss.Color("33"))
}

func (m Model) renderQuestion() string {
	q, ok := m.current()
	if !ok {
		return ""
	}
	selected := m.sess.Selections()[q.ID]
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d/%d\n\n%d. %s\n\n",
		appI18n.Title(m.ctx, "Section", string(q.Section)), m.cursor+1, len(m.questions), q.Number, q.Prompt)
	for i, o := range q.Options {
		cursor := "  "
		if i == m.option {
			cursor = "> "
		}
		mark := "( )"
		if o.Value == selected {
			mark = "(•)"
		}
		label := o.Label
		if label == "" {
			label = o.Value
		}
		line := fmt.Sprintf("%s%s %s. %s", cursor, mark, o.Value, label)
		if i == m.option {
			line = m.stylize(line, lipgloss.Color("212"))
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m Model) renderNotice() string {
	if m.confirm {
		return m.stylize(appI18n.T(m.ctx, "TuiConfirmClear"), lipgloss.Color("214"))
	}
	if m.notice == nil {
		return ""
	}
	text := m.notice.Message
	if m.notice.Action == model.ActionGradeNow {
		text += " " + appI18n.T(m.ctx, "TuiGradeNowPrompt")
	}
	return m.stylize(text, noticeColor(m.notice.Kind))
}

func (m Model) renderFooter() string {
	if m.results != nil {
		return m.stylize(appI18n.T(m.ctx, "TuiBack"), lipgloss.Color("244"))
	}
	return m.stylize(appI18n.T(m.ctx, "TuiHelp"), lipgloss.Color("244"))
}

func noticeColor(k model.NoticeKind) lipgloss.Color {
	switch k {
	case model.NoticeSuccess:
		return lipgloss.Color("34")
	case model.NoticeWarning:
		return lipgloss.Color("214")
	case model.NoticeError:
		return lipgloss.Color("160")
	default:
		return lipgloss.Color("39")
	}
}

// stylize applies optional color styling.
func (m Model) stylize(text string, color lipgloss.Color) string {
	if m.opts.NoColor {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}
