// Package tui runs a practice page in the terminal.
package tui

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/timer"
)

// Options configures the terminal UI.
type Options struct {
	NoColor  bool
	Policies practice.Policies
}

// Model is the bubbletea model of one practice page.
type Model struct {
	ctx       context.Context
	sess      *practice.Session
	events    <-chan practice.Event
	questions []model.Question
	cursor    int
	option    int
	timers    map[model.Section]timer.State
	notice    *model.Notice
	confirm   bool
	results   *practice.Results
	table     table.Model
	opts      Options
}

// EventMsg wraps a session event for bubbletea.
type EventMsg struct {
	Event practice.Event
}

// NewModel builds the UI for sess. ctx carries the localizer; events is the session
// subscription the model drains.
func NewModel(ctx context.Context, sess *practice.Session, events <-chan practice.Event, opts Options) Model {
	if opts.Policies == (practice.Policies{}) {
		opts.Policies = practice.DefaultPolicies
	}
	qs := slices.Clone(sess.Exam().Questions)
	slices.SortStableFunc(qs, func(a, b model.Question) int { return cmp.Compare(a.SortKey(), b.SortKey()) })

	m := Model{
		ctx:       ctx,
		sess:      sess,
		events:    events,
		questions: qs,
		timers:    make(map[model.Section]timer.State, len(model.Sections)),
		table:     newResultsTable(ctx, opts.NoColor),
		opts:      opts,
	}
	for _, st := range sess.Timers() {
		m.timers[st.Section] = st
	}
	m.syncOption()
	return m
}

// Init waits for the first session event.
func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

// Update consumes session events and key presses.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.WindowSizeMsg:
		m.table.SetWidth(typed.Width)
		m.table.SetHeight(max(typed.Height-12, 3))
		return m, nil
	case EventMsg:
		m = m.applyEvent(typed.Event)
		return m, waitForEvent(m.events)
	case tea.KeyMsg:
		return m.handleKey(typed)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirm {
		switch key {
		case "y", "Y":
			m.confirm = false
			if err := m.sess.ClearAnswers(true); err != nil {
				m.notice = &model.Notice{Kind: model.NoticeError, Message: err.Error()}
				return m, nil
			}
			m.results = nil
			m.syncOption()
			m.notice = &model.Notice{Kind: model.NoticeInfo, Message: appI18n.T(m.ctx, "AnswersCleared")}
		case "n", "N", "esc":
			m.confirm = false
		}
		return m, nil
	}

	if m.results != nil {
		switch key {
		case "b", "esc":
			m.results = nil
		case "q":
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.syncOption()
		}
	case "down", "j":
		if m.cursor < len(m.questions)-1 {
			m.cursor++
			m.syncOption()
		}
	case "left", "h":
		if m.option > 0 {
			m.option--
		}
	case "right", "l":
		if q, ok := m.current(); ok && m.option < len(q.Options)-1 {
			m.option++
		}
	case "enter", " ":
		m.selectCurrent()
	case "s":
		m.startTimer(model.SectionMath)
	case "x":
		m.stopTimer(model.SectionMath)
	case "r":
		m.startTimer(model.SectionReading)
	case "R":
		m.stopTimer(model.SectionReading)
	case "g":
		m.grade()
	case "c":
		m.confirm = true
	}
	return m, nil
}

func (m *Model) current() (model.Question, bool) {
	if m.cursor < 0 || m.cursor >= len(m.questions) {
		return model.Question{}, false
	}
	return m.questions[m.cursor], true
}

// syncOption moves the option cursor onto the current question's selection.
func (m *Model) syncOption() {
	m.option = 0
	q, ok := m.current()
	if !ok {
		return
	}
	selected := m.sess.Selections()[q.ID]
	for i, o := range q.Options {
		if o.Value == selected {
			m.option = i
			return
		}
	}
}

func (m *Model) selectCurrent() {
	q, ok := m.current()
	if !ok || len(q.Options) == 0 {
		return
	}
	if err := m.sess.Select(q.ID, q.Options[m.option].Value); err != nil {
		slog.Warn("select failed", "question", q.ID, "error", err)
		m.notice = &model.Notice{Kind: model.NoticeError, Message: err.Error()}
	}
}

func (m *Model) startTimer(sec model.Section) {
	if _, err := m.sess.StartTimer(sec); err != nil {
		m.notice = m.mountNotice(err)
		return
	}
	m.timers[sec], _ = m.sess.Timer(sec)
}

func (m *Model) stopTimer(sec model.Section) {
	st, err := m.sess.StopTimer(sec)
	if err != nil {
		m.notice = m.mountNotice(err)
		return
	}
	m.timers[sec] = st
}

func (m *Model) mountNotice(err error) *model.Notice {
	if errors.Is(err, model.ErrMountMissing) {
		return &model.Notice{Kind: model.NoticeError, Message: appI18n.T(m.ctx, "TimerUnavailable")}
	}
	return &model.Notice{Kind: model.NoticeError, Message: err.Error()}
}

// grade runs the reading expiry action when its notice is showing, and a normal
// grading pass otherwise. Both stop every timer.
func (m *Model) grade() {
	layout := m.sess.Exam().Layout
	if err := layout.Require(model.MountGradeButton); err != nil {
		slog.Error("grade button not found", "session", m.sess.ID())
		m.notice = &model.Notice{Kind: model.NoticeError, Message: appI18n.T(m.ctx, "GradeUnavailable")}
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("grading failed", "session", m.sess.ID(), "panic", rec)
			m.results = nil
			m.notice = &model.Notice{Kind: model.NoticeError, Message: appI18n.T(m.ctx, "GradingFailed")}
		}
	}()

	var report model.Report
	if m.notice != nil && m.notice.Action == model.ActionGradeNow {
		report, _ = m.sess.ExpiryAction(model.SectionReading)
	} else {
		report = m.sess.GradeFrozen()
	}
	res := practice.Present(report, layout, m.opts.Policies)
	m.results = &res
	m.table.SetRows(resultRows(m.ctx, report))
	m.notice = nil
	if res.Notice != nil {
		m.notice = &model.Notice{Kind: res.Notice.Kind, Message: appI18n.T(m.ctx, "GradingComplete")}
	}
	for _, st := range m.sess.Timers() {
		m.timers[st.Section] = st
	}
}

func (m Model) applyEvent(ev practice.Event) Model {
	if ev.Timer != nil {
		m.timers[ev.Timer.Section] = *ev.Timer
	}
	if ev.Type == practice.EventExpired && ev.Timer != nil && ev.Notice != nil && m.sess.Exam().Layout.Has(model.MountNotice) {
		n := *ev.Notice
		n.Message = appI18n.Td(m.ctx, "TimeUp", map[string]any{
			"Section": appI18n.Title(m.ctx, "Section", string(ev.Timer.Section)),
		})
		m.notice = &n
	}
	return m
}

// waitForEvent blocks until a session event is available.
func waitForEvent(events <-chan practice.Event) tea.Cmd {
	return func() tea.Msg {
		if events == nil {
			return nil
		}
		ev, ok := <-events
		if !ok {
			return tea.Quit()
		}
		return EventMsg{Event: ev}
	}
}
