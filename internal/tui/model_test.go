package tui

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
	"github.com/pavelanni/aptitude/internal/timer"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

type fixture struct {
	m      Model
	sess   *practice.Session
	sched  *timer.ManualScheduler
	events <-chan practice.Event
}

func newFixture(t *testing.T, layout model.Layout, durations map[model.Section]time.Duration) *fixture {
	t.Helper()
	ab := []model.Option{{Value: "A"}, {Value: "B"}}
	exam := model.Exam{
		Title: "Practice Test",
		Questions: []model.Question{
			{ID: "1", Section: model.SectionReading, Number: 1, Prompt: "Main idea?", Options: ab, Answer: "A"},
			{ID: "m2", Section: model.SectionMath, Number: 2, Prompt: "3 - 3?", Options: ab, Answer: "A"},
			{ID: "m1", Section: model.SectionMath, Number: 1, Prompt: "2 + 2?", Options: ab, Answer: "B"},
		},
		Layout: layout,
	}
	sched := timer.NewManualScheduler()
	sess := practice.New(exam, practice.Config{Durations: durations}, sched)
	events, cancel := sess.Subscribe()
	t.Cleanup(cancel)

	ctx := appI18n.WithLocalizer(context.Background(), appI18n.NewLocalizer("en"))
	return &fixture{
		m:      NewModel(ctx, sess, events, Options{NoColor: true}),
		sess:   sess,
		sched:  sched,
		events: events,
	}
}

func key(k string) tea.KeyMsg {
	switch k {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func (f *fixture) press(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		next, _ := f.m.Update(key(k))
		f.m = next.(Model)
	}
}

// drain feeds every pending session event to the model.
func (f *fixture) drain() {
	for {
		select {
		case ev := <-f.events:
			next, _ := f.m.Update(EventMsg{Event: ev})
			f.m = next.(Model)
		default:
			return
		}
	}
}

func TestQuestionsInDisplayOrder(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)
	var ids []string
	for _, q := range f.m.questions {
		ids = append(ids, q.ID)
	}
	if got := strings.Join(ids, ","); got != "m1,m2,1" {
		t.Errorf("order = %s, want m1,m2,1", got)
	}
	if !strings.Contains(f.m.View(), "1. 2 + 2?") {
		t.Errorf("first question not shown:\n%s", f.m.View())
	}
}

func TestSelectAnswer(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)
	f.press(t, "down", "right", "enter")

	if got := f.sess.Selections()["m2"]; got != "B" {
		t.Errorf("m2 selection = %q, want B", got)
	}
	if !strings.Contains(f.m.View(), "> (•) B. B") {
		t.Errorf("selection not marked:\n%s", f.m.View())
	}

	// Moving away and back keeps the cursor on the chosen option.
	f.press(t, "up", "down")
	if f.m.option != 1 {
		t.Errorf("option cursor = %d, want 1", f.m.option)
	}
}

func TestTimerKeys(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)

	f.press(t, "s")
	if st, _ := f.sess.Timer(model.SectionMath); !st.Running() {
		t.Fatal("math timer not running after s")
	}
	f.press(t, "s")
	if f.sched.Active() != 1 {
		t.Errorf("active tick sources = %d, want 1", f.sched.Active())
	}

	f.sched.Advance(2)
	f.drain()
	if !strings.Contains(f.m.View(), "Math 49:58") {
		t.Errorf("header missing countdown:\n%s", f.m.View())
	}

	f.press(t, "x")
	if st, _ := f.sess.Timer(model.SectionMath); st.Running() || st.Display != "50:00" {
		t.Errorf("after x: %+v", st)
	}
}

func TestTimerKeyWithoutTrigger(t *testing.T) {
	f := newFixture(t, model.NewLayout(model.MountGradeButton, model.MountNotice), nil)
	f.press(t, "r")
	if st, _ := f.sess.Timer(model.SectionReading); st.Running() {
		t.Error("reading timer started without its trigger")
	}
	if !strings.Contains(f.m.View(), "This timer is not available on this page.") {
		t.Errorf("missing notice:\n%s", f.m.View())
	}
}

func TestGrade(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)
	f.press(t, "right", "enter", "s", "g")

	if f.m.results == nil {
		t.Fatal("no results after g")
	}
	if got := f.m.results.Report.Scores.Math; got != (model.Tally{Correct: 1, Total: 2}) {
		t.Errorf("math = %+v", got)
	}
	if f.sched.Active() != 0 {
		t.Error("timers still ticking after grading")
	}
	view := f.m.View()
	for _, want := range []string{"Score summary", "Grading complete.", "No answer", "Unanswered"} {
		if !strings.Contains(view, want) {
			t.Errorf("results view missing %q:\n%s", want, view)
		}
	}

	f.press(t, "b")
	if f.m.results != nil {
		t.Error("b did not return to the questions")
	}
}

func TestGradeWithoutTrigger(t *testing.T) {
	f := newFixture(t, model.NewLayout(model.MountNotice), nil)
	f.press(t, "g")
	if f.m.results != nil {
		t.Error("graded without a grade trigger")
	}
	if _, ok := f.sess.LastReport(); ok {
		t.Error("session graded without a grade trigger")
	}
	if !strings.Contains(f.m.View(), "Grading is not available on this page.") {
		t.Errorf("missing notice:\n%s", f.m.View())
	}
}

func TestClearNeedsConfirmation(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)
	f.press(t, "enter")
	if len(f.sess.Selections()) != 1 {
		t.Fatal("selection not recorded")
	}

	f.press(t, "c")
	if !strings.Contains(f.m.View(), "Clear all answers? (y/n)") {
		t.Errorf("no confirmation prompt:\n%s", f.m.View())
	}
	f.press(t, "n")
	if len(f.sess.Selections()) != 1 {
		t.Error("declining cleared the answers")
	}

	f.press(t, "c", "y")
	if len(f.sess.Selections()) != 0 {
		t.Errorf("selections after clear = %v", f.sess.Selections())
	}
	if !strings.Contains(f.m.View(), "All answers have been cleared.") {
		t.Errorf("missing cleared notice:\n%s", f.m.View())
	}
}

func TestReadingExpiryGradeNow(t *testing.T) {
	f := newFixture(t, model.Layout{}, map[model.Section]time.Duration{model.SectionReading: 2 * time.Second})
	f.press(t, "r")
	f.sched.Advance(2)
	f.drain()

	if f.m.notice == nil || f.m.notice.Action != model.ActionGradeNow {
		t.Fatalf("notice = %+v, want grade-now action", f.m.notice)
	}
	view := f.m.View()
	if !strings.Contains(view, "Time is up for the Reading section. Press g to grade now.") {
		t.Errorf("expiry prompt missing:\n%s", view)
	}
	if !strings.Contains(view, "Reading 00:00") {
		t.Errorf("expired clock not clamped:\n%s", view)
	}

	f.press(t, "g")
	if f.m.results == nil {
		t.Fatal("grade now produced no results")
	}
	if st, _ := f.sess.Timer(model.SectionReading); st.Phase != timer.PhaseIdle {
		t.Errorf("reading phase after grade now = %s", st.Phase)
	}
}

func TestQuit(t *testing.T) {
	f := newFixture(t, model.Layout{}, nil)
	_, cmd := f.m.Update(key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}
