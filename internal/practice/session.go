// Package practice holds the state of one exam page: the current selections, the two
// section timers and the grading entry points that freeze them.
package practice

import (
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/aptitude/internal/grader"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/timer"
)

// EventType names what happened on a page.
type EventType string

const (
	EventTick    EventType = "tick"
	EventExpired EventType = "expired"
	EventStopped EventType = "stopped"
	EventStarted EventType = "started"
	EventGraded  EventType = "graded"
	EventCleared EventType = "cleared"
)

// Event is published to subscribers of a session.
type Event struct {
	Type   EventType     `json:"type"`
	Timer  *timer.State  `json:"timer,omitempty"`
	Notice *model.Notice `json:"notice,omitempty"`
	Scores *model.Scores `json:"scores,omitempty"`
}

// Config holds the durations a session's timers are built with.
type Config struct {
	Durations map[model.Section]time.Duration
}

// Session is one loaded exam page.
type Session struct {
	id        string
	exam      model.Exam
	createdAt time.Time

	mu          sync.Mutex
	selections  map[string]string
	timers      map[model.Section]*timer.Timer
	subscribers map[chan Event]struct{}
	last        *model.Report
	lastActive  time.Time
}

// New builds a session for exam. Durations in cfg override the exam's own.
func New(exam model.Exam, cfg Config, sched timer.Scheduler) *Session {
	now := time.Now()
	s := &Session{
		id:          uuid.NewString(),
		exam:        exam,
		createdAt:   now,
		lastActive:  now,
		selections:  make(map[string]string),
		timers:      make(map[model.Section]*timer.Timer, len(model.Sections)),
		subscribers: make(map[chan Event]struct{}),
	}
	for _, sec := range model.Sections {
		d := exam.Duration(sec)
		if override, ok := cfg.Durations[sec]; ok && override > 0 {
			d = override
		}
		s.timers[sec] = timer.New(sec, d, sched, timer.Options{
			OnTick:   s.onTick,
			OnExpire: s.onExpire,
		})
	}
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Exam returns the exam the page was built from.
func (s *Session) Exam() model.Exam { return s.exam }

// CreatedAt returns when the page was opened.
func (s *Session) CreatedAt() time.Time { return s.createdAt }

// Touch marks the page as in use.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActive = time.Now()
	s.mu.Unlock()
}

// Activity returns when the page was last used and how many live feeds it has open.
func (s *Session) Activity() (time.Time, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive, len(s.subscribers)
}

// Select records value as the answer to question id. An empty value clears it.
func (s *Session) Select(id, value string) error {
	q, ok := s.exam.Question(id)
	if !ok {
		return fmt.Errorf("%q: %w", id, model.ErrUnknownQuestion)
	}
	if value != "" && !q.HasOption(value) {
		return fmt.Errorf("%q for %q: %w", value, id, model.ErrUnknownOption)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.selections, id)
	} else {
		s.selections[id] = value
	}
	return nil
}

// Selections returns a copy of the current selections.
func (s *Session) Selections() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.selections)
}

// Timer returns a snapshot of a section's timer.
func (s *Session) Timer(sec model.Section) (timer.State, error) {
	t, ok := s.timers[sec]
	if !ok {
		return timer.State{}, model.ErrUnknownSection
	}
	return t.Snapshot(), nil
}

// Timers returns snapshots of both timers in section order.
func (s *Session) Timers() []timer.State {
	out := make([]timer.State, 0, len(model.Sections))
	for _, sec := range model.Sections {
		out = append(out, s.timers[sec].Snapshot())
	}
	return out
}

// StartTimer starts a section's countdown. The page must offer the section's start
// trigger. Starting a running timer changes nothing and reports false.
func (s *Session) StartTimer(sec model.Section) (bool, error) {
	t, ok := s.timers[sec]
	if !ok {
		return false, model.ErrUnknownSection
	}
	if err := s.exam.Layout.Require(model.StartMount(sec)); err != nil {
		slog.Error("start button not found", "section", sec, "session", s.id)
		return false, err
	}
	started := t.Start()
	if started {
		st := t.Snapshot()
		s.publish(Event{Type: EventStarted, Timer: &st})
	}
	return started, nil
}

// StopTimer stops and resets a section's countdown. The page must offer the
// section's stop trigger.
func (s *Session) StopTimer(sec model.Section) (timer.State, error) {
	t, ok := s.timers[sec]
	if !ok {
		return timer.State{}, model.ErrUnknownSection
	}
	if err := s.exam.Layout.Require(model.StopMount(sec)); err != nil {
		slog.Error("stop button not found", "section", sec, "session", s.id)
		return timer.State{}, err
	}
	st := t.Stop()
	s.publish(Event{Type: EventStopped, Timer: &st})
	return st, nil
}

// StopAll stops every timer regardless of the page's triggers.
func (s *Session) StopAll() {
	for _, sec := range model.Sections {
		st := s.timers[sec].Stop()
		s.publish(Event{Type: EventStopped, Timer: &st})
	}
}

// Grade stops all timers, replaces the held selections with the submitted ones and
// scores them. Unknown ids or options in selections are dropped with a warning.
func (s *Session) Grade(selections map[string]string) model.Report {
	s.StopAll()

	frozen := make(map[string]string, len(selections))
	for id, v := range selections {
		q, ok := s.exam.Question(id)
		if !ok || (v != "" && !q.HasOption(v)) {
			slog.Warn("ignoring selection", "question", id, "value", v, "session", s.id)
			continue
		}
		if v != "" {
			frozen[id] = v
		}
	}

	s.mu.Lock()
	s.selections = frozen
	s.mu.Unlock()

	return s.grade(frozen)
}

// GradeFrozen stops all timers and scores the selections the session already holds.
func (s *Session) GradeFrozen() model.Report {
	s.StopAll()
	return s.grade(s.Selections())
}

// ExpiryAction runs the action offered by a timer's expiry notice. Only the reading
// timer offers one: stop all timers and grade immediately.
func (s *Session) ExpiryAction(sec model.Section) (model.Report, bool) {
	if sec != model.SectionReading {
		return model.Report{}, false
	}
	return s.GradeFrozen(), true
}

// ClearAnswers stops all timers and clears every selection once confirmed.
func (s *Session) ClearAnswers(confirmed bool) error {
	if !confirmed {
		return model.ErrNotConfirmed
	}
	s.StopAll()
	s.mu.Lock()
	s.selections = make(map[string]string)
	s.last = nil
	s.mu.Unlock()
	s.publish(Event{Type: EventCleared, Notice: &model.Notice{
		Kind:    model.NoticeInfo,
		Message: "All answers have been cleared.",
	}})
	return nil
}

// LastReport returns the most recent grading result, if any.
func (s *Session) LastReport() (model.Report, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.Report{}, false
	}
	return *s.last, true
}

func (s *Session) grade(selections map[string]string) model.Report {
	report := grader.Grade(s.exam.Questions, selections, s.exam.Explanations)

	s.mu.Lock()
	s.last = &report
	s.mu.Unlock()

	slog.Info("graded practice page",
		"session", s.id,
		"overall", report.Scores.Overall.Percent(),
		"math", report.Scores.Math.Percent(),
		"reading", report.Scores.Reading.Percent(),
	)
	scores := report.Scores
	s.publish(Event{Type: EventGraded, Scores: &scores, Notice: &model.Notice{
		Kind:    model.NoticeSuccess,
		Message: "Grading complete.",
	}})
	return report
}

func (s *Session) onTick(st timer.State) {
	s.publish(Event{Type: EventTick, Timer: &st})
}

func (s *Session) onExpire(st timer.State) {
	notice := model.Notice{
		Kind:    model.NoticeWarning,
		Message: fmt.Sprintf("Time is up for the %s section.", st.Section),
	}
	if st.Section == model.SectionReading {
		notice.Action = model.ActionGradeNow
	}
	slog.Info("section time expired", "section", st.Section, "session", s.id)
	s.publish(Event{Type: EventExpired, Timer: &st, Notice: &notice})
}

// Subscribe returns a channel of page events and a cancel func that must be called.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 16)
	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	s.lastActive = time.Now()
	s.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subscribers, ch)
			s.lastActive = time.Now()
			s.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// publish never blocks; a subscriber with a full buffer misses the event.
func (s *Session) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropping event for slow subscriber", "type", ev.Type, "session", s.id)
		}
	}
}
