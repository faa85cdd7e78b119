package practice

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/pavelanni/aptitude/internal/bank"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/timer"
)

func TestPracticeFeatures(t *testing.T) {
	options := godog.Options{
		Format:    "progress",
		Paths:     []string{filepath.Join("features")},
		Output:    io.Discard,
		TestingT:  t,
		Randomize: 0,
	}
	suite := godog.TestSuite{
		Name:                "practice-features",
		ScenarioInitializer: initializeScenario,
		Options:             &options,
	}
	if suite.Run() != 0 {
		t.Fatalf("practice features failed")
	}
}

type scenarioState struct {
	ids     []string
	answer  string
	session *Session
	sched   *timer.ManualScheduler
	events  <-chan Event
	cancel  func()
	seen    []Event
	report  model.Report
}

func initializeScenario(sc *godog.ScenarioContext) {
	st := &scenarioState{}

	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if st.cancel != nil {
			st.cancel()
		}
		return ctx, err
	})

	sc.Step(`^a practice page with math questions "([^"]*)" and reading questions "([^"]*)"$`, st.givenPage)
	sc.Step(`^every correct answer is "([^"]*)"$`, st.givenAnswer)
	sc.Step(`^I select "([^"]*)" for "([^"]*)"$`, st.selectAnswer)
	sc.Step(`^I grade the page$`, st.gradePage)
	sc.Step(`^I (start|stop) the (math|reading) timer$`, st.toggleTimer)
	sc.Step(`^(\d+) seconds pass$`, st.secondsPass)
	sc.Step(`^I take the reading expiry action$`, st.expiryAction)
	sc.Step(`^the (overall|math|reading) score is (\d+) of (\d+)$`, st.scoreIs)
	sc.Step(`^the overall percentage is (\d+)$`, st.overallPercentIs)
	sc.Step(`^the results are ordered "([^"]*)"$`, st.resultsOrdered)
	sc.Step(`^the (math|reading) timer shows "([^"]*)"$`, st.timerShows)
	sc.Step(`^the (math|reading) timer has elapsed (\d+) seconds$`, st.timerElapsed)
	sc.Step(`^the reading expiry offers to grade now$`, st.expiryOffersGradeNow)
	sc.Step(`^no timer is running$`, st.noTimerRunning)
}

func (s *scenarioState) givenPage(math, reading string) error {
	s.ids = append(strings.Split(math, ","), strings.Split(reading, ",")...)
	return nil
}

func (s *scenarioState) givenAnswer(answer string) error {
	s.answer = answer
	f := bank.File{Title: "features"}
	for _, id := range s.ids {
		f.Questions = append(f.Questions, bank.QuestionImport{
			ID:      id,
			Answer:  answer,
			Options: []model.Option{{Value: "A"}, {Value: "B"}, {Value: "C"}},
		})
	}
	exam, err := bank.Build(f)
	if err != nil {
		return err
	}
	s.sched = timer.NewManualScheduler()
	s.session = New(exam, Config{}, s.sched)
	s.events, s.cancel = s.session.Subscribe()
	return nil
}

func (s *scenarioState) selectAnswer(value, id string) error {
	return s.session.Select(id, value)
}

func (s *scenarioState) gradePage() error {
	s.report = s.session.Grade(s.session.Selections())
	return nil
}

func (s *scenarioState) toggleTimer(action, section string) error {
	sec := model.Section(section)
	if action == "start" {
		_, err := s.session.StartTimer(sec)
		return err
	}
	_, err := s.session.StopTimer(sec)
	return err
}

func (s *scenarioState) secondsPass(n int) error {
	for range n {
		s.sched.Advance(1)
		s.collect()
	}
	return nil
}

func (s *scenarioState) collect() {
	for {
		select {
		case ev := <-s.events:
			s.seen = append(s.seen, ev)
		default:
			return
		}
	}
}

func (s *scenarioState) expiryAction() error {
	report, ok := s.session.ExpiryAction(model.SectionReading)
	if !ok {
		return fmt.Errorf("reading expiry action not available")
	}
	s.report = report
	return nil
}

func (s *scenarioState) scoreIs(which string, correct, total int) error {
	var got model.Tally
	switch which {
	case "overall":
		got = s.report.Scores.Overall
	case "math":
		got = s.report.Scores.Math
	default:
		got = s.report.Scores.Reading
	}
	if got != (model.Tally{Correct: correct, Total: total}) {
		return fmt.Errorf("%s score = %d of %d, want %d of %d", which, got.Correct, got.Total, correct, total)
	}
	return nil
}

func (s *scenarioState) overallPercentIs(want int) error {
	if got := s.report.Scores.Overall.Percent(); got != want {
		return fmt.Errorf("overall percentage = %d, want %d", got, want)
	}
	return nil
}

func (s *scenarioState) resultsOrdered(want string) error {
	var ids []string
	for _, r := range s.report.Results {
		ids = append(ids, r.ID)
	}
	if got := strings.Join(ids, ","); got != want {
		return fmt.Errorf("order = %s, want %s", got, want)
	}
	return nil
}

func (s *scenarioState) timerShows(section, want string) error {
	st, err := s.session.Timer(model.Section(section))
	if err != nil {
		return err
	}
	if st.Display != want {
		return fmt.Errorf("%s timer shows %s, want %s", section, st.Display, want)
	}
	return nil
}

func (s *scenarioState) timerElapsed(section string, want int) error {
	st, err := s.session.Timer(model.Section(section))
	if err != nil {
		return err
	}
	if st.Elapsed != want {
		return fmt.Errorf("%s timer elapsed %d, want %d", section, st.Elapsed, want)
	}
	return nil
}

func (s *scenarioState) expiryOffersGradeNow() error {
	for _, ev := range s.seen {
		if ev.Type == EventExpired && ev.Timer.Section == model.SectionReading {
			if ev.Notice == nil || ev.Notice.Action != model.ActionGradeNow {
				return fmt.Errorf("reading expiry notice has no grade-now action")
			}
			return nil
		}
	}
	return fmt.Errorf("no reading expiry event seen")
}

func (s *scenarioState) noTimerRunning() error {
	for _, st := range s.session.Timers() {
		if st.Running() {
			return fmt.Errorf("%s timer still running", st.Section)
		}
	}
	if n := s.sched.Active(); n != 0 {
		return fmt.Errorf("%d tick sources still registered", n)
	}
	return nil
}
