package grader

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pavelanni/aptitude/internal/model"
)

func question(id string, sec model.Section, n int, answer string) model.Question {
	return model.Question{
		ID:      id,
		Section: sec,
		Number:  n,
		Answer:  answer,
		Options: []model.Option{{Value: "A"}, {Value: "B"}, {Value: "C"}},
	}
}

func sampleQuestions() []model.Question {
	return []model.Question{
		question("m2", model.SectionMath, 2, "B"),
		question("3", model.SectionReading, 3, "C"),
		question("m1", model.SectionMath, 1, "A"),
		question("1", model.SectionReading, 1, "A"),
	}
}

func TestGradeDisplayOrder(t *testing.T) {
	report := Grade(sampleQuestions(), nil, nil)

	var got []string
	for _, r := range report.Results {
		got = append(got, r.ID)
	}
	want := []string{"m1", "m2", "1", "3"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestGradeTallies(t *testing.T) {
	tests := []struct {
		name       string
		selections map[string]string
		overall    model.Tally
		math       model.Tally
		reading    model.Tally
	}{
		{"nothing answered", nil,
			model.Tally{Correct: 0, Total: 4}, model.Tally{Correct: 0, Total: 2}, model.Tally{Correct: 0, Total: 2}},
		{"all correct", map[string]string{"m1": "A", "m2": "B", "1": "A", "3": "C"},
			model.Tally{Correct: 4, Total: 4}, model.Tally{Correct: 2, Total: 2}, model.Tally{Correct: 2, Total: 2}},
		{"mixed", map[string]string{"m1": "A", "m2": "C", "3": "C"},
			model.Tally{Correct: 2, Total: 4}, model.Tally{Correct: 1, Total: 2}, model.Tally{Correct: 1, Total: 2}},
		{"empty value is unanswered", map[string]string{"m1": "", "1": ""},
			model.Tally{Correct: 0, Total: 4}, model.Tally{Correct: 0, Total: 2}, model.Tally{Correct: 0, Total: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Grade(sampleQuestions(), tt.selections, nil).Scores
			if s.Overall != tt.overall {
				t.Errorf("overall = %+v, want %+v", s.Overall, tt.overall)
			}
			if s.Math != tt.math {
				t.Errorf("math = %+v, want %+v", s.Math, tt.math)
			}
			if s.Reading != tt.reading {
				t.Errorf("reading = %+v, want %+v", s.Reading, tt.reading)
			}
			if s.Overall != s.Math.Add(s.Reading) {
				t.Errorf("overall %+v != math %+v + reading %+v", s.Overall, s.Math, s.Reading)
			}
		})
	}
}

func TestGradeOutcomesAreExclusive(t *testing.T) {
	selections := map[string]string{"m1": "A", "m2": "A"}
	report := Grade(sampleQuestions(), selections, map[string]string{"m1": "I times R"})

	counts := map[model.Outcome]int{}
	for _, r := range report.Results {
		counts[r.Outcome]++
		if r.Outcome == model.OutcomeUnanswered && r.Correct() {
			t.Errorf("%s: unanswered counted as correct", r.ID)
		}
	}
	if counts[model.OutcomeCorrect] != 1 || counts[model.OutcomeIncorrect] != 1 || counts[model.OutcomeUnanswered] != 2 {
		t.Errorf("outcome counts = %v", counts)
	}
	if sum := counts[model.OutcomeCorrect] + counts[model.OutcomeIncorrect] + counts[model.OutcomeUnanswered]; sum != len(report.Results) {
		t.Errorf("outcomes %d != results %d", sum, len(report.Results))
	}

	first := report.Results[0]
	if first.ID != "m1" || first.Explanation != "I times R" {
		t.Errorf("first result = %+v", first)
	}
	if got := report.Results[2].SelectedOrSentinel(); got != model.NoAnswer {
		t.Errorf("unanswered selection rendered as %q, want %q", got, model.NoAnswer)
	}
}

func TestGradeDoesNotReorderInput(t *testing.T) {
	qs := sampleQuestions()
	_ = Grade(qs, nil, nil)
	if qs[0].ID != "m2" {
		t.Errorf("input slice was reordered: first = %s", qs[0].ID)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		correct, total, want int
	}{
		{0, 0, 0},
		{0, 5, 0},
		{5, 5, 100},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13}, // 12.5 rounds up
		{1, 2, 50},
	}
	for _, tt := range tests {
		if got := Percent(tt.correct, tt.total); got != tt.want {
			t.Errorf("Percent(%d, %d) = %d, want %d", tt.correct, tt.total, got, tt.want)
		}
	}
}

func TestClassifyBoundaries(t *testing.T) {
	tests := []struct {
		percent int
		results model.Severity
		summary model.Severity
	}{
		{39, model.SeverityFail, model.SeverityFail},
		{40, model.SeverityBorderline, model.SeverityBorderline},
		{59, model.SeverityBorderline, model.SeverityBorderline},
		{60, model.SeverityPass, model.SeverityBorderline},
		{70, model.SeverityPass, model.SeverityBorderline},
		{71, model.SeverityPass, model.SeverityPass},
		{0, model.SeverityFail, model.SeverityFail},
		{100, model.SeverityPass, model.SeverityPass},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.percent), func(t *testing.T) {
			if got := Classify(tt.percent, PolicyResults); got != tt.results {
				t.Errorf("results policy: Classify(%d) = %s, want %s", tt.percent, got, tt.results)
			}
			if got := Classify(tt.percent, PolicySummary); got != tt.summary {
				t.Errorf("summary policy: Classify(%d) = %s, want %s", tt.percent, got, tt.summary)
			}
		})
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    model.Thresholds
		wantErr bool
	}{
		{"results", PolicyResults, false},
		{"Summary", PolicySummary, false},
		{"75/50", model.Thresholds{PassMin: 75, BorderlineMin: 50}, false},
		{" 60 / 40 ", model.Thresholds{PassMin: 60, BorderlineMin: 40}, false},
		{"strictest", model.Thresholds{}, true},
		{"40/60", model.Thresholds{}, true},
		{"101/40", model.Thresholds{}, true},
		{"a/b", model.Thresholds{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePolicy(tt.in)
			if tt.wantErr {
				if !errors.Is(err, model.ErrUnknownPolicy) {
					t.Fatalf("ParsePolicy(%q) error = %v, want ErrUnknownPolicy", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePolicy(%q): %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %+v, want %+v", tt.in, got, tt.want)
			}
		})
	}
}
