package bank

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pavelanni/aptitude/internal/model"
)

func TestParseID(t *testing.T) {
	tests := []struct {
		id      string
		section model.Section
		number  int
		wantErr bool
	}{
		{"m1", model.SectionMath, 1, false},
		{"m12", model.SectionMath, 12, false},
		{"7", model.SectionReading, 7, false},
		{"0", model.SectionReading, 0, false},
		{"m", "", 0, true},
		{"", "", 0, true},
		{"x3", "", 0, true},
		{"m-1", "", 0, true},
		{"+4", "", 0, true},
		{"3a", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			sec, n, err := ParseID(tt.id)
			if tt.wantErr {
				if !errors.Is(err, model.ErrInvalidQuestionID) {
					t.Fatalf("ParseID(%q) error = %v, want ErrInvalidQuestionID", tt.id, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseID(%q): %v", tt.id, err)
			}
			if sec != tt.section || n != tt.number {
				t.Errorf("ParseID(%q) = (%s, %d), want (%s, %d)", tt.id, sec, n, tt.section, tt.number)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	exam, err := Load(filepath.Join("testdata", "sample.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if exam.Title != "Sample practice" {
		t.Errorf("title = %q", exam.Title)
	}
	if len(exam.Questions) != 4 {
		t.Fatalf("expected 4 questions, got %d", len(exam.Questions))
	}

	q, ok := exam.Question("3")
	if !ok {
		t.Fatal("question 3 not found")
	}
	if q.Section != model.SectionReading || q.Number != 3 || q.Answer != "B" {
		t.Errorf("question 3 = %+v", q)
	}
	q, _ = exam.Question("m2")
	if q.Section != model.SectionMath || q.Number != 2 {
		t.Errorf("question m2 = %+v", q)
	}

	if exam.Explanations["1"] != "Shut is the opposite of open." {
		t.Errorf("explanation 1 = %q", exam.Explanations["1"])
	}
	if got := exam.Duration(model.SectionMath); got != 30*time.Minute {
		t.Errorf("math duration = %v, want 30m", got)
	}
	if got := exam.Duration(model.SectionReading); got != model.DefaultSectionDuration {
		t.Errorf("reading duration = %v, want default", got)
	}
	if !exam.Layout.Has(model.MountClearAnswers) {
		t.Error("layout without mounts list should contain every mount")
	}
	if len(exam.Fingerprint) != 64 {
		t.Errorf("fingerprint = %q", exam.Fingerprint)
	}
}

func TestLoadJSONLayout(t *testing.T) {
	exam, err := Load(filepath.Join("testdata", "sample.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exam.Layout.Has(model.MountGradeButton) {
		t.Error("expected grade-button mount")
	}
	if exam.Layout.Has(model.MountScoreSummary) {
		t.Error("score-summary should be absent")
	}
	if err := exam.Layout.Require(model.MountNotice); !errors.Is(err, model.ErrMountMissing) {
		t.Errorf("Require(notice) = %v, want ErrMountMissing", err)
	}
	q, _ := exam.Question("4")
	if len(q.Options) != 0 || !q.HasOption("anything") {
		t.Errorf("question without options should accept any value: %+v", q)
	}
}

func TestBuildRejects(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"bad id", File{Questions: []QuestionImport{{ID: "q1", Answer: "A"}}}},
		{"duplicate", File{Questions: []QuestionImport{{ID: "m1", Answer: "A"}, {ID: "m1", Answer: "B"}}}},
		{"no answer", File{Questions: []QuestionImport{{ID: "1"}}}},
		{"answer not an option", File{Questions: []QuestionImport{{
			ID: "1", Answer: "C", Options: []model.Option{{Value: "A"}, {Value: "B"}},
		}}}},
		{"bad duration section", File{Durations: map[string]string{"science": "10m"}}},
		{"bad duration value", File{Durations: map[string]string{"math": "ten"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.file); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestBuildRejectsUnknownMount(t *testing.T) {
	f := File{
		Questions: []QuestionImport{{ID: "m1", Answer: "A"}},
		Layout:    &LayoutImport{Mounts: []string{"results", "grade-btn"}},
	}
	_, err := Build(f)
	if !errors.Is(err, model.ErrUnknownMount) {
		t.Fatalf("Build error = %v, want ErrUnknownMount", err)
	}
	if !strings.Contains(err.Error(), "grade-btn") {
		t.Errorf("error %q does not name the mount", err)
	}

	f.Layout.Mounts = []string{" grade-button ", "results"}
	exam, err := Build(f)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !exam.Layout.Has(model.MountGradeButton) {
		t.Error("padded mount name not accepted")
	}
}

func TestLoadAnswers(t *testing.T) {
	answers, err := LoadAnswers(filepath.Join("testdata", "answers.yaml"))
	if err != nil {
		t.Fatalf("LoadAnswers: %v", err)
	}
	want := map[string]string{"m1": "A", "m2": "A", "3": "B"}
	if len(answers) != len(want) {
		t.Fatalf("answers = %v", answers)
	}
	for k, v := range want {
		if answers[k] != v {
			t.Errorf("answers[%q] = %q, want %q", k, answers[k], v)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join("testdata", "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
