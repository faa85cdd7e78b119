package views

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/a-h/templ"

	appI18n "github.com/pavelanni/aptitude/internal/i18n"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
)

func TestMain(m *testing.M) {
	if err := appI18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func render(t *testing.T, ctx context.Context, c templ.Component) string {
	t.Helper()
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		t.Fatalf("render: %v", err)
	}
	return sb.String()
}

func TestNotice(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name       string
		notice     *model.Notice
		want       []string
		wantHidden bool
	}{
		{
			name:       "empty surface",
			want:       []string{`id="notice"`, `notice-info`, `role="status" hidden`},
			wantHidden: true,
		},
		{
			name:   "reading expiry offers grade now",
			notice: &model.Notice{Kind: model.NoticeWarning, Message: "Time is up", Action: model.ActionGradeNow},
			want:   []string{"notice-warning", "Time is up", `value="reading-expiry">Grade now`},
		},
		{
			name:       "plain notice hides the button",
			notice:     &model.Notice{Kind: model.NoticeSuccess, Message: "Grading complete."},
			want:       []string{"notice-success", `value="reading-expiry" hidden>`},
			wantHidden: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := render(t, ctx, Notice(tt.notice))
			for _, w := range tt.want {
				if !strings.Contains(out, w) {
					t.Errorf("missing %q in %s", w, out)
				}
			}
			if got := strings.Contains(out, `role="status" hidden`); got != tt.wantHidden {
				t.Errorf("surface hidden = %v, want %v", got, tt.wantHidden)
			}
		})
	}
}

func TestResultsPanel(t *testing.T) {
	rep := model.Report{
		Scores: model.Scores{
			Overall: model.Tally{Correct: 1, Total: 2},
			Math:    model.Tally{Correct: 1, Total: 1},
			Reading: model.Tally{Correct: 0, Total: 1},
		},
		Results: []model.QuestionResult{
			{ID: "m1", Section: model.SectionMath, Number: 1, Selected: "A", Answer: "A", Outcome: model.OutcomeCorrect},
			{ID: "4", Section: model.SectionReading, Number: 4, Answer: "<b>", Outcome: model.OutcomeUnanswered, Explanation: "See line 3."},
		},
	}
	out := render(t, context.Background(), ResultsPanel(practice.Present(rep, model.Layout{}, practice.DefaultPolicies)))

	for _, w := range []string{
		`<a href="#q-m1">Math 1</a>`,
		`<a href="#q-4">Reading 4</a>`,
		"Selected: No answer",
		"&lt;b&gt;",
		"Explanation: See line 3.",
		`<h3 class="pass">Math: 1/1 (100%)</h3>`,
		`<h3 class="fail">Reading: 0/1 (0%)</h3>`,
		`aria-valuenow="50"`,
		`class="borderline" style="width:50%;"`,
	} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q", w)
		}
	}
}

func TestExamPageHonoursLayout(t *testing.T) {
	exam := model.Exam{
		Title: "Sample",
		Questions: []model.Question{
			{ID: "m1", Section: model.SectionMath, Number: 1, Prompt: "1 + 1?", Options: []model.Option{{Value: "A"}, {Value: "B"}}, Answer: "B"},
		},
		Layout: model.NewLayout(model.MountGradeButton, model.MountMathDisplay),
	}
	ctx := ContextWithCSRFToken(ContextWithBasePath(context.Background(), "/prep"), "tok")
	out := render(t, ctx, ExamPage(PageView{SessionID: "s1", Exam: exam, Selections: map[string]string{"m1": "B"}}))

	for _, w := range []string{
		`action="/prep/exam/s1/grade"`,
		`name="csrf_token" value="tok"`,
		`id="grade-button"`,
		`value="B" checked`,
	} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q", w)
		}
	}
	for _, absent := range []string{`id="clear-answers"`, `id="notice"`, `id="math-start"`} {
		if strings.Contains(out, absent) {
			t.Errorf("rendered %q without its mount", absent)
		}
	}
}
