package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pavelanni/aptitude/internal/grader"
	"github.com/pavelanni/aptitude/internal/model"
	"github.com/pavelanni/aptitude/internal/practice"
)

func sampleResults(layout model.Layout) practice.Results {
	qs := []model.Question{
		{ID: "m1", Section: model.SectionMath, Number: 1, Answer: "A"},
		{ID: "m2", Section: model.SectionMath, Number: 2, Answer: "B"},
		{ID: "1", Section: model.SectionReading, Number: 1, Answer: "C"},
	}
	rep := grader.Grade(qs, map[string]string{"m1": "A", "m2": "C"}, map[string]string{"m1": "V = I * R"})
	return practice.Present(rep, layout, practice.DefaultPolicies)
}

func TestTextPlain(t *testing.T) {
	out := Text(sampleResults(model.Layout{}), true)

	for _, want := range []string{
		"Score summary",
		"Overall",
		" 33%  1/3",
		" 50%  1/2",
		"Math: 1/2 (50%)",
		"Reading: 0/1 (0%)",
		"✓ m1",
		"✗ m2",
		"selected: No answer",
		"V = I * R",
		"Grading complete.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("noColor output contains ANSI escapes")
	}
}

func TestTextSkipsAbsentParts(t *testing.T) {
	out := Text(sampleResults(model.NewLayout(model.MountGradeButton, model.MountBreakdown)), true)
	if strings.Contains(out, "Score summary") {
		t.Error("summary rendered without its mount")
	}
	if !strings.Contains(out, "Math: 1/2") {
		t.Error("breakdown missing")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, sampleResults(model.Layout{})); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	var decoded struct {
		Report struct {
			Scores model.Scores `json:"scores"`
		} `json:"report"`
		Bars []practice.Bar `json:"bars"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Report.Scores.Overall != (model.Tally{Correct: 1, Total: 3}) {
		t.Errorf("overall = %+v", decoded.Report.Scores.Overall)
	}
	if len(decoded.Bars) != 3 || decoded.Bars[0].Severity != model.SeverityFail {
		t.Errorf("bars = %+v", decoded.Bars)
	}
}

func TestTitle(t *testing.T) {
	if got := Title(model.SectionReading); got != "Reading" {
		t.Errorf("Title = %q", got)
	}
	if got := Title(""); got != "" {
		t.Errorf("Title(\"\") = %q", got)
	}
}
