package practice

import (
	"log/slog"

	"github.com/pavelanni/aptitude/internal/grader"
	"github.com/pavelanni/aptitude/internal/model"
)

// Policies selects the threshold pair used at each place a percentage is coloured.
type Policies struct {
	// Summary colours the three progress bars.
	Summary model.Thresholds
	// Breakdown colours the per-section headings of the breakdown list.
	Breakdown model.Thresholds
}

// DefaultPolicies keeps the two colouring rules of the practice site apart.
var DefaultPolicies = Policies{
	Summary:   grader.PolicyResults,
	Breakdown: grader.PolicySummary,
}

// Bar is one progress indicator of the score summary.
type Bar struct {
	Label    string         `json:"label"`
	Tally    model.Tally    `json:"tally"`
	Percent  int            `json:"percent"`
	Severity model.Severity `json:"severity"`
}

// SectionBreakdown is the per-question list of one section.
type SectionBreakdown struct {
	Section  model.Section          `json:"section"`
	Tally    model.Tally            `json:"tally"`
	Percent  int                    `json:"percent"`
	Severity model.Severity         `json:"severity"`
	Results  []model.QuestionResult `json:"results"`
}

// Results is the render model of a grading pass. A nil or empty part means the
// page has no mount for it.
type Results struct {
	Report    model.Report       `json:"report"`
	Bars      []Bar              `json:"bars,omitempty"`
	Sections  []SectionBreakdown `json:"sections,omitempty"`
	Notice    *model.Notice      `json:"notice,omitempty"`
	ShowPanel bool               `json:"show_panel"`
	Skipped   []model.Mount      `json:"skipped,omitempty"`
}

// Present turns a report into a render model for layout. Each absent optional mount
// is logged and skipped; the remaining parts are still built.
func Present(report model.Report, layout model.Layout, p Policies) Results {
	out := Results{Report: report}

	out.ShowPanel = layout.Has(model.MountResults)
	if !out.ShowPanel {
		out.Skipped = append(out.Skipped, skip(model.MountResults))
	}

	if layout.Has(model.MountScoreSummary) {
		s := report.Scores
		out.Bars = []Bar{
			bar("overall", s.Overall, p.Summary),
			bar(string(model.SectionMath), s.Math, p.Summary),
			bar(string(model.SectionReading), s.Reading, p.Summary),
		}
	} else {
		out.Skipped = append(out.Skipped, skip(model.MountScoreSummary))
	}

	if layout.Has(model.MountBreakdown) {
		for _, sec := range model.Sections {
			tally := report.Scores.Section(sec)
			out.Sections = append(out.Sections, SectionBreakdown{
				Section:  sec,
				Tally:    tally,
				Percent:  tally.Percent(),
				Severity: grader.Classify(tally.Percent(), p.Breakdown),
				Results:  report.SectionResults(sec),
			})
		}
	} else {
		out.Skipped = append(out.Skipped, skip(model.MountBreakdown))
	}

	if layout.Has(model.MountNotice) {
		out.Notice = &model.Notice{Kind: model.NoticeSuccess, Message: "Grading complete."}
	} else {
		out.Skipped = append(out.Skipped, skip(model.MountNotice))
	}

	return out
}

func bar(label string, t model.Tally, th model.Thresholds) Bar {
	return Bar{
		Label:    label,
		Tally:    t,
		Percent:  t.Percent(),
		Severity: grader.Classify(t.Percent(), th),
	}
}

func skip(m model.Mount) model.Mount {
	slog.Warn("mount point not found, skipping update", "mount", m)
	return m
}
