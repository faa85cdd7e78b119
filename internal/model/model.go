package model

import (
	"errors"
	"math"
	"time"
)

var (
	// ErrMountMissing is returned when a required mount point is absent from the page layout.
	ErrMountMissing = errors.New("mount point not found")
	// ErrUnknownMount is returned when a layout names a mount point the page never has.
	ErrUnknownMount = errors.New("unknown mount point")
	// ErrUnknownSection is returned for a section name other than math or reading.
	ErrUnknownSection = errors.New("unknown section")
	// ErrSessionNotFound is returned when a page session id is not registered.
	ErrSessionNotFound = errors.New("practice session not found")
	// ErrInvalidQuestionID is returned when an identifier is neither m<N> nor <N>.
	ErrInvalidQuestionID = errors.New("invalid question id")
	// ErrUnknownQuestion is returned when a selection names a question not on the page.
	ErrUnknownQuestion = errors.New("unknown question")
	// ErrUnknownOption is returned when a selection is not one of the question's options.
	ErrUnknownOption = errors.New("unknown option")
	// ErrNotConfirmed is returned when a destructive action was not confirmed.
	ErrNotConfirmed = errors.New("action not confirmed")
	// ErrUnknownPolicy is returned for a threshold policy that cannot be parsed.
	ErrUnknownPolicy = errors.New("unknown threshold policy")
)

// Section is one of the two independent question groups.
type Section string

const (
	SectionMath    Section = "math"
	SectionReading Section = "reading"
)

// Sections lists the sections in display order.
var Sections = []Section{SectionMath, SectionReading}

// ParseSection validates a section name.
func ParseSection(s string) (Section, error) {
	switch Section(s) {
	case SectionMath, SectionReading:
		return Section(s), nil
	}
	return "", ErrUnknownSection
}

// Prefix returns the identifier prefix used by questions of the section.
func (s Section) Prefix() string {
	if s == SectionMath {
		return "m"
	}
	return ""
}

// readingKeyOffset places reading questions after math questions in display order.
const readingKeyOffset = 1000

// Option is one selectable answer of a question.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

// Question is a single multiple-choice item. Section and Number are fixed when the
// identifier is parsed and never re-derived.
type Question struct {
	ID      string   `json:"id"`
	Section Section  `json:"section"`
	Number  int      `json:"number"`
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Answer  string   `json:"-"`
}

// SortKey orders math questions by number, then reading questions by number.
func (q Question) SortKey() int {
	if q.Section == SectionReading {
		return q.Number + readingKeyOffset
	}
	return q.Number
}

// HasOption reports whether value is one of the question's options.
// Questions without listed options accept any value.
func (q Question) HasOption(value string) bool {
	if len(q.Options) == 0 {
		return true
	}
	for _, o := range q.Options {
		if o.Value == value {
			return true
		}
	}
	return false
}

// Tally counts correct answers out of a total.
type Tally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Add merges another tally into t.
func (t Tally) Add(o Tally) Tally {
	return Tally{Correct: t.Correct + o.Correct, Total: t.Total + o.Total}
}

// Percent returns the rounded percentage of correct answers, 0 for an empty tally.
func (t Tally) Percent() int {
	if t.Total == 0 {
		return 0
	}
	return int(math.Round(float64(t.Correct) / float64(t.Total) * 100))
}

// Scores holds the three tallies of a grading pass.
type Scores struct {
	Overall Tally `json:"overall"`
	Math    Tally `json:"math"`
	Reading Tally `json:"reading"`
}

// Section returns the tally for one section.
func (s Scores) Section(sec Section) Tally {
	if sec == SectionMath {
		return s.Math
	}
	return s.Reading
}

// Outcome classifies a single question after grading.
type Outcome string

const (
	OutcomeCorrect    Outcome = "correct"
	OutcomeIncorrect  Outcome = "incorrect"
	OutcomeUnanswered Outcome = "unanswered"
)

// NoAnswer is displayed in place of a missing selection.
const NoAnswer = "No answer"

// QuestionResult is the graded view of one question.
type QuestionResult struct {
	ID          string  `json:"id"`
	Section     Section `json:"section"`
	Number      int     `json:"number"`
	Prompt      string  `json:"prompt,omitempty"`
	Selected    string  `json:"selected"`
	Answer      string  `json:"answer"`
	Outcome     Outcome `json:"outcome"`
	Explanation string  `json:"explanation,omitempty"`
}

// Correct reports whether the question was answered correctly.
func (r QuestionResult) Correct() bool { return r.Outcome == OutcomeCorrect }

// SelectedOrSentinel returns the selection or the NoAnswer sentinel.
func (r QuestionResult) SelectedOrSentinel() string {
	if r.Selected == "" {
		return NoAnswer
	}
	return r.Selected
}

// Report is the output of one grading pass, in display order.
type Report struct {
	Scores   Scores           `json:"scores"`
	Results  []QuestionResult `json:"results"`
	GradedAt time.Time        `json:"graded_at"`
}

// SectionResults returns the results belonging to sec, preserving order.
func (r Report) SectionResults(sec Section) []QuestionResult {
	var out []QuestionResult
	for _, qr := range r.Results {
		if qr.Section == sec {
			out = append(out, qr)
		}
	}
	return out
}

// Severity is the colour band of a percentage.
type Severity string

const (
	SeverityPass       Severity = "pass"
	SeverityBorderline Severity = "borderline"
	SeverityFail       Severity = "fail"
)

// Thresholds is the (passMin, borderlineMin) pair of a band policy.
type Thresholds struct {
	PassMin       int `json:"pass_min" yaml:"pass_min"`
	BorderlineMin int `json:"borderline_min" yaml:"borderline_min"`
}

// NoticeKind mirrors the notification types of the practice site.
type NoticeKind string

const (
	NoticeInfo    NoticeKind = "info"
	NoticeSuccess NoticeKind = "success"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// NoticeAction is an action offered by a notice.
type NoticeAction string

const (
	// ActionGradeNow stops all timers and grades the frozen answers.
	ActionGradeNow NoticeAction = "grade-now"
)

// Notice is a transient, non-blocking notification.
type Notice struct {
	Kind    NoticeKind   `json:"kind"`
	Message string       `json:"message"`
	Action  NoticeAction `json:"action,omitempty"`
}
