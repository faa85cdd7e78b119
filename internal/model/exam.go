package model

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// DefaultSectionDuration is the length of a timed section.
const DefaultSectionDuration = 50 * time.Minute

// Exam is a loaded practice page: its questions, explanations and layout.
type Exam struct {
	Title        string
	Questions    []Question
	Explanations map[string]string
	Layout       Layout
	Durations    map[Section]time.Duration
	Fingerprint  string
}

// Question returns the question with the given id.
func (e Exam) Question(id string) (Question, bool) {
	for _, q := range e.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// Duration returns the configured duration of a section, falling back to the default.
func (e Exam) Duration(sec Section) time.Duration {
	if d, ok := e.Durations[sec]; ok && d > 0 {
		return d
	}
	return DefaultSectionDuration
}

// Mount names a UI surface of the practice page.
type Mount string

const (
	MountGradeButton    Mount = "grade-button"
	MountResults        Mount = "results"
	MountScoreSummary   Mount = "score-summary"
	MountBreakdown      Mount = "breakdown"
	MountNotice         Mount = "notice"
	MountMathStart      Mount = "math-start"
	MountMathStop       Mount = "math-stop"
	MountMathDisplay    Mount = "math-display"
	MountReadingStart   Mount = "reading-start"
	MountReadingStop    Mount = "reading-stop"
	MountReadingDisplay Mount = "reading-display"
	MountClearAnswers   Mount = "clear-answers"
)

// AllMounts lists every mount a full page provides.
var AllMounts = []Mount{
	MountGradeButton, MountResults, MountScoreSummary, MountBreakdown, MountNotice,
	MountMathStart, MountMathStop, MountMathDisplay,
	MountReadingStart, MountReadingStop, MountReadingDisplay,
	MountClearAnswers,
}

// ParseMount validates a mount name.
func ParseMount(s string) (Mount, error) {
	m := Mount(strings.TrimSpace(s))
	if !slices.Contains(AllMounts, m) {
		return "", fmt.Errorf("%q: %w", s, ErrUnknownMount)
	}
	return m, nil
}

// StartMount returns the start trigger of a section's timer.
func StartMount(sec Section) Mount {
	if sec == SectionMath {
		return MountMathStart
	}
	return MountReadingStart
}

// StopMount returns the stop trigger of a section's timer.
func StopMount(sec Section) Mount {
	if sec == SectionMath {
		return MountMathStop
	}
	return MountReadingStop
}

// DisplayMount returns the countdown display of a section's timer.
func DisplayMount(sec Section) Mount {
	if sec == SectionMath {
		return MountMathDisplay
	}
	return MountReadingDisplay
}

// Layout is the set of mounts present on a page. The zero value has every mount.
type Layout struct {
	mounts map[Mount]bool
}

// NewLayout builds a layout containing only the given mounts.
func NewLayout(mounts ...Mount) Layout {
	l := Layout{mounts: make(map[Mount]bool, len(mounts))}
	for _, m := range mounts {
		l.mounts[m] = true
	}
	return l
}

// Has reports whether the mount is present.
func (l Layout) Has(m Mount) bool {
	if l.mounts == nil {
		return true
	}
	return l.mounts[m]
}

// Require returns ErrMountMissing wrapped with the mount name when m is absent.
func (l Layout) Require(m Mount) error {
	if !l.Has(m) {
		return fmt.Errorf("%s: %w", m, ErrMountMissing)
	}
	return nil
}

// Mounts returns the present mounts in AllMounts order.
func (l Layout) Mounts() []Mount {
	var out []Mount
	for _, m := range AllMounts {
		if l.Has(m) {
			out = append(out, m)
		}
	}
	return out
}
