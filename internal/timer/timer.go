// Package timer implements the per-section countdown used during timed practice.
package timer

import (
	"fmt"
	"sync"
	"time"

	"github.com/pavelanni/aptitude/internal/model"
)

// Phase is the state of a section timer.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseExpired Phase = "expired"
)

// State is a point-in-time copy of a timer.
type State struct {
	Section   model.Section `json:"section"`
	Phase     Phase         `json:"phase"`
	Elapsed   int           `json:"elapsed"`
	Duration  int           `json:"duration"`
	Remaining int           `json:"remaining"`
	Display   string        `json:"display"`
}

// Running reports whether the timer is counting.
func (s State) Running() bool { return s.Phase == PhaseRunning }

// Options configures a Timer.
type Options struct {
	// Interval between ticks; one second when zero.
	Interval time.Duration
	// OnTick is called after every tick, outside the timer's lock.
	OnTick func(State)
	// OnExpire is called once when the elapsed time reaches the duration.
	OnExpire func(State)
}

// Timer counts elapsed seconds for one section. Only one tick source is active at a
// time; ticks from a cancelled source are discarded by generation.
type Timer struct {
	mu       sync.Mutex
	section  model.Section
	duration int
	elapsed  int
	phase    Phase
	gen      uint64
	cancel   func()
	sched    Scheduler
	opts     Options
}

// New creates an idle timer for a section.
func New(section model.Section, duration time.Duration, sched Scheduler, opts Options) *Timer {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if duration <= 0 {
		duration = model.DefaultSectionDuration
	}
	return &Timer{
		section:  section,
		duration: int(duration / time.Second),
		phase:    PhaseIdle,
		sched:    sched,
		opts:     opts,
	}
}

// Section returns the timer's section.
func (t *Timer) Section() model.Section { return t.section }

// Start begins counting from zero. It is a no-op returning false when the timer is
// already running.
func (t *Timer) Start() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.phase == PhaseRunning {
		return false
	}
	t.elapsed = 0
	t.phase = PhaseRunning
	t.gen++
	gen := t.gen
	t.cancel = t.sched.Every(t.opts.Interval, func() { t.tick(gen) })
	return true
}

// Stop cancels the tick source, resets elapsed to zero and returns to idle. The
// display is back to the full duration when Stop returns.
func (t *Timer) Stop() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
	t.phase = PhaseIdle
	t.elapsed = 0
	return t.snapshotLocked()
}

// Snapshot returns the current state.
func (t *Timer) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Timer) tick(gen uint64) {
	t.mu.Lock()
	if gen != t.gen || t.phase != PhaseRunning {
		t.mu.Unlock()
		return
	}
	t.elapsed++
	expired := t.elapsed >= t.duration
	if expired {
		t.stopLocked()
		t.phase = PhaseExpired
	}
	st := t.snapshotLocked()
	t.mu.Unlock()

	if t.opts.OnTick != nil {
		t.opts.OnTick(st)
	}
	if expired && t.opts.OnExpire != nil {
		t.opts.OnExpire(st)
	}
}

func (t *Timer) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.gen++
}

func (t *Timer) snapshotLocked() State {
	remaining := t.duration - t.elapsed
	if remaining < 0 {
		remaining = 0
	}
	return State{
		Section:   t.section,
		Phase:     t.phase,
		Elapsed:   t.elapsed,
		Duration:  t.duration,
		Remaining: remaining,
		Display:   FormatClock(remaining),
	}
}

// FormatClock renders seconds as zero-padded MM:SS. Values at or below zero render
// as "00:00".
func FormatClock(seconds int) string {
	if seconds <= 0 {
		return "00:00"
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
