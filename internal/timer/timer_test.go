package timer

import (
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/aptitude/internal/model"
)

func newTestTimer(t *testing.T, duration time.Duration) (*Timer, *ManualScheduler, *[]State, *[]State) {
	t.Helper()
	sched := NewManualScheduler()
	var ticks, expiries []State
	tm := New(model.SectionMath, duration, sched, Options{
		OnTick:   func(s State) { ticks = append(ticks, s) },
		OnExpire: func(s State) { expiries = append(expiries, s) },
	})
	return tm, sched, &ticks, &expiries
}

func TestFormatClock(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{3000, "50:00"},
		{2999, "49:59"},
		{61, "01:01"},
		{9, "00:09"},
		{0, "00:00"},
		{-5, "00:00"},
		{6000, "100:00"},
	}
	for _, tt := range tests {
		if got := FormatClock(tt.seconds); got != tt.want {
			t.Errorf("FormatClock(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}
}

func TestNewTimerIsIdleAtFullDuration(t *testing.T) {
	tm, sched, _, _ := newTestTimer(t, 0)
	st := tm.Snapshot()
	if st.Phase != PhaseIdle || st.Elapsed != 0 {
		t.Errorf("state = %+v", st)
	}
	if st.Duration != 3000 || st.Display != "50:00" {
		t.Errorf("default duration: got %d / %q, want 3000 / 50:00", st.Duration, st.Display)
	}
	if sched.Active() != 0 {
		t.Errorf("idle timer registered %d tick sources", sched.Active())
	}
}

func TestTickCountsDown(t *testing.T) {
	tm, sched, ticks, _ := newTestTimer(t, 50*time.Minute)
	if !tm.Start() {
		t.Fatal("Start returned false on idle timer")
	}
	sched.Advance(61)

	st := tm.Snapshot()
	if st.Elapsed != 61 || st.Remaining != 2939 {
		t.Errorf("state = %+v", st)
	}
	if st.Display != "48:59" {
		t.Errorf("display = %q, want 48:59", st.Display)
	}
	if len(*ticks) != 61 {
		t.Errorf("ticks = %d, want 61", len(*ticks))
	}
}

func TestStartIsIdempotent(t *testing.T) {
	tm, sched, _, _ := newTestTimer(t, 50*time.Minute)
	tm.Start()
	sched.Advance(10)

	if tm.Start() {
		t.Error("second Start should be a no-op")
	}
	if got := tm.Snapshot().Elapsed; got != 10 {
		t.Errorf("elapsed after second Start = %d, want 10", got)
	}
	if sched.Active() != 1 {
		t.Errorf("tick sources = %d, want 1", sched.Active())
	}

	sched.Advance(1)
	if got := tm.Snapshot().Elapsed; got != 11 {
		t.Errorf("elapsed = %d, want 11 (one tick per second)", got)
	}
}

func TestStopResets(t *testing.T) {
	tm, sched, ticks, _ := newTestTimer(t, 50*time.Minute)
	tm.Start()
	sched.Advance(100)

	st := tm.Stop()
	if st.Phase != PhaseIdle || st.Elapsed != 0 || st.Display != "50:00" {
		t.Errorf("after Stop: %+v", st)
	}
	if sched.Active() != 0 {
		t.Errorf("tick source still registered after Stop")
	}

	before := len(*ticks)
	sched.Advance(5)
	if len(*ticks) != before {
		t.Error("ticks fired after Stop")
	}

	// Stopping an idle timer is harmless.
	tm.Stop()
}

func TestExpiry(t *testing.T) {
	tm, sched, ticks, expiries := newTestTimer(t, 50*time.Minute)
	tm.Start()
	sched.Advance(3000)

	st := tm.Snapshot()
	if st.Phase != PhaseExpired || st.Running() {
		t.Fatalf("phase = %s, want expired", st.Phase)
	}
	if st.Display != "00:00" || st.Remaining != 0 {
		t.Errorf("display = %q remaining = %d", st.Display, st.Remaining)
	}
	if len(*expiries) != 1 {
		t.Fatalf("expiries = %d, want 1", len(*expiries))
	}
	if sched.Active() != 0 {
		t.Error("tick source still registered after expiry")
	}

	sched.Advance(10)
	if len(*ticks) != 3000 {
		t.Errorf("ticks = %d, want 3000", len(*ticks))
	}
	if tm.Snapshot().Display != "00:00" {
		t.Error("display went past 00:00")
	}
}

func TestRestartAfterExpiry(t *testing.T) {
	tm, sched, _, _ := newTestTimer(t, 3*time.Second)
	tm.Start()
	sched.Advance(3)
	if tm.Snapshot().Phase != PhaseExpired {
		t.Fatal("expected expired")
	}
	if !tm.Start() {
		t.Fatal("Start after expiry should restart")
	}
	if st := tm.Snapshot(); st.Elapsed != 0 || st.Display != "00:03" {
		t.Errorf("restart state = %+v", st)
	}
}

func TestExpiryCallbackMayStopTimer(t *testing.T) {
	sched := NewManualScheduler()
	var tm *Timer
	tm = New(model.SectionReading, 2*time.Second, sched, Options{
		OnExpire: func(State) { tm.Stop() },
	})
	tm.Start()
	sched.Advance(2)
	if st := tm.Snapshot(); st.Phase != PhaseIdle || st.Display != "00:02" {
		t.Errorf("state = %+v", st)
	}
}

func TestRealSchedulerStops(t *testing.T) {
	var mu sync.Mutex
	count := 0
	cancel := RealScheduler{}.Every(5*time.Millisecond, func() {
		mu.Lock()
		count++
		mu.Unlock()
	})
	time.Sleep(40 * time.Millisecond)
	cancel()
	cancel()

	mu.Lock()
	after := count
	mu.Unlock()
	if after == 0 {
		t.Fatal("expected at least one tick")
	}

	time.Sleep(30 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if count > after+1 {
		t.Errorf("ticks continued after cancel: %d -> %d", after, count)
	}
}
