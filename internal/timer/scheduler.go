package timer

import (
	"sync"
	"time"
)

// Scheduler runs fn every interval until the returned cancel func is called.
type Scheduler interface {
	Every(interval time.Duration, fn func()) (cancel func())
}

// RealScheduler drives callbacks from a time.Ticker in its own goroutine.
type RealScheduler struct{}

// Every starts a ticker goroutine. A callback already running when cancel is
// called finishes; Timer discards such late ticks by generation.
func (RealScheduler) Every(interval time.Duration, fn func()) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				select {
				case <-done:
					return
				default:
				}
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

// ManualScheduler fires callbacks only when Advance is called.
type ManualScheduler struct {
	mu     sync.Mutex
	nextID int
	jobs   map[int]func()
}

// NewManualScheduler returns an empty manual scheduler.
func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{jobs: make(map[int]func())}
}

// Every registers fn; interval is ignored.
func (m *ManualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.jobs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.jobs, id)
	}
}

// Advance fires every registered callback n times, in registration order.
// Callbacks cancelled during the advance stop firing immediately.
func (m *ManualScheduler) Advance(n int) {
	for range n {
		for _, id := range m.ids() {
			m.mu.Lock()
			fn, ok := m.jobs[id]
			m.mu.Unlock()
			if ok {
				fn()
			}
		}
	}
}

// Active returns the number of registered callbacks.
func (m *ManualScheduler) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

func (m *ManualScheduler) ids() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]int, 0, len(m.jobs))
	for id := 0; id < m.nextID; id++ {
		if _, ok := m.jobs[id]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
