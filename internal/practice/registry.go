package practice

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/pavelanni/aptitude/internal/model"
)

// Registry keeps the open pages of a server in memory.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Add registers a session.
func (r *Registry) Add(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.ID()] = s
}

// Get returns a session by id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, model.ErrSessionNotFound
	}
	return s, nil
}

// Remove stops a session's timers and forgets it.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if ok {
		s.StopAll()
	}
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Close stops the timers of every open session and forgets them all.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.StopAll()
	}
}

// Sweep removes the pages without a live feed that were last used before cutoff and
// returns how many went.
func (r *Registry) Sweep(cutoff time.Time) int {
	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		last, feeds := s.Activity()
		if feeds == 0 && last.Before(cutoff) {
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		s.StopAll()
		slog.Debug("evicted idle practice page", "session", s.ID())
	}
	return len(stale)
}

// Run sweeps pages idle for longer than maxIdle every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := r.Sweep(now.Add(-maxIdle)); n > 0 {
				slog.Info("evicted idle practice pages", "count", n, "open", r.Len())
			}
		}
	}
}
