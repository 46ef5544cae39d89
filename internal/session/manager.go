package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Dev-Dami/Weather-App/internal/observability"
)

var ErrNotFound = errors.New("session not found")

// Mirror keeps a copy of session views outside this process.
type Mirror interface {
	Load(ctx context.Context, id string) (*View, error)
	Delete(ctx context.Context, id string) error
}

type Manager struct {
	deps   Deps
	ttl    time.Duration
	mirror Mirror

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(deps Deps, ttl time.Duration, mirror Mirror) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{deps: deps, ttl: ttl, mirror: mirror, sessions: map[string]*Session{}}
}

func (m *Manager) Create() *Session {
	s := New(uuid.NewString(), m.deps)
	m.mu.Lock()
	m.sessions[s.ID()] = s
	n := len(m.sessions)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))
	slog.Info("session created", "session", s.ID())
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Lookup returns the view of a live session, falling back to the mirror for
// sessions owned by another instance.
func (m *Manager) Lookup(ctx context.Context, id string) (View, error) {
	if s, err := m.Get(id); err == nil {
		return s.View(), nil
	}
	if m.mirror == nil {
		return View{}, ErrNotFound
	}
	v, err := m.mirror.Load(ctx, id)
	if err != nil {
		return View{}, err
	}
	if v == nil {
		return View{}, ErrNotFound
	}
	return *v, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))

	if !ok {
		return ErrNotFound
	}
	s.Close()
	if m.mirror != nil {
		if err := m.mirror.Delete(ctx, id); err != nil {
			slog.Warn("failed to delete mirrored session", "session", id, "error", err)
		}
	}
	return nil
}

// Sweep closes sessions idle for longer than the TTL and returns how many were
// removed.
func (m *Manager) Sweep(now time.Time) int {
	var expired []*Session
	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastSeen()) > m.ttl {
			expired = append(expired, s)
			delete(m.sessions, id)
		}
	}
	n := len(m.sessions)
	m.mu.Unlock()
	observability.ActiveSessions.Set(float64(n))

	for _, s := range expired {
		s.Close()
		slog.Info("session expired", "session", s.ID())
	}
	return len(expired)
}

// Run sweeps expired sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	interval := m.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			m.Sweep(now)
		}
	}
}

// Close closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = map[string]*Session{}
	m.mu.Unlock()
	observability.ActiveSessions.Set(0)
	for _, s := range all {
		s.Close()
	}
}
