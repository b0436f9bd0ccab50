package application

import (
	"log/slog"
	"sync"
	"time"
)

// SessionManager maps file paths to their reconciliation sessions, enforcing
// the single-writer-per-file model: every open file has exactly one session
// and all of its thread mutation funnels through it.
type SessionManager struct {
	debounce time.Duration
	sink     ChangeSink
	logger   *slog.Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates an empty registry. All sessions it creates share
// the debounce delay and change sink.
func NewSessionManager(debounce time.Duration, sink ChangeSink, logger *slog.Logger) *SessionManager {
	return &SessionManager{
		debounce: debounce,
		sink:     sink,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// GetOrCreate returns the session for path, creating it on first use.
// The second return value reports whether the session already existed.
func (m *SessionManager) GetOrCreate(path string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[path]; ok {
		return s, true
	}

	s := NewSession(path, m.debounce, m.sink, m.logger)
	m.sessions[path] = s
	return s, false
}

// Get returns the session for path, or nil when the file is not open.
func (m *SessionManager) Get(path string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[path]
}

// All returns the current sessions. The slice is a copy; the sessions are
// shared.
func (m *SessionManager) All() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}

// Remove closes and forgets the session for path, typically when the editor
// closes the file.
func (m *SessionManager) Remove(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[path]; ok {
		s.Close()
		delete(m.sessions, path)
	}
}
