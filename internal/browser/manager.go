package browser

import (
	"errors"
	"sync"
)

// ErrClosed is returned by Manager.Session after Close.
var ErrClosed = errors.New("browser manager closed")

// Manager starts a Session on first use and hands the same one out until Close.
type Manager struct {
	cfg     Config
	newFunc func(Config) (*Session, error)

	mu      sync.Mutex
	session *Session
	closed  bool
}

// NewManager creates a manager; no browser is started until Session is called
func NewManager(cfg Config) *Manager {
	return &Manager{cfg: cfg, newFunc: New}
}

// Session returns the running session, starting it if needed.
// A failed start is not remembered, so the next call tries again.
func (m *Manager) Session() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrClosed
	}
	if m.session != nil {
		return m.session, nil
	}

	s, err := m.newFunc(m.cfg)
	if err != nil {
		return nil, err
	}
	m.session = s
	return s, nil
}

// Reset closes the current session, if any, so the next Session call starts a fresh one.
// Used after the browser died underneath a running session.
func (m *Manager) Reset() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.mu.Unlock()

	s.Close()
}

// Close tears down the session if one was started. Safe to call repeatedly.
func (m *Manager) Close() {
	m.mu.Lock()
	s := m.session
	m.session = nil
	m.closed = true
	m.mu.Unlock()

	s.Close()
}
