// internal/state/mock.go
package state

import "sync"

// Mock is a test double for Manager.
type Mock struct {
	mu      sync.Mutex
	session *Session
	saves   []Session
	closed  bool
}

// NewMock creates a new mock state manager for testing.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) GetSession() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, nil //nolint:nilnil // mirrors Manager on first run
	}
	s := *m.session
	return &s, nil
}

func (m *Mock) SaveSession(s Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves = append(m.saves, s)
	m.session = &s
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Test helpers

func (m *Mock) SetSession(s *Session) {
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
}

func (m *Mock) Saves() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Session(nil), m.saves...)
}

func (m *Mock) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
