package action

import "sync"

// Memory holds the actions extracted from the previous turn. The next
// inference call renders them onto its screenshot.
type Memory struct {
	mu      sync.RWMutex
	actions []Action
}

// NewMemory creates an empty memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Set replaces the remembered actions.
func (m *Memory) Set(actions []Action) {
	cp := make([]Action, len(actions))
	copy(cp, actions)

	m.mu.Lock()
	m.actions = cp
	m.mu.Unlock()
}

// Snapshot returns a copy of the remembered actions.
func (m *Memory) Snapshot() []Action {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Action, len(m.actions))
	copy(out, m.actions)
	return out
}
