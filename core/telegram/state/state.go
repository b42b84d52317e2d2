// Package state tracks short-lived per-user conversation state that is
// not worth persisting, such as awaiting free-form command arguments.
package state

import "sync"

// State identifies a conversation step.
type State string

// StateIdle indicates there is no active conversation with the user.
const StateIdle State = "idle"

// Manager stores per-user conversation states in memory. The zero value
// is not usable; construct with NewManager.
type Manager struct {
	mu     sync.RWMutex
	states map[int64]State
}

// NewManager constructs an in-memory state manager.
func NewManager() *Manager {
	return &Manager{states: make(map[int64]State)}
}

// Set updates the state for a user.
func (m *Manager) Set(userID int64, st State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[userID] = st
}

// Get returns the current state of a user, or StateIdle if none exists.
func (m *Manager) Get(userID int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if st, ok := m.states[userID]; ok {
		return st
	}
	return StateIdle
}

// Clear resets the user back to idle.
func (m *Manager) Clear(userID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, userID)
}

// InProgress reports whether the user has an active state other than idle.
func (m *Manager) InProgress(userID int64) bool {
	return m.Get(userID) != StateIdle
}
