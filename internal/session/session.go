// Package session tracks the app lock state for one running session.
// The unlocked flag lives here instead of in a global so every consumer
// shares a single, explicit state object.
package session

import "sync"

// Lock gates access to goal data when the app lock preference is on.
// The zero value is an unlocked session with the lock disabled.
type Lock struct {
	mu       sync.Mutex
	enabled  bool
	unlocked bool
}

func NewLock(enabled bool) *Lock {
	return &Lock{enabled: enabled}
}

// Locked reports whether the session still needs authentication.
func (l *Lock) Locked() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled && !l.unlocked
}

// Unlock marks the session authenticated until Relock or process exit.
func (l *Lock) Unlock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked = true
}

// Relock requires authentication again, used when the app goes to the
// background.
func (l *Lock) Relock() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlocked = false
}

// SetEnabled toggles the lock feature. Disabling it also clears the
// unlocked flag so re-enabling starts locked.
func (l *Lock) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
	if !enabled {
		l.unlocked = false
	}
}

// Enabled reports whether the lock feature is on at all.
func (l *Lock) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.enabled
}
