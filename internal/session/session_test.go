package session

import "testing"

func TestZeroValueIsUnlocked(t *testing.T) {
	var l Lock
	if l.Locked() {
		t.Error("zero value Lock should not be locked")
	}
}

func TestLockLifecycle(t *testing.T) {
	l := NewLock(true)

	if !l.Locked() {
		t.Fatal("enabled lock should start locked")
	}

	l.Unlock()
	if l.Locked() {
		t.Error("session should be unlocked after Unlock")
	}

	l.Relock()
	if !l.Locked() {
		t.Error("session should be locked again after Relock")
	}
}

func TestDisabledLockNeverLocks(t *testing.T) {
	l := NewLock(false)
	if l.Locked() {
		t.Error("disabled lock should never report locked")
	}
	l.Relock()
	if l.Locked() {
		t.Error("Relock on a disabled lock should not lock the session")
	}
}

func TestReEnableStartsLocked(t *testing.T) {
	l := NewLock(true)
	l.Unlock()

	l.SetEnabled(false)
	if l.Locked() {
		t.Error("disabling the lock should unlock the session")
	}

	l.SetEnabled(true)
	if !l.Locked() {
		t.Error("re-enabling the lock should require authentication again")
	}
	if !l.Enabled() {
		t.Error("Enabled() = false after SetEnabled(true)")
	}
}
