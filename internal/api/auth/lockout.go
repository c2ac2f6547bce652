package auth

import (
	"sync"
	"time"
)

// lockoutEntry tracks failed login attempts for one key.
type lockoutEntry struct {
	failures  int
	expiresAt time.Time // zero while not locked
}

// LockoutTracker locks a login key after repeated failures. The login
// handler keys it by username; rotating usernames is covered by the
// per-IP rate limit on the login route.
//
// State lives in memory only and is lost on restart, which acts as a
// natural cooldown for the single-instance deployments CoreWatch
// targets.
type LockoutTracker struct {
	mu        sync.RWMutex
	entries   map[string]*lockoutEntry
	threshold int
	duration  time.Duration
}

// NewLockoutTracker creates a tracker that locks a key for duration
// after threshold consecutive failures.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	t := &LockoutTracker{
		entries:   make(map[string]*lockoutEntry),
		threshold: threshold,
		duration:  duration,
	}
	go t.cleanupLoop()
	return t
}

// RecordFailure counts a failed login attempt for the key and reports
// whether the key is now locked.
func (t *LockoutTracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	entry, exists := t.entries[key]
	if !exists {
		entry = &lockoutEntry{}
		t.entries[key] = entry
	}

	if !entry.expiresAt.IsZero() {
		if now.Before(entry.expiresAt) {
			// Still locked; failures during the lock don't extend it.
			return true
		}
		// Lock expired, start a fresh count.
		entry.failures = 0
		entry.expiresAt = time.Time{}
	}

	entry.failures++
	if entry.failures >= t.threshold {
		entry.expiresAt = now.Add(t.duration)
		return true
	}
	return false
}

// IsLocked reports whether the key is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, exists := t.entries[key]
	if !exists || entry.expiresAt.IsZero() {
		return false
	}
	return time.Now().Before(entry.expiresAt)
}

// RemainingLockoutTime returns how long until the key's lock expires,
// or zero when it is not locked.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, exists := t.entries[key]
	if !exists || entry.expiresAt.IsZero() {
		return 0
	}
	if remaining := time.Until(entry.expiresAt); remaining > 0 {
		return remaining
	}
	return 0
}

// ClearFailures forgets the key's failure count after a successful
// login.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, key)
}

func (t *LockoutTracker) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		t.cleanup()
	}
}

// cleanup drops entries whose lock has expired or that never failed.
func (t *LockoutTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for key, entry := range t.entries {
		if entry.failures == 0 || (!entry.expiresAt.IsZero() && now.After(entry.expiresAt)) {
			delete(t.entries, key)
		}
	}
}
