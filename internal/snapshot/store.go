package snapshot

import (
	"sync"
	"time"

	"CoinTerminal/internal/model"
)

// Store holds the last successfully fetched snapshot in memory.
// A failed refresh never touches the stored snapshot, so readers always see
// a row set consistent with a single API response.
type Store struct {
	ttl time.Duration

	mu  sync.RWMutex
	cur *model.Snapshot
}

// NewStore creates an empty store. Snapshots older than ttl are reported
// stale but still served; ttl <= 0 disables staleness.
func NewStore(ttl time.Duration) *Store {
	return &Store{ttl: ttl}
}

// Replace installs a new snapshot wholesale. Callers must not mutate the
// snapshot after handing it over.
func (s *Store) Replace(snap *model.Snapshot) {
	s.mu.Lock()
	s.cur = snap
	s.mu.Unlock()
}

// Current returns the last good snapshot, or false if none was fetched yet.
func (s *Store) Current() (*model.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return nil, false
	}
	return s.cur, true
}

// Age returns the time since the current snapshot was fetched.
func (s *Store) Age() (time.Duration, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.cur == nil {
		return 0, false
	}
	return time.Since(s.cur.FetchedAt), true
}

// Stale reports whether the current snapshot is older than the TTL.
func (s *Store) Stale() bool {
	if s.ttl <= 0 {
		return false
	}
	age, ok := s.Age()
	if !ok {
		return false
	}
	return age > s.ttl
}
