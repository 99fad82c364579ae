package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/skillfinite/skillfinite/internal/api"
	"github.com/skillfinite/skillfinite/internal/cart"
	"github.com/skillfinite/skillfinite/internal/notify"
	"github.com/skillfinite/skillfinite/internal/session"
)

// Snapshot is everything the UI renders, copied out of the stores.
type Snapshot struct {
	Session       session.Session
	Wishlist      []string
	Cart          []cart.Item
	CartTotal     int
	CartOriginal  int
	Enrollments   []api.CourseRef
	Notifications []notify.Record
	Unread        int

	LastUpdated         time.Time
	LastError           error
	ConsecutiveFailures int // Number of consecutive sync failures
}

// IsOffline returns true when the API has been unreachable for multiple syncs.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// Store coordinates concurrent updates to the snapshot.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// Update records the outcome of a sync. The data always replaces the stored
// copy since the domain stores keep their previous state on failure; err only
// drives LastError and the failure counter.
func (s *Store) Update(data Snapshot, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.replaceLocked(data)
	s.snapshot.LastUpdated = time.Now()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.ConsecutiveFailures++
		return
	}
	s.snapshot.LastError = nil
	s.snapshot.ConsecutiveFailures = 0
}

// Replace publishes local changes (a toggle, a cart edit) without touching
// the sync bookkeeping.
func (s *Store) Replace(data Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replaceLocked(data)
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := s.snapshot
	snap.Session = cloneSession(s.snapshot.Session)
	snap.Wishlist = cloneSlice(s.snapshot.Wishlist)
	snap.Cart = cloneSlice(s.snapshot.Cart)
	snap.Enrollments = cloneSlice(s.snapshot.Enrollments)
	snap.Notifications = cloneSlice(s.snapshot.Notifications)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

func (s *Store) replaceLocked(data Snapshot) {
	s.snapshot.Session = cloneSession(data.Session)
	s.snapshot.Wishlist = cloneSlice(data.Wishlist)
	s.snapshot.Cart = cloneSlice(data.Cart)
	s.snapshot.CartTotal = data.CartTotal
	s.snapshot.CartOriginal = data.CartOriginal
	s.snapshot.Enrollments = cloneSlice(data.Enrollments)
	s.snapshot.Notifications = cloneSlice(data.Notifications)
	s.snapshot.Unread = data.Unread
}

func cloneSession(sess session.Session) session.Session {
	if sess.User != nil {
		user := *sess.User
		if user.Stats != nil {
			stats := *user.Stats
			user.Stats = &stats
		}
		sess.User = &user
	}
	return sess
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
