package cache

import (
	"sync"

	"github.com/emilsandberg/sl-board/src/common/types"
)

// Store holds the most recent departure snapshot. One value, replaced
// wholesale on every completed fetch; readers never observe a partial write.
type Store struct {
	mu   sync.RWMutex
	snap types.Snapshot
	set  bool
}

func NewStore() *Store {
	return &Store{}
}

// Get returns the current snapshot and whether any fetch has completed yet.
// Before the first Set it returns the empty sentinel.
func (s *Store) Get() (types.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.set {
		return types.EmptySnapshot(), false
	}
	return s.snap, true
}

// Latest is Get for callers that treat the sentinel like any other snapshot.
func (s *Store) Latest() types.Snapshot {
	snap, _ := s.Get()
	return snap
}

func (s *Store) Set(snap types.Snapshot) {
	s.mu.Lock()
	s.snap = snap
	s.set = true
	s.mu.Unlock()
}
